package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kb-assistant-be/internal/dto"
	"kb-assistant-be/internal/pkg/serverutils"
	"kb-assistant-be/pkg/llm"
	"kb-assistant-be/pkg/rag"
	"kb-assistant-be/pkg/rag/retriever"
	"kb-assistant-be/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessionStore struct {
	records     map[string]*session.Session
	provisioned bool
	failWith    error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{records: make(map[string]*session.Session), provisioned: true}
}

func (f *fakeSessionStore) Provisioned(ctx context.Context) bool { return f.provisioned }

func (f *fakeSessionStore) Get(ctx context.Context, key string) (*session.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	rec, ok := f.records[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeSessionStore) Create(ctx context.Context, s *session.Session) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.records[s.SessionKey]; ok {
		return session.ErrExists
	}
	cp := *s
	f.records[s.SessionKey] = &cp
	return nil
}

func (f *fakeSessionStore) Put(ctx context.Context, s *session.Session) error {
	if f.failWith != nil {
		return f.failWith
	}
	cp := *s
	f.records[s.SessionKey] = &cp
	return nil
}

type stubLLM struct{}

func (stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "an answer", nil
}

type stubRetriever struct {
	docs []retriever.Document
}

func (s *stubRetriever) SimilaritySearch(ctx context.Context, tenant, query string, k int) ([]retriever.Document, error) {
	return s.docs, nil
}

type stubHistory struct{}

func (stubHistory) LoadConversationHistory(ctx context.Context, scopeKey string) ([]llm.Message, error) {
	return nil, nil
}

func (stubHistory) AppendExchange(ctx context.Context, tenantId, scopeKey, question, answer string) error {
	return nil
}

type capturingPublisher struct {
	messages []*dto.SessionRotatedMessage
}

func (c *capturingPublisher) PublishSessionRotated(ctx context.Context, payload *dto.SessionRotatedMessage) error {
	c.messages = append(c.messages, payload)
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func newChatServiceForTest(store session.Store, docs []retriever.Document, pub IPublisherService) IChatService {
	manager := session.NewManager(store)
	engine := rag.NewEngine(stubLLM{}, &stubRetriever{docs: docs}, stubHistory{})
	return NewChatService(manager, engine, pub, noopLogger{})
}

func TestRagCreatesSessionAndAnswers(t *testing.T) {
	store := newFakeSessionStore()
	svc := newChatServiceForTest(store, nil, &capturingPublisher{})

	identity := serverutils.Identity{TenantId: "acme", UserEmail: "bob@acme.io"}
	res, err := svc.Rag(context.Background(), identity, &dto.RagRequest{Q: "What is the policy?"})

	require.NoError(t, err)
	assert.Equal(t, "an answer", res.Answer)
	assert.NotEmpty(t, res.SessionId)

	stored := store.records["acme:bob@acme.io"]
	require.NotNil(t, stored)
	assert.Equal(t, stored.SessionID, res.SessionId)
}

func TestRagDegradesWhenSessionStoreUnavailable(t *testing.T) {
	store := newFakeSessionStore()
	store.failWith = fmt.Errorf("%w: connection refused", session.ErrUnavailable)
	svc := newChatServiceForTest(store, nil, &capturingPublisher{})

	identity := serverutils.Identity{TenantId: "acme", UserEmail: "bob@acme.io"}
	res, err := svc.Rag(context.Background(), identity, &dto.RagRequest{Q: "What is the policy?"})

	require.NoError(t, err)
	assert.Equal(t, "an answer", res.Answer)
	// Session-less turn: no session id handed back.
	assert.Empty(t, res.SessionId)
}

func TestRagPublishesRotationForIdleSession(t *testing.T) {
	store := newFakeSessionStore()
	stale := &session.Session{
		SessionKey:      "acme:bob@acme.io",
		SessionID:       "old-session",
		LastInteraction: time.Now().Add(-time.Hour).Unix(),
	}
	store.records[stale.SessionKey] = stale

	pub := &capturingPublisher{}
	svc := newChatServiceForTest(store, nil, pub)

	identity := serverutils.Identity{TenantId: "acme", UserEmail: "bob@acme.io"}
	res, err := svc.Rag(context.Background(), identity, &dto.RagRequest{Q: "Anything new?"})

	require.NoError(t, err)
	assert.NotEqual(t, "old-session", res.SessionId)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "acme:bob@acme.io", pub.messages[0].SessionKey)
	assert.Equal(t, "acme:bob@acme.io:old-session", pub.messages[0].PreviousScope)
}

func TestRagVerboseReturnsDocsAndDedupedSources(t *testing.T) {
	docs := []retriever.Document{
		{PageContent: "chunk a", Metadata: map[string]interface{}{"source": "data/acme.csv"}, Similarity: 0.9},
		{PageContent: "chunk b", Metadata: map[string]interface{}{"source": "data/acme.csv"}, Similarity: 0.8},
	}
	svc := newChatServiceForTest(newFakeSessionStore(), docs, &capturingPublisher{})

	identity := serverutils.Identity{TenantId: "acme", UserEmail: "bob@acme.io"}
	res, err := svc.Rag(context.Background(), identity, &dto.RagRequest{Q: "q", Verbose: true})

	require.NoError(t, err)
	require.Len(t, res.Docs, 2)
	assert.Equal(t, "chunk a", res.Docs[0].PageContent)
	assert.Equal(t, []string{"data/acme.csv"}, res.Sources)
}

func TestRagOmitsDocsWithoutVerbose(t *testing.T) {
	docs := []retriever.Document{{PageContent: "chunk a"}}
	svc := newChatServiceForTest(newFakeSessionStore(), docs, &capturingPublisher{})

	identity := serverutils.Identity{TenantId: "acme", UserEmail: "bob@acme.io"}
	res, err := svc.Rag(context.Background(), identity, &dto.RagRequest{Q: "q"})

	require.NoError(t, err)
	assert.Empty(t, res.Docs)
}

func TestSessionEndpointReflectsStoredRecord(t *testing.T) {
	store := newFakeSessionStore()
	store.records["acme:bob@acme.io"] = &session.Session{
		SessionKey:      "acme:bob@acme.io",
		SessionID:       "sess-7",
		LastInteraction: time.Now().Unix(),
	}
	svc := newChatServiceForTest(store, nil, &capturingPublisher{})

	identity := serverutils.Identity{TenantId: "acme", UserEmail: "bob@acme.io"}
	res, err := svc.Session(context.Background(), identity)

	require.NoError(t, err)
	assert.Equal(t, "sess-7", res.SessionId)
	assert.False(t, res.Idle)
}
