package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kb-assistant-be/pkg/llm"
	"kb-assistant-be/pkg/rag/retriever"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	generateCalls []string
	responses     []string
	err           error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.generateCalls = append(f.generateCalls, prompt)
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

type fakeRetriever struct {
	lastQuery string
	lastK     int
	docs      []retriever.Document
	err       error
}

func (f *fakeRetriever) SimilaritySearch(ctx context.Context, tenant, query string, k int) ([]retriever.Document, error) {
	f.lastQuery = query
	f.lastK = k
	return f.docs, f.err
}

type fakeHistory struct {
	messages []llm.Message
	appended [][2]string
	loadErr  error
}

func (f *fakeHistory) LoadConversationHistory(ctx context.Context, scopeKey string) ([]llm.Message, error) {
	return f.messages, f.loadErr
}

func (f *fakeHistory) AppendExchange(ctx context.Context, tenantId, scopeKey, question, answer string) error {
	f.appended = append(f.appended, [2]string{question, answer})
	return nil
}

func TestAnswerFirstTurnSkipsCondense(t *testing.T) {
	llmFake := &fakeLLM{responses: []string{"The budget is 2000 EUR."}}
	ret := &fakeRetriever{docs: []retriever.Document{{PageContent: "travel budget: 2000 EUR"}}}
	hist := &fakeHistory{}

	engine := NewEngine(llmFake, ret, hist)
	result, err := engine.Answer(context.Background(), AnswerInput{
		TenantId: "acme",
		ScopeKey: "acme:bob@acme.io:s1",
		Question: "What is the travel budget?",
		K:        3,
	})

	require.NoError(t, err)
	// No history, so the only LLM call is the answering one.
	assert.Len(t, llmFake.generateCalls, 1)
	assert.Equal(t, "What is the travel budget?", result.StandaloneQuestion)
	assert.Equal(t, "What is the travel budget?", ret.lastQuery)
	assert.Equal(t, "The budget is 2000 EUR.", result.Answer)
}

func TestAnswerCondensesFollowUpForRetrieval(t *testing.T) {
	llmFake := &fakeLLM{responses: []string{
		"What is the travel budget for managers?",
		"Managers get 3000 EUR.",
	}}
	ret := &fakeRetriever{docs: []retriever.Document{{PageContent: "manager travel budget: 3000 EUR"}}}
	hist := &fakeHistory{messages: []llm.Message{
		{Role: "user", Content: "What is the travel budget?"},
		{Role: "assistant", Content: "It is 2000 EUR."},
	}}

	engine := NewEngine(llmFake, ret, hist)
	result, err := engine.Answer(context.Background(), AnswerInput{
		TenantId: "acme",
		ScopeKey: "acme:bob@acme.io:s1",
		Question: "And for managers?",
	})

	require.NoError(t, err)
	assert.Len(t, llmFake.generateCalls, 2)
	// Retrieval must see the rewritten question, not the follow-up.
	assert.Equal(t, "What is the travel budget for managers?", ret.lastQuery)
	assert.Equal(t, "What is the travel budget for managers?", result.StandaloneQuestion)
	assert.Equal(t, "And for managers?", result.Question)

	// The QA prompt embeds the retrieved chunk.
	assert.True(t, strings.Contains(llmFake.generateCalls[1], "manager travel budget: 3000 EUR"))
}

func TestAnswerPersistsOriginalQuestion(t *testing.T) {
	llmFake := &fakeLLM{responses: []string{"standalone", "the answer"}}
	ret := &fakeRetriever{}
	hist := &fakeHistory{messages: []llm.Message{{Role: "user", Content: "hi"}}}

	engine := NewEngine(llmFake, ret, hist)
	_, err := engine.Answer(context.Background(), AnswerInput{
		TenantId: "acme",
		ScopeKey: "acme:bob@acme.io:s1",
		Question: "And for managers?",
	})

	require.NoError(t, err)
	require.Len(t, hist.appended, 1)
	assert.Equal(t, "And for managers?", hist.appended[0][0])
	assert.Equal(t, "the answer", hist.appended[0][1])
}

func TestAnswerSessionlessTurnSkipsHistory(t *testing.T) {
	llmFake := &fakeLLM{responses: []string{"an answer"}}
	ret := &fakeRetriever{}
	hist := &fakeHistory{loadErr: errors.New("should not be called")}

	engine := NewEngine(llmFake, ret, hist)
	result, err := engine.Answer(context.Background(), AnswerInput{
		TenantId: "acme",
		Question: "What is the travel budget?",
	})

	require.NoError(t, err)
	assert.Empty(t, hist.appended)
	assert.Equal(t, "an answer", result.Answer)
}

func TestAnswerDefaultsRetrievalFanOut(t *testing.T) {
	llmFake := &fakeLLM{responses: []string{"answer"}}
	ret := &fakeRetriever{}

	engine := NewEngine(llmFake, ret, &fakeHistory{})
	_, err := engine.Answer(context.Background(), AnswerInput{
		TenantId: "acme",
		Question: "q",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, ret.lastK)
}

func TestAnswerPropagatesRetrieverError(t *testing.T) {
	llmFake := &fakeLLM{responses: []string{"unused"}}
	ret := &fakeRetriever{err: errors.New("index unavailable")}

	engine := NewEngine(llmFake, ret, &fakeHistory{})
	_, err := engine.Answer(context.Background(), AnswerInput{
		TenantId: "acme",
		Question: "q",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve")
}
