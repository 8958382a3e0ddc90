package rag

import (
	"context"
	"fmt"
	"strings"

	"kb-assistant-be/internal/constant"
	"kb-assistant-be/pkg/llm"
	"kb-assistant-be/pkg/rag/prompt"
	"kb-assistant-be/pkg/rag/retriever"
)

// DocumentRetriever abstracts the vector search backend.
type DocumentRetriever interface {
	SimilaritySearch(ctx context.Context, tenant, query string, k int) ([]retriever.Document, error)
}

// HistoryStore abstracts conversation history persistence. A nil-safe
// implementation is required: the engine skips it entirely for
// session-less turns.
type HistoryStore interface {
	LoadConversationHistory(ctx context.Context, scopeKey string) ([]llm.Message, error)
	AppendExchange(ctx context.Context, tenantId, scopeKey, question, answer string) error
}

// AnswerInput carries one conversational turn. An empty ScopeKey means
// the turn runs without history (degraded, session-less mode).
type AnswerInput struct {
	TenantId    string
	ScopeKey    string
	Question    string
	K           int
	Temperature float64
	TopP        float64
}

// AnswerResult is the engine output. StandaloneQuestion is the
// condensed question that was actually embedded for retrieval.
type AnswerResult struct {
	Question           string
	StandaloneQuestion string
	Answer             string
	Docs               []retriever.Document
}

// Engine runs the conversational retrieval pipeline: condense the
// question against history, retrieve, answer grounded in the retrieved
// chunks, then persist the exchange.
type Engine struct {
	llmProvider llm.LLMProvider
	retriever   DocumentRetriever
	history     HistoryStore
}

func NewEngine(llmProvider llm.LLMProvider, docRetriever DocumentRetriever, historyStore HistoryStore) *Engine {
	return &Engine{
		llmProvider: llmProvider,
		retriever:   docRetriever,
		history:     historyStore,
	}
}

func (e *Engine) Answer(ctx context.Context, input AnswerInput) (*AnswerResult, error) {
	if input.K <= 0 {
		input.K = constant.DefaultMaxMatchingDocs
	}

	var conversation []llm.Message
	if input.ScopeKey != "" {
		loaded, err := e.history.LoadConversationHistory(ctx, input.ScopeKey)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		conversation = loaded
	}

	standalone, err := e.condense(ctx, conversation, input.Question)
	if err != nil {
		return nil, fmt.Errorf("condense question: %w", err)
	}

	// Retrieval embeds the standalone question, not the raw follow-up.
	// A follow-up like "and for managers?" carries no retrievable signal
	// on its own.
	docs, err := e.retriever.SimilaritySearch(ctx, input.TenantId, standalone, input.K)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	contexts := make([]string, len(docs))
	for i, d := range docs {
		contexts[i] = d.PageContent
	}

	answer, err := e.llmProvider.Generate(ctx,
		prompt.NewQABuilder(contexts, standalone).Build(),
		llm.WithTemperature(input.Temperature),
		llm.WithTopP(input.TopP),
	)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if input.ScopeKey != "" {
		if err := e.history.AppendExchange(ctx, input.TenantId, input.ScopeKey, input.Question, answer); err != nil {
			return nil, fmt.Errorf("append history: %w", err)
		}
	}

	return &AnswerResult{
		Question:           input.Question,
		StandaloneQuestion: standalone,
		Answer:             answer,
		Docs:               docs,
	}, nil
}

// condense rewrites the question into a standalone one. With no
// history the question is already standalone and no LLM call is made.
func (e *Engine) condense(ctx context.Context, conversation []llm.Message, question string) (string, error) {
	if len(conversation) == 0 {
		return question, nil
	}

	standalone, err := e.llmProvider.Generate(ctx,
		prompt.NewCondenseBuilder(conversation, question).Build(),
		llm.WithTemperature(0),
	)
	if err != nil {
		return "", err
	}

	standalone = strings.TrimSpace(standalone)
	if standalone == "" {
		return question, nil
	}
	return standalone, nil
}
