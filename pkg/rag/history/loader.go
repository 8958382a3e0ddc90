package history

import (
	"context"

	"kb-assistant-be/internal/constant"
	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/repository/specification"
	"kb-assistant-be/internal/repository/unitofwork"
	"kb-assistant-be/pkg/llm"
)

// Loader reads and appends conversation history. History is scoped by
// the session scope key (tenant_id:user_email:session_id), so a rotated
// session starts with a clean transcript while the old one stays in
// the table for auditing until retention prunes it.
type Loader struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewLoader(uowFactory unitofwork.RepositoryFactory) *Loader {
	return &Loader{
		uowFactory: uowFactory,
	}
}

// LoadConversationHistory returns the most recent messages of the scope
// in chronological order, bounded to keep condense prompts small.
func (l *Loader) LoadConversationHistory(ctx context.Context, scopeKey string) ([]llm.Message, error) {
	uow := l.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByScopeKey{ScopeKey: scopeKey},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{N: constant.MaxHistoryMessages},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(chats))
	for i := len(chats) - 1; i >= 0; i-- {
		messages = append(messages, llm.Message{
			Role:    chats[i].Role,
			Content: chats[i].Chat,
		})
	}
	return messages, nil
}

// AppendExchange persists a question/answer pair atomically. A failed
// append must not leave a question without its answer.
func (l *Loader) AppendExchange(ctx context.Context, tenantId, scopeKey, question, answer string) error {
	uow := l.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	msgs := []*entity.ChatMessage{
		{
			ScopeKey: scopeKey,
			TenantId: tenantId,
			Role:     constant.ChatMessageRoleUser,
			Chat:     question,
		},
		{
			ScopeKey: scopeKey,
			TenantId: tenantId,
			Role:     constant.ChatMessageRoleAssistant,
			Chat:     answer,
		},
	}

	if err := uow.ChatMessageRepository().CreateBulk(ctx, msgs); err != nil {
		uow.Rollback()
		return err
	}

	return uow.Commit()
}
