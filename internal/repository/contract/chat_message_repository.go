package contract

import (
	"context"
	"time"

	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/repository/specification"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, msg *entity.ChatMessage) error
	CreateBulk(ctx context.Context, msgs []*entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)

	// DeleteByScopeKeyBefore removes history of a rotated-out session scope
	// older than the cutoff. Used by the retention consumer only.
	DeleteByScopeKeyBefore(ctx context.Context, scopeKey string, cutoff time.Time) error
}
