package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID
	ScopeKey  string
	TenantId  string
	Role      string
	Chat      string
	CreatedAt time.Time
}
