package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScopeKey  string    `gorm:"type:text;not null;index"` // tenant_id:user_email:session_id
	TenantId  string    `gorm:"type:text;not null;index"`
	Role      string    `gorm:"type:text;not null"`
	Chat      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
