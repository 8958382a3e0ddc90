package mapper

import (
	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:        msg.Id,
		ScopeKey:  msg.ScopeKey,
		TenantId:  msg.TenantId,
		Role:      msg.Role,
		Chat:      msg.Chat,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *ChatMapper) ToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}
	return &model.ChatMessage{
		Id:        msg.Id,
		ScopeKey:  msg.ScopeKey,
		TenantId:  msg.TenantId,
		Role:      msg.Role,
		Chat:      msg.Chat,
		CreatedAt: msg.CreatedAt,
	}
}
