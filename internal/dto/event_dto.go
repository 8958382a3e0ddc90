package dto

// SessionRotatedMessage travels over the in-process event bus when an
// idle session gets a new id. PreviousScope is the chat-history scope
// key no longer written to.
type SessionRotatedMessage struct {
	SessionKey    string `json:"session_key"`
	TenantId      string `json:"tenant_id"`
	PreviousScope string `json:"previous_scope"`
}
