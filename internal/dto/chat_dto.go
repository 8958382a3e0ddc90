package dto

// RagRequest is one conversational turn against the tenant knowledge
// base. UserSessionId carries the client's idea of its session; the
// server decides whether it is still valid.
type RagRequest struct {
	Q               string   `json:"q" validate:"required"`
	UserSessionId   string   `json:"user_session_id,omitempty"`
	Verbose         bool     `json:"verbose,omitempty"`
	MaxMatchingDocs int      `json:"max_matching_docs,omitempty" validate:"omitempty,min=1,max=20"`
	Temperature     *float64 `json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	TopP            *float64 `json:"topP,omitempty" validate:"omitempty,gt=0,max=1"`
}

type MatchingDocDTO struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Similarity  float64                `json:"similarity"`
}

type RagResponse struct {
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	SessionId string           `json:"session_id"`
	Docs      []MatchingDocDTO `json:"docs,omitempty"`
	Sources   []string         `json:"sources,omitempty"`
}

// SessionResponse describes the caller's current session state without
// running a conversational turn.
type SessionResponse struct {
	SessionId       string `json:"session_id"`
	LastInteraction int64  `json:"last_interaction"`
	Idle            bool   `json:"idle"`
}
