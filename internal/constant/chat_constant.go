package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

const (
	// DefaultMaxMatchingDocs is the retrieval fan-out when the request does
	// not ask for a specific number of chunks.
	DefaultMaxMatchingDocs = 3

	DefaultTemperature = 0.1
	DefaultTopP        = 0.9

	// MaxHistoryMessages bounds how much conversation history is replayed
	// into the condense prompt.
	MaxHistoryMessages = 10
)

const (
	HeaderTenantID  = "X-Auth-Request-Tenantid"
	HeaderUserEmail = "X-Auth-Request-Email"
)
