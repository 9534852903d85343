package store

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Conversation is a chat session. SessionID is unique; a conversation owns
// its messages (cascade delete).
type Conversation struct {
	ID        int32
	SessionID string
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

type FindConversation struct {
	ID        *int32
	SessionID *string
	Limit     int
}

type DeleteConversation struct {
	ID int32
}

// Message is a single message in a conversation. Metadata carries loosely
// typed payloads such as executed tool calls.
type Message struct {
	ID             int32
	ConversationID int32
	Role           Role
	Content        string
	Metadata       map[string]any
	CreatedTs      int64
}

type FindMessage struct {
	ConversationID *int32
	Limit          int
}
