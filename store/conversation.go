package store

import "github.com/pkg/errors"

// ErrVersionConflict is returned when an exchange commit loses the
// optimistic-lock race: the conversation version advanced between load and
// commit. The caller must reload and retry the whole exchange.
var ErrVersionConflict = errors.New("conversation version conflict")

// ErrNotFound is returned when a record is absent or not owned by the caller.
var ErrNotFound = errors.New("not found")

// Conversation is a chat session between one user and the assistant.
// Version starts at 1 and advances by exactly one per committed exchange;
// version and updated_ts only ever change together, inside one commit.
type Conversation struct {
	ID        int32
	UID       string
	CreatorID int32
	Version   int32
	CreatedTs int64
	UpdatedTs int64
}

type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Message is one entry in a conversation's append-only log. Messages are
// immutable once written; ordering is by (created_ts, id).
type Message struct {
	ID             int32
	UID            string
	ConversationID int32
	// CreatorID is denormalized from the conversation so isolation filtering
	// never needs a join.
	CreatorID int32
	Role      MessageRole
	Content   string
	// ToolCalls holds the ordered tool invocations of an assistant message as
	// a JSON array. Empty for user messages.
	ToolCalls string
	CreatedTs int64
}

type FindMessage struct {
	ConversationID *int32
	CreatorID      *int32
	// Limit bounds the result set; combined with OrderByCreatedTsDesc it
	// selects the sliding window of most recent messages.
	Limit                *int
	OrderByCreatedTsDesc bool
}
