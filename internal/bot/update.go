package bot

import (
	"context"

	"ledgerbot/internal/conversation"
)

// UpdateKind tells what the user did.
type UpdateKind int

const (
	UpdateText UpdateKind = iota
	UpdateCommand
	UpdateSelection
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateCommand:
		return "command"
	case UpdateSelection:
		return "selection"
	default:
		return "text"
	}
}

// Update is one inbound chat event, already decoded by the transport.
type Update struct {
	ID            int
	Kind          UpdateKind
	UserID        int64
	ChatID        int64
	Author        string
	Text          string
	Command       string // without the leading slash
	SelectionID   string
	SelectionData string
}

// Transport delivers replies to a chat.
type Transport interface {
	Send(ctx context.Context, chatID int64, reply conversation.Reply) error
	AcknowledgeSelection(ctx context.Context, selectionID string) error
}

// Processor handles one update. Dispatcher guarantees that calls for the
// same user never overlap.
type Processor interface {
	Process(ctx context.Context, upd Update) error
}
