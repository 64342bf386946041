package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ledgerbot/internal/conversation"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/log"
	"ledgerbot/internal/report"
)

const (
	msgHelp = "🤖 *Expense Tracker Bot Help*\n\n" +
		"Here's how you can interact with this bot:\n" +
		"• /start – Begin a new transaction\n" +
		"• /today – Show Today's transaction\n" +
		"• /week – Show This Week's transaction\n" +
		"• /month – Show This Month's transaction\n" +
		"• /summary – Show totals by category\n" +
		"• /cancel – Cancel the current transaction\n" +
		"• /help – Show this help message\n\n" +
		"You’ll be guided step-by-step to record either income or Expense.\n" +
		"Just follow the prompts. ✅"
	msgSummaryMenu       = "📊 Select a period to view your expense summary:"
	msgInvalidSelection  = "❌ Invalid selection."
	msgUnknownCommand    = "❗ Unknown command. Run /help to see what I can do."
	msgReportUnavailable = "⚠️ Could not load transactions right now. Please try again later."
	msgSlowDown          = "⏳ You're sending messages too quickly. Please wait a moment."

	summaryPrefix = "summary_"
)

func summaryKeyboard() [][]conversation.Option {
	return [][]conversation.Option{{
		{Label: "📅 Today", Data: summaryPrefix + string(report.PeriodToday)},
		{Label: "📆 This Week", Data: summaryPrefix + string(report.PeriodWeek)},
		{Label: "🗓️ This Month", Data: summaryPrefix + string(report.PeriodMonth)},
	}}
}

// Handler routes updates to the conversation machine and the report engine.
type Handler struct {
	machine   *conversation.Machine
	reports   *report.Engine
	transport Transport
}

var _ Processor = (*Handler)(nil)

func NewHandler(machine *conversation.Machine, reports *report.Engine, transport Transport) *Handler {
	return &Handler{
		machine:   machine,
		reports:   reports,
		transport: transport,
	}
}

// Process answers one update. Errors returned are transport failures; user
// facing problems are answered in chat and only logged.
func (h *Handler) Process(ctx context.Context, upd Update) error {
	replies, err := h.route(ctx, upd)
	logger := log.FromContext(ctx)

	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrUnexpectedInput):
		logger.DebugContext(ctx, "Unexpected input", log.FieldError, err)
	case errors.Is(err, ledger.ErrPersistence):
		logger.ErrorContext(ctx, "Storage failure while handling update", log.FieldError, err)
	default:
		logger.WarnContext(ctx, "Update handled with error", log.FieldError, err)
	}

	for _, reply := range replies {
		if err := h.transport.Send(ctx, upd.ChatID, reply); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
	}
	return nil
}

func (h *Handler) route(ctx context.Context, upd Update) ([]conversation.Reply, error) {
	switch upd.Kind {
	case UpdateCommand:
		return h.command(ctx, upd, upd.Command)
	case UpdateSelection:
		if upd.SelectionID != "" {
			if err := h.transport.AcknowledgeSelection(ctx, upd.SelectionID); err != nil {
				log.FromContext(ctx).WarnContext(ctx, "Failed to acknowledge selection", log.FieldError, err)
			}
		}
		return h.selection(ctx, upd)
	default:
		return h.machine.Handle(ctx, h.input(conversation.InputText, upd, upd.Text))
	}
}

func (h *Handler) command(ctx context.Context, upd Update, name string) ([]conversation.Reply, error) {
	switch strings.ToLower(name) {
	case "start":
		return h.machine.Handle(ctx, h.input(conversation.InputStart, upd, ""))
	case "cancel":
		return h.machine.Handle(ctx, h.input(conversation.InputCancel, upd, ""))
	case "help":
		return []conversation.Reply{conversation.Markdown(msgHelp)}, nil
	case "today", "week", "month":
		return h.listing(ctx, report.PeriodName(strings.ToLower(name)))
	case "summary":
		return []conversation.Reply{conversation.Plain(msgSummaryMenu, summaryKeyboard()...)}, nil
	default:
		return []conversation.Reply{conversation.Plain(msgUnknownCommand)}, fmt.Errorf("unknown command %q", name)
	}
}

func (h *Handler) selection(ctx context.Context, upd Update) ([]conversation.Reply, error) {
	data := upd.SelectionData
	switch {
	case data == "start" || data == "today" || data == "week" || data == "month":
		return h.command(ctx, upd, data)
	case strings.HasPrefix(data, summaryPrefix):
		name, err := report.ParsePeriodName(strings.TrimPrefix(data, summaryPrefix))
		if err != nil {
			return []conversation.Reply{conversation.Plain(msgInvalidSelection)}, err
		}
		return h.summary(ctx, name)
	default:
		return h.machine.Handle(ctx, h.input(conversation.InputSelection, upd, data))
	}
}

func (h *Handler) listing(ctx context.Context, name report.PeriodName) ([]conversation.Reply, error) {
	parts, err := h.reports.Listing(ctx, name)
	if err != nil {
		return []conversation.Reply{conversation.Plain(msgReportUnavailable)}, err
	}
	replies := make([]conversation.Reply, 0, len(parts))
	for _, text := range parts {
		replies = append(replies, conversation.Markdown(text))
	}
	return replies, nil
}

func (h *Handler) summary(ctx context.Context, name report.PeriodName) ([]conversation.Reply, error) {
	text, err := h.reports.Summary(ctx, name)
	if err != nil {
		return []conversation.Reply{conversation.Plain(msgReportUnavailable)}, err
	}
	return []conversation.Reply{conversation.Plain(text)}, nil
}

func (h *Handler) input(kind conversation.InputKind, upd Update, text string) conversation.Input {
	return conversation.Input{
		Kind:   kind,
		UserID: upd.UserID,
		Author: upd.Author,
		Text:   text,
	}
}
