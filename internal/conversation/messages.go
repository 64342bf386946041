package conversation

import (
	"fmt"

	"ledgerbot/internal/core"
)

// Selection payload prefixes used by the keyboards this package emits.
const (
	KindPrefix     = "kind:"
	CategoryPrefix = "category:"
)

const (
	msgWelcome = "👋 *Welcome to Expense Tracker Bot!*\n\n" +
		"You can use this bot to quickly record income and Expenses.\n\n" +
		"Run /help to see help message\n\n" +
		"➡️ *Let’s get started! Enter the amount:*"
	msgWelcomeBack = "Welcome back! Let’s continue. Please enter the amount:\n" +
		"Run /help to see help message"
	msgCanceled = "❌ The session has been canceled.\n" +
		"👉 Select /start to add a new transaction.\n" +
		"👉 Select /help for help menu."
	msgInvalidAmount = "❌ Invalid amount format.\n" +
		"Please enter a valid number (e.g., 100, 100.50, 0.99).\n" +
		"👉 Type /cancel to stop."
	msgAskKind        = "Is this an *Income* or *Expense*?"
	msgInvalidKind    = "❗ Please select either *Income* or *Expense*.\n👉 Type /cancel to stop."
	msgAskCategory    = "📂 Please select a category:\n👉 Type /cancel to stop."
	msgAskDescription = "📝 Please provide a description for this transaction.\n👉 Type /cancel to stop."
	msgStartHint      = "👉 Select /start to add a new transaction.\nRun /help to see help message"
	msgNotUnderstood  = "❗ I didn't understand that. Please follow the instructions or use /cancel."
	msgSaveFailed     = "⚠️ The transaction could not be saved. Your entries are kept.\n" +
		"👉 Send the description again to retry, or type /cancel to stop."
)

func kindKeyboard() [][]Option {
	return [][]Option{
		{{Label: core.Income.Title(), Data: KindPrefix + string(core.Income)}},
		{{Label: core.Expense.Title(), Data: KindPrefix + string(core.Expense)}},
	}
}

func categoryKeyboard(labels []string) [][]Option {
	rows := make([][]Option, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, []Option{{Label: label, Data: CategoryPrefix + label}})
	}
	return rows
}

func confirmation(tx core.Transaction) string {
	return fmt.Sprintf("✅ *Transaction Saved:*\n"+
		"Amount: %s\n"+
		"Type: %s\n"+
		"Category: %s\n"+
		"Description: %s\n"+
		"User: %s",
		tx.Amount,
		tx.Kind.Title(),
		EscapeMarkdown(tx.Category),
		EscapeMarkdown(tx.Description),
		EscapeMarkdown(tx.Author))
}

// StartHint is the reply for free text outside a conversation.
func StartHint() Reply {
	return Markdown(msgStartHint)
}
