package conversation

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Format selects how the transport renders Reply.Text.
type Format int

const (
	FormatPlain Format = iota
	FormatMarkdown
)

// Option is one selectable button. Data comes back as the selection payload.
type Option struct {
	Label string
	Data  string
}

// Reply is an outbound chat message. Options are laid out row by row.
type Reply struct {
	Text    string
	Format  Format
	Options [][]Option
}

// Markdown builds a markdown reply.
func Markdown(text string, rows ...[]Option) Reply {
	return Reply{Text: text, Format: FormatMarkdown, Options: rows}
}

// Plain builds a plain-text reply.
func Plain(text string, rows ...[]Option) Reply {
	return Reply{Text: text, Format: FormatPlain, Options: rows}
}

// EscapeMarkdown neutralizes user text placed inside a legacy Markdown reply.
func EscapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}
