// Package telegram adapts the Telegram Bot API to the bot package's
// Transport and Update types.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ledgerbot/internal/bot"
	"ledgerbot/internal/conversation"
	"ledgerbot/internal/log"
)

// api is the part of *tgbotapi.BotAPI the client uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Client struct {
	api    api
	bot    *tgbotapi.BotAPI // nil in tests
	logger *log.Logger
}

var _ bot.Transport = (*Client)(nil)

// New authenticates with the Bot API.
func New(token string, logger *log.Logger) (*Client, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot init: %w", err)
	}
	botAPI.Debug = false

	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		api:    botAPI,
		bot:    botAPI,
		logger: logger.WithComponent(log.ComponentTelegram),
	}, nil
}

// Username is the bot's own handle.
func (c *Client) Username() string {
	if c.bot == nil {
		return ""
	}
	return c.bot.Self.UserName
}

// Send delivers one reply to chatID.
func (c *Client) Send(ctx context.Context, chatID int64, reply conversation.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(newMessage(chatID, reply)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// AcknowledgeSelection stops the client-side spinner of an inline button.
func (c *Client) AcknowledgeSelection(ctx context.Context, selectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(selectionID, "")); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// Poll long-polls for updates and hands each one to submit until ctx is done.
func (c *Client) Poll(ctx context.Context, submit func(context.Context, bot.Update) error) error {
	if c.bot == nil {
		return fmt.Errorf("telegram client not connected")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	c.logger.InfoContext(ctx, "Polling for updates", "bot", c.bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-updates:
			if !ok {
				return nil
			}
			upd, ok := Translate(raw)
			if !ok {
				continue
			}
			if err := submit(ctx, upd); err != nil {
				c.logger.WarnContext(ctx, "Failed to submit update",
					log.FieldUserID, upd.UserID,
					log.FieldError, err)
			}
		}
	}
}

// Translate converts a Bot API update. Only messages and callback queries
// from private chats are kept.
func Translate(raw tgbotapi.Update) (bot.Update, bool) {
	if q := raw.CallbackQuery; q != nil {
		if q.From == nil || q.Message == nil || q.Message.Chat == nil || !q.Message.Chat.IsPrivate() {
			return bot.Update{}, false
		}
		return bot.Update{
			ID:            raw.UpdateID,
			Kind:          bot.UpdateSelection,
			UserID:        q.From.ID,
			ChatID:        q.Message.Chat.ID,
			Author:        authorOf(q.From),
			SelectionID:   q.ID,
			SelectionData: q.Data,
		}, true
	}

	msg := raw.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return bot.Update{}, false
	}

	upd := bot.Update{
		ID:     raw.UpdateID,
		UserID: msg.From.ID,
		ChatID: msg.Chat.ID,
		Author: authorOf(msg.From),
		Text:   msg.Text,
	}
	if msg.IsCommand() {
		upd.Kind = bot.UpdateCommand
		upd.Command = msg.Command()
	} else {
		upd.Kind = bot.UpdateText
	}
	return upd, true
}

// authorOf picks the display name stored with a transaction.
func authorOf(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}

func newMessage(chatID int64, reply conversation.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Format == conversation.FormatMarkdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}
	if len(reply.Options) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Options))
		for _, row := range reply.Options {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, opt := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(opt.Label, opt.Data))
			}
			rows = append(rows, buttons)
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	return msg
}
