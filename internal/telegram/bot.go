package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/alexsavio/vibe-reachout/internal/ipc"
)

// Bot wraps go-telegram/bot as the chat transport, implementing
// ipc.ChatAdapter and routing every incoming update to a Router.
//
// Grounded on igoryanba-ricochet/internal/telegram/bot.go's Bot type: one
// go-telegram/bot.Bot, a default update handler, send/edit helpers built on
// SendMessageParams/EditMessageTextParams.
type Bot struct {
	api    *tgbot.Bot
	router *Router
}

// New creates the long-polling bot. router must already be wired to the
// same Pending Table the broker's Request Handler uses.
func New(token string, router *Router) (*Bot, error) {
	b := &Bot{router: router}

	api, err := tgbot.New(token, tgbot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("telegram: creating bot: %w", err)
	}
	b.api = api
	return b, nil
}

// Run starts long polling. It blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.api.Start(ctx)
}

func (b *Bot) handleUpdate(ctx context.Context, _ *tgbot.Bot, update *tgmodels.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.router.HandleMessage(ctx, update.Message.Chat.ID, update.Message.Text)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgmodels.CallbackQuery) {
	var chatID int64
	if cb.Message.Message != nil {
		chatID = cb.Message.Message.Chat.ID
	}

	b.router.HandleCallback(ctx, chatID, cb.ID, cb.Data)
}

// Send implements ipc.ChatAdapter.
func (b *Bot) Send(ctx context.Context, chatID int64, body string, buttons []ipc.Button) (int, error) {
	params := &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      body,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if len(buttons) > 0 {
		params.ReplyMarkup = inlineKeyboard(buttons)
	}

	msg, err := b.api.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Edit implements ipc.ChatAdapter.
func (b *Bot) Edit(ctx context.Context, chatID int64, messageID int, body string) error {
	_, err := b.api.EditMessageText(ctx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      body,
		ParseMode: tgmodels.ParseModeHTML,
	})
	return err
}

// Delete implements ipc.ChatAdapter.
func (b *Bot) Delete(ctx context.Context, chatID int64, messageID int) error {
	_, err := b.api.DeleteMessage(ctx, &tgbot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	return err
}

// PromptForText implements ipc.ChatAdapter, sending a ForceReply-style
// prompt so the chat client focuses its composer on the broker's behalf.
func (b *Bot) PromptForText(ctx context.Context, chatID int64, body string) (int, error) {
	msg, err := b.api.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:      chatID,
		Text:        body,
		ReplyMarkup: &tgmodels.ForceReply{ForceReply: true},
	})
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// AckCallback implements ipc.ChatAdapter, dismissing the pressed button's
// spinner and optionally showing the user a toast or alert.
func (b *Bot) AckCallback(ctx context.Context, queryID string, text string, alert bool) error {
	_, err := b.api.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	return err
}

func inlineKeyboard(buttons []ipc.Button) *tgmodels.InlineKeyboardMarkup {
	row := make([]tgmodels.InlineKeyboardButton, len(buttons))
	for i, btn := range buttons {
		row[i] = tgmodels.InlineKeyboardButton{Text: btn.Text, CallbackData: btn.Data}
	}
	return &tgmodels.InlineKeyboardMarkup{InlineKeyboard: [][]tgmodels.InlineKeyboardButton{row}}
}
