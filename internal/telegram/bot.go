package telegram

import (
	"competitor-price-monitor/internal/types"
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, commands *Commands) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:      bot,
		Config:   c,
		commands: commands,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	if m.Keyboard != nil {
		msg.ReplyMarkup = *m.Keyboard
	}
	if _, err := b.Bot.Send(msg); err != nil {
		return errors.Wrapf(err, "could not send message to %d", m.ChatID)
	}
	return nil
}

// SendPhoto sends a png with a MarkdownV2 caption
func (b *Bot) SendPhoto(chatID int64, replyTo int, data []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: data,
	})
	photo.Caption = caption
	photo.ParseMode = "MarkdownV2"
	photo.ReplyToMessageID = replyTo
	if _, err := b.Bot.Send(photo); err != nil {
		return errors.Wrap(err, "error sending chart")
	}
	return nil
}

// HandleUpdate answers a command message
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	reply := b.commands.Handle(ctx, u.Message.Command(), u.Message.CommandArguments())

	if reply.Photo != nil {
		return b.SendPhoto(u.Message.Chat.ID, u.Message.MessageID, reply.Photo, reply.Text)
	}
	return b.SendMessage(Message{
		ChatID:    u.Message.Chat.ID,
		MessageID: u.Message.MessageID,
		Text:      reply.Text,
		Keyboard:  reply.Keyboard,
	})
}

// HandleCallbackQuery runs the inline keyboard actions of /rules and removes the keyboard
func (b *Bot) HandleCallbackQuery(callbackQuery *tgbotapi.CallbackQuery) {
	answer := b.commands.HandleCallback(callbackQuery.Data)

	if callbackQuery.Message != nil {
		edit := tgbotapi.NewEditMessageReplyMarkup(
			callbackQuery.Message.Chat.ID,
			callbackQuery.Message.MessageID,
			tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
		)
		if _, err := b.Bot.Request(edit); err != nil {
			log.Error("Failed to remove rule buttons: ", err)
		}
	}

	if _, err := b.Bot.Request(tgbotapi.NewCallback(callbackQuery.ID, answer)); err != nil {
		log.Error("Failed to answer callback: ", err)
	}
}

// MessageSender sends a MarkdownV2 message
type MessageSender interface {
	SendMessage(m Message) error
}

// AlertDispatcher posts alerts to a fixed chat
type AlertDispatcher struct {
	sender MessageSender
	chatID int64
}

func NewAlertDispatcher(sender MessageSender, chatID int64) *AlertDispatcher {
	return &AlertDispatcher{sender: sender, chatID: chatID}
}

func (d *AlertDispatcher) Dispatch(_ context.Context, a types.Alert) error {
	return d.sender.SendMessage(Message{
		ChatID: d.chatID,
		Text:   FormatAlert(a),
	})
}
