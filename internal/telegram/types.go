package telegram

import (
	"competitor-price-monitor/internal/rules"
	"competitor-price-monitor/internal/types"
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
}

// Bot telegram interaction client
type Bot struct {
	Bot      *tgbotapi.BotAPI
	Config   BotConfig
	commands *Commands
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
	Keyboard  *tgbotapi.InlineKeyboardMarkup
}

// Reply is the answer to a command, a text or a photo with the text as caption
type Reply struct {
	Text     string
	Photo    []byte
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

// Service is the monitoring engine as seen by the commands
type Service interface {
	Registry() *rules.Registry
	Stats(ctx context.Context) types.Stats
	AnalyzeTrend(productName string) types.MarketTrend
	History(productName string) []types.PriceHistory
}

// ChartRenderer draws the price history of a product
type ChartRenderer interface {
	RenderHistory(productName string, histories []types.PriceHistory) ([]byte, error)
}

// WatchRequest the parsed arguments of /watch
type WatchRequest struct {
	Product   string
	Frequency types.Frequency
	Threshold float64
	Platforms []string
}
