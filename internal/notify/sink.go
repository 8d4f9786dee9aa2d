// Package notify delivers catalog events to humans. Delivery is
// fire-and-forget: a broken notification channel must never fail a
// pipeline run, so sink failures are logged and swallowed.
package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bike-curation/internal/domain"
)

// Sink receives catalog events worth a human's attention.
type Sink interface {
	NotifyPriceDrop(entry *domain.CatalogEntry, oldPrice, newPrice, newScore float64)
	NotifyBountyMatch(entry *domain.CatalogEntry, bounty *domain.Bounty)
}

// NoopSink discards everything. It is the default so that the pipeline
// runs without any messaging credentials configured.
type NoopSink struct{}

func (NoopSink) NotifyPriceDrop(*domain.CatalogEntry, float64, float64, float64) {}
func (NoopSink) NotifyBountyMatch(*domain.CatalogEntry, *domain.Bounty)          {}

var _ Sink = NoopSink{}

// TelegramSink pushes notifications to a single Telegram chat.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSink creates a sink from a bot token and target chat.
func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

// NotifyPriceDrop announces a significant source-price drop on an owned
// entry.
func (t *TelegramSink) NotifyPriceDrop(entry *domain.CatalogEntry, oldPrice, newPrice, newScore float64) {
	message := fmt.Sprintf(
		"📉 PRICE DROP\n\n"+
			"%s %s\n"+
			"Price: %.2f → %.2f %s\n"+
			"New score: %.1f (%s)\n\n"+
			"Link: %s",
		entry.Brand, entry.Model,
		oldPrice, newPrice, entry.Currency,
		newScore, entry.Tier,
		entry.SourceURL,
	)
	t.send(message)
}

// NotifyBountyMatch announces that a freshly committed entry satisfies
// an open buyer bounty.
func (t *TelegramSink) NotifyBountyMatch(entry *domain.CatalogEntry, bounty *domain.Bounty) {
	message := fmt.Sprintf(
		"🎯 BOUNTY MATCH\n\n"+
			"%s %s (%s, grade %s)\n"+
			"Price: %.2f %s\n"+
			"Bounty: %s\n\n"+
			"Link: %s",
		entry.Brand, entry.Model, entry.Category, entry.Grade,
		entry.Price, entry.Currency,
		bounty.BountyID,
		entry.SourceURL,
	)
	t.send(message)
}

func (t *TelegramSink) send(message string) {
	msg := tgbotapi.NewMessage(t.chatID, message)
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[notify] telegram send failed: %v", err)
	}
}

var _ Sink = (*TelegramSink)(nil)
