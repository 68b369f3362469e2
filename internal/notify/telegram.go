// Package notify announces new orders to staff through a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bunnybingsu/api/internal/model"
	"github.com/bunnybingsu/api/internal/pricing"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender sends one Telegram message. Satisfied by *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a summary of every placed order to one chat.
type Telegram struct {
	bot    Sender
	chatID int64
	log    *zap.Logger
}

// NewTelegram connects to the bot API with token.
func NewTelegram(token string, chatID int64, log *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log = log.Named("notify")
	log.Info("telegram notifications enabled", zap.String("bot", api.Self.UserName), zap.Int64("chat_id", chatID))
	return NewTelegramWithSender(api, chatID, log), nil
}

// NewTelegramWithSender builds a Telegram notifier on an existing sender.
func NewTelegramWithSender(bot Sender, chatID int64, log *zap.Logger) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, log: log}
}

func (t *Telegram) OrderPlaced(ctx context.Context, o model.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatOrder(o))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send order %s: %w", o.ID, err)
	}
	t.log.Debug("order announced", zap.String("order_id", o.ID))
	return nil
}

// FormatOrder renders the plain-text staff message for o.
func FormatOrder(o model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%s\n", shortID(o.ID))
	fmt.Fprintf(&b, "Table: %s\n", o.TableLabel())
	for _, li := range o.Items {
		fmt.Fprintf(&b, "\n%d x %s  %s", li.Quantity, li.Name, pricing.Display(pricing.LineTotal(li)))
		writeList(&b, "Sauces", li.Sauces)
		writeList(&b, "Flavors", li.Flavors)
		writeList(&b, "Toppings", li.Toppings)
		writeList(&b, "Cheeses", optionNames(li.Cheeses))
		writeList(&b, "Extras", optionNames(li.Extras))
		writeList(&b, "Notes", li.Descriptions)
	}
	fmt.Fprintf(&b, "\n\nTotal: %s", pricing.Display(pricing.Total(o)))
	return b.String()
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(b, "\n  %s: %s", label, strings.Join(values, ", "))
}

func optionNames(opts []model.PricedOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Name
	}
	return out
}

// shortID is the last six characters of id, as printed on receipts.
func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
