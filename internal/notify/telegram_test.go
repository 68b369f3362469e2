package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bunnybingsu/api/internal/model"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type mockSender struct {
	sendFn func(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return m.sendFn(c)
}

func sampleOrder() model.Order {
	return model.Order{
		ID:    "0b9c1f7e-5d9a-4c1e-9a55-1234567890ab",
		Table: "5",
		Items: []model.LineItem{{
			Name:     "Cheese Fries",
			Price:    decimal.NewFromInt(59),
			Quantity: 2,
			Sauces:   []string{"ketchup"},
			Cheeses:  []model.PricedOption{{Name: "cheddar", Price: decimal.NewFromInt(15)}},
		}},
	}
}

func TestFormatOrder(t *testing.T) {
	text := FormatOrder(sampleOrder())

	for _, want := range []string{
		"New order #7890ab",
		"Table: 5",
		"2 x Cheese Fries  148.00",
		"Sauces: ketchup",
		"Cheeses: cheddar",
		"Total: 148.00",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Extras") {
		t.Errorf("empty families should be omitted:\n%s", text)
	}
}

func TestFormatOrder_NoTable(t *testing.T) {
	o := sampleOrder()
	o.Table = ""
	if !strings.Contains(FormatOrder(o), "Table: No table") {
		t.Error("expected No table label")
	}
}

func TestOrderPlaced(t *testing.T) {
	var sent tgbotapi.MessageConfig
	sender := &mockSender{sendFn: func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		sent = c.(tgbotapi.MessageConfig)
		return tgbotapi.Message{}, nil
	}}
	n := NewTelegramWithSender(sender, 42, zap.NewNop())

	if err := n.OrderPlaced(context.Background(), sampleOrder()); err != nil {
		t.Fatalf("order placed: %v", err)
	}
	if sent.ChatID != 42 {
		t.Errorf("chat id: got %d, want 42", sent.ChatID)
	}
}

func TestOrderPlaced_SendError(t *testing.T) {
	sender := &mockSender{sendFn: func(tgbotapi.Chattable) (tgbotapi.Message, error) {
		return tgbotapi.Message{}, errors.New("bad gateway")
	}}
	n := NewTelegramWithSender(sender, 42, zap.NewNop())

	if err := n.OrderPlaced(context.Background(), sampleOrder()); err == nil {
		t.Fatal("expected error")
	}
}
