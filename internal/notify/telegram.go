// Package notify tells kitchen staff about order status changes.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Skotchmaster/resto_admin/pkg/domain"
)

type Notifier interface {
	OrderStatusChanged(ctx context.Context, o domain.Order, change domain.StatusChange) error
}

type Nop struct{}

func (Nop) OrderStatusChanged(context.Context, domain.Order, domain.StatusChange) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: api, chatID: chatID}, nil
}

func (t *Telegram) OrderStatusChanged(ctx context.Context, o domain.Order, change domain.StatusChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, StatusMessage(o, change))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

var statusIcons = map[domain.OrderStatus]string{
	domain.StatusPending:    "🕒",
	domain.StatusProcessing: "👨‍🍳",
	domain.StatusReady:      "✅",
	domain.StatusCompleted:  "📦",
	domain.StatusCancelled:  "❌",
}

func StatusMessage(o domain.Order, change domain.StatusChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>Order %s</b>: %s → %s\n", statusIcons[change.To], shortID(o.ID), change.From, change.To)
	for _, li := range o.Items {
		fmt.Fprintf(&b, "• %d× %s\n", li.Quantity, escape(li.Name))
		if li.Notes != "" {
			fmt.Fprintf(&b, "  <i>%s</i>\n", escape(li.Notes))
		}
	}
	fmt.Fprintf(&b, "Total: %s", FormatIDR(o.TotalPrice))
	if o.DeliveryAddress != "" {
		fmt.Fprintf(&b, "\nAddress: %s", escape(o.DeliveryAddress))
	}
	return b.String()
}

// FormatIDR renders an amount in rupiah with dot thousands separators.
func FormatIDR(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return htmlEscaper.Replace(s) }
