package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const telegramAPI = "https://api.telegram.org"

// TelegramService posts order alerts to the admin chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	currency    string
	baseURL     string
	client      *http.Client
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID, currency string, log *zap.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		currency:    currency,
		baseURL:     telegramAPI,
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log,
	}
}

// Enabled reports whether both the bot token and the admin chat are set.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("telegram bot token not configured")
		return nil
	}

	body, err := json.Marshal(telegramMessage{ChatID: chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatPrice renders amount with thousand separators and the currency code.
func FormatPrice(amount decimal.Decimal, currency string) string {
	str := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(str, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteString("." + frac)
	return b.String() + " " + strings.ToUpper(currency)
}

// NotifyNewOrder sends the checkout summary to the admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, userID uuid.UUID, receipt *Receipt) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendMessage(ctx, s.adminChatID, formatOrderMessage(userID, receipt, s.currency))
}

func formatOrderMessage(userID uuid.UUID, receipt *Receipt, currency string) string {
	var items strings.Builder
	for i, line := range receipt.Orders {
		name, unit := line.ProductID.String(), line.Subtotal
		if i < len(receipt.Products) {
			name, unit = receipt.Products[i].Name, receipt.Products[i].Price
		}
		fmt.Fprintf(&items, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1, name, line.Quantity, FormatPrice(unit, currency), FormatPrice(line.Total, currency))
	}

	customer := userID.String()
	payment := ""
	if len(receipt.BilledAddresses) > 0 {
		if b := receipt.BilledAddresses[0]; b.Email != "" {
			customer = strings.TrimSpace(b.FirstName+" "+b.LastName) + " &lt;" + b.Email + "&gt;"
		}
	}
	if len(receipt.Orders) > 0 {
		payment = receipt.Orders[0].PaymentMethod
	}

	message := fmt.Sprintf(`<b>New order</b>
<b>Tracking:</b> %s
<b>Customer:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s
<b>Payment:</b> %s`,
		receipt.TrackingID,
		customer,
		items.String(),
		FormatPrice(receipt.Sums.Total, currency),
		payment,
	)
	return strings.TrimSpace(message)
}
