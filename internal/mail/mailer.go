// Package mail delivers order confirmations. Delivery failure is reported to
// the caller and reflected only in the order's notified flag; it never fails
// the order itself.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

type OrderLine struct {
	Title     string
	Quantity  uint
	UnitPrice float64
}

type OrderSummary struct {
	OrderID uint
	Lines   []OrderLine
	Total   float64
}

type Notifier interface {
	SendOrderConfirmation(ctx context.Context, to string, summary OrderSummary) error
}

// SMTPNotifier sends plain-text confirmations over a single SMTP hop.
type SMTPNotifier struct {
	Addr string
	From string
}

func (n *SMTPNotifier) SendOrderConfirmation(ctx context.Context, to string, summary OrderSummary) error {
	if n.Addr == "" {
		return fmt.Errorf("mail: SMTP_ADDR not configured")
	}
	msg := buildMessage(n.From, to, summary)
	if err := smtp.SendMail(n.Addr, nil, n.From, []string{to}, msg); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

func buildMessage(from, to string, summary OrderSummary) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Your Festiva order #%d\r\n", summary.OrderID)
	b.WriteString("\r\n")
	b.WriteString("Thank you for your order!\r\n\r\n")
	for _, line := range summary.Lines {
		fmt.Fprintf(&b, "%d x %s @ %.2f = %.2f\r\n",
			line.Quantity, line.Title, line.UnitPrice, float64(line.Quantity)*line.UnitPrice)
	}
	fmt.Fprintf(&b, "\r\nTotal: %.2f\r\n", summary.Total)
	return []byte(b.String())
}
