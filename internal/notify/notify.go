// Package notify formats and sends alert emails.
package notify

import (
	"fmt"
	"strings"

	"price-tracker/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const currencyPrefix = "R"

// Message is a single outgoing email.
type Message struct {
	Subject string
	Body    string
}

// Mailer delivers one message. Implementations own sender and recipient addresses.
type Mailer interface {
	Send(msg Message) error
}

// Notifier builds alert messages. Delivery is fire-and-forget: failures are
// logged and reported as false, never returned.
type Notifier struct {
	mailer Mailer
	log    *zap.Logger
}

// New returns a Notifier. A nil mailer disables delivery.
func New(mailer Mailer, log *zap.Logger) *Notifier {
	return &Notifier{mailer: mailer, log: log}
}

// PriceDrop alerts that p is now selling for current, below its starting price.
func (n *Notifier) PriceDrop(p store.Product, current float64) bool {
	return n.send(p, Message{
		Subject: "Price Drop Alert!",
		Body:    priceBody("The price of your product has dropped!", p, current),
	})
}

// LowStock alerts that only remaining units of p are left.
func (n *Notifier) LowStock(p store.Product, current float64, remaining int) bool {
	return n.send(p, Message{
		Subject: fmt.Sprintf("Only %d amount left!", remaining),
		Body: priceBody(
			fmt.Sprintf("Only %d of %s left in stock!", remaining, p.Name()),
			p, current),
	})
}

// Promoted alerts that p appears on the promotions page under link.
func (n *Notifier) Promoted(p store.Product, link string) bool {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is listed on the promotions page.\n\n", p.Name())
	fmt.Fprintf(&b, "Promotion link: %s\n", link)
	fmt.Fprintf(&b, "Product URL: %s\n", p.URL)
	if p.StartingPrice > 0 {
		fmt.Fprintf(&b, "Last recorded price: %s\n", money(decimal.NewFromFloat(p.StartingPrice)))
	}

	return n.send(p, Message{
		Subject: "Coupon Alert: " + p.Name(),
		Body:    b.String(),
	})
}

func (n *Notifier) send(p store.Product, msg Message) bool {
	if n.mailer == nil {
		n.log.Warn("mail disabled, alert not sent",
			zap.String("product", p.Name()),
			zap.String("subject", msg.Subject))
		return false
	}

	if err := n.mailer.Send(msg); err != nil {
		n.log.Error("sending notification failed",
			zap.String("product", p.Name()),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return false
	}

	n.log.Info("notification sent",
		zap.String("product", p.Name()),
		zap.String("subject", msg.Subject))
	return true
}

func priceBody(headline string, p store.Product, current float64) string {
	start := decimal.NewFromFloat(p.StartingPrice)
	now := decimal.NewFromFloat(current)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", headline)
	fmt.Fprintf(&b, "Product: %s\n", p.Name())
	fmt.Fprintf(&b, "Starting Price: %s\n", money(start))
	if current > 0 {
		fmt.Fprintf(&b, "Current Price: %s\n", money(now))
	} else {
		b.WriteString("Current Price: unavailable\n")
	}
	fmt.Fprintf(&b, "Product URL: %s\n", p.URL)
	if saved := start.Sub(now); current > 0 && saved.IsPositive() {
		fmt.Fprintf(&b, "Saved: %s\n", money(saved))
	}
	return b.String()
}

func money(d decimal.Decimal) string {
	return currencyPrefix + d.StringFixed(2)
}
