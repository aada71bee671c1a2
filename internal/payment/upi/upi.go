// Package upi builds UPI deep links and their QR images.
package upi

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

type Config struct {
	PayeeID   string
	PayeeName string
	Currency  string
}

// Instruction is what the customer needs to pay by UPI.
type Instruction struct {
	Link   string `json:"upi_link"`
	QRCode string `json:"qr_code"`
}

type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) *Generator {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Generator{cfg: cfg}
}

// Enabled reports whether a payee is configured.
func (g *Generator) Enabled() bool {
	return g.cfg.PayeeID != ""
}

// Link returns the upi://pay deep link, or "" when no payee is configured.
func (g *Generator) Link(orderID string, amount float64, note string) string {
	if !g.Enabled() {
		return ""
	}
	q := url.Values{}
	q.Set("pa", g.cfg.PayeeID)
	q.Set("pn", g.cfg.PayeeName)
	q.Set("am", strconv.FormatFloat(amount, 'f', 2, 64))
	q.Set("cu", g.cfg.Currency)
	q.Set("tn", note)
	q.Set("tr", orderID)
	return "upi://pay?" + q.Encode()
}

// Instruction builds the link and a PNG QR code as a data URL. A disabled generator returns empty values.
func (g *Generator) Instruction(orderID string, amount float64) (*Instruction, error) {
	link := g.Link(orderID, amount, fmt.Sprintf("Order %s", orderID))
	if link == "" {
		return &Instruction{}, nil
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode upi qr: %w", err)
	}
	return &Instruction{
		Link:   link,
		QRCode: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}
