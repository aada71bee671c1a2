// Package paytm implements the Paytm checkout handshake and webhook verification.
package paytm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	ModeLive     = "live"
	ModeTest     = "test"
	ModeDisabled = "disabled"

	StagingHost    = "https://securegw-stage.paytm.in"
	ProductionHost = "https://securegw.paytm.in"

	// DevelopmentKey signs webhooks in test mode when no merchant key is configured.
	DevelopmentKey = "storefront-dev-k"
	testMID        = "TEST_MID"
)

var ErrDisabled = errors.New("paytm is not configured")

type Config struct {
	Mode        string
	MerchantID  string
	MerchantKey string
	Website     string
	Environment string
	CallbackURL string
	Currency    string
}

// Transaction describes the payment Paytm is asked to collect.
type Transaction struct {
	OrderID    string
	Amount     float64
	CustomerID string
}

// Token is the checkout handshake result returned to the client.
type Token struct {
	TxnToken string `json:"txn_token"`
	MID      string `json:"mid"`
	OrderID  string `json:"order_id"`
	Amount   string `json:"amount"`
	Mock     bool   `json:"mock"`
}

type Provider interface {
	Mode() string
	Initiate(ctx context.Context, txn Transaction) (*Token, error)
	// VerifyWebhook checks the signature of a callback and parses it.
	// A bad or missing signature yields an error wrapping domain.ErrInvalidSignature.
	VerifyWebhook(raw []byte, contentType string) (*Notification, error)
}

// New picks the provider variant. An empty mode means live when credentials are present, otherwise disabled.
func New(cfg Config, client *http.Client) (Provider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		if cfg.MerchantID != "" && cfg.MerchantKey != "" {
			mode = ModeLive
		} else {
			mode = ModeDisabled
		}
	}
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}

	switch mode {
	case ModeLive:
		if cfg.MerchantID == "" || cfg.MerchantKey == "" {
			return nil, fmt.Errorf("paytm live mode requires PAYTM_MERCHANT_ID and PAYTM_MERCHANT_KEY")
		}
		if _, err := newCipher(cfg.MerchantKey); err != nil {
			return nil, err
		}
		return NewLiveClient(cfg, client), nil
	case ModeTest:
		return NewTestProvider(cfg), nil
	case ModeDisabled:
		return disabledProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown paytm mode %q", cfg.Mode)
	}
}

// Host returns the gateway host for the configured environment.
func (c Config) Host() string {
	if strings.EqualFold(c.Environment, "production") {
		return ProductionHost
	}
	return StagingHost
}

type disabledProvider struct{}

func (disabledProvider) Mode() string {
	return ModeDisabled
}

func (disabledProvider) Initiate(context.Context, Transaction) (*Token, error) {
	return nil, ErrDisabled
}

func (disabledProvider) VerifyWebhook([]byte, string) (*Notification, error) {
	return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, ErrDisabled)
}
