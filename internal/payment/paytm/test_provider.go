package paytm

import (
	"context"
	"strconv"
)

// TestProvider never contacts Paytm. It is only used when PAYTM_MODE=test.
type TestProvider struct {
	mid string
	key string
}

func NewTestProvider(cfg Config) *TestProvider {
	mid := cfg.MerchantID
	if mid == "" {
		mid = testMID
	}
	key := cfg.MerchantKey
	if key == "" {
		key = DevelopmentKey
	}
	return &TestProvider{mid: mid, key: key}
}

func (p *TestProvider) Mode() string {
	return ModeTest
}

func (p *TestProvider) Initiate(_ context.Context, txn Transaction) (*Token, error) {
	return &Token{
		TxnToken: "MOCK_TXN_TOKEN_" + txn.OrderID,
		MID:      p.mid,
		OrderID:  txn.OrderID,
		Amount:   strconv.FormatFloat(txn.Amount, 'f', 2, 64),
		Mock:     true,
	}, nil
}

func (p *TestProvider) VerifyWebhook(raw []byte, contentType string) (*Notification, error) {
	return parseWebhook(raw, contentType, p.key)
}

// Key is the signing key webhooks must be signed with.
func (p *TestProvider) Key() string {
	return p.key
}
