package paytm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

type LiveClient struct {
	cfg    Config
	host   string
	client *http.Client
}

func NewLiveClient(cfg Config, client *http.Client) *LiveClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &LiveClient{cfg: cfg, host: cfg.Host(), client: client}
}

func (c *LiveClient) Mode() string {
	return ModeLive
}

type initiateBody struct {
	RequestType string    `json:"requestType"`
	MID         string    `json:"mid"`
	WebsiteName string    `json:"websiteName"`
	OrderID     string    `json:"orderId"`
	CallbackURL string    `json:"callbackUrl"`
	TxnAmount   txnAmount `json:"txnAmount"`
	UserInfo    userInfo  `json:"userInfo"`
}

type txnAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type userInfo struct {
	CustID string `json:"custId"`
}

type initiateRequest struct {
	Body json.RawMessage `json:"body"`
	Head struct {
		Signature string `json:"signature"`
	} `json:"head"`
}

type initiateResponse struct {
	Body struct {
		ResultInfo resultInfo `json:"resultInfo"`
		TxnToken   string     `json:"txnToken"`
	} `json:"body"`
}

type resultInfo struct {
	ResultStatus string `json:"resultStatus"`
	ResultCode   string `json:"resultCode"`
	ResultMsg    string `json:"resultMsg"`
}

// Initiate posts a signed initiateTransaction request and returns the transaction token.
func (c *LiveClient) Initiate(ctx context.Context, txn Transaction) (*Token, error) {
	amount := strconv.FormatFloat(txn.Amount, 'f', 2, 64)
	custID := txn.CustomerID
	if custID == "" {
		custID = "CUST_" + txn.OrderID
	}

	body, err := json.Marshal(initiateBody{
		RequestType: "Payment",
		MID:         c.cfg.MerchantID,
		WebsiteName: c.cfg.Website,
		OrderID:     txn.OrderID,
		CallbackURL: c.cfg.CallbackURL,
		TxnAmount:   txnAmount{Value: amount, Currency: c.cfg.Currency},
		UserInfo:    userInfo{CustID: custID},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal paytm body: %w", err)
	}

	signature, err := GenerateSignature(string(body), c.cfg.MerchantKey)
	if err != nil {
		return nil, fmt.Errorf("sign paytm request: %w", err)
	}

	var req initiateRequest
	req.Body = body
	req.Head.Signature = signature
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal paytm request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/theia/api/v1/initiateTransaction?mid=%s&orderId=%s",
		c.host, url.QueryEscape(c.cfg.MerchantID), url.QueryEscape(txn.OrderID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build paytm request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("paytm initiate request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read paytm response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("paytm initiate returned HTTP %d", resp.StatusCode)
	}

	var parsed initiateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode paytm response: %w", err)
	}
	if parsed.Body.ResultInfo.ResultStatus != "S" || parsed.Body.TxnToken == "" {
		msg := parsed.Body.ResultInfo.ResultMsg
		if msg == "" {
			msg = "transaction initiation failed"
		}
		return nil, fmt.Errorf("paytm: %s", msg)
	}

	return &Token{
		TxnToken: parsed.Body.TxnToken,
		MID:      c.cfg.MerchantID,
		OrderID:  txn.OrderID,
		Amount:   amount,
		Mock:     false,
	}, nil
}

func (c *LiveClient) VerifyWebhook(raw []byte, contentType string) (*Notification, error) {
	return parseWebhook(raw, contentType, c.cfg.MerchantKey)
}
