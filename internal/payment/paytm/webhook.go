package paytm

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/go_storefront/internal/domain"
)

// Result statuses reported by Paytm.
const (
	StatusSuccess = "TXN_SUCCESS"
	StatusFailure = "TXN_FAILURE"
	StatusPending = "PENDING"
)

// Notification is a verified webhook or callback.
type Notification struct {
	OrderID  string
	TxnID    string
	Amount   float64
	Status   string
	Message  string
	Response json.RawMessage
}

type webhookEnvelope struct {
	Head struct {
		Signature string `json:"signature"`
	} `json:"head"`
	Body json.RawMessage `json:"body"`
}

type webhookBody struct {
	OrderID    string          `json:"orderId"`
	TxnID      string          `json:"txnId"`
	TxnAmount  json.RawMessage `json:"txnAmount"`
	ResultInfo resultInfo      `json:"resultInfo"`
}

// parseWebhook accepts either the JSON {head,body} envelope, signed over the raw body,
// or a form callback carrying CHECKSUMHASH.
func parseWebhook(raw []byte, contentType, key string) (*Notification, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" {
		return parseForm(raw, key)
	}
	return parseJSON(raw, key)
}

func parseJSON(raw []byte, key string) (*Notification, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook: %v", domain.ErrValidation, err)
	}
	if env.Head.Signature == "" || len(env.Body) == 0 {
		return nil, fmt.Errorf("%w: missing signature", domain.ErrInvalidSignature)
	}
	if !VerifySignature(string(env.Body), key, env.Head.Signature) {
		return nil, domain.ErrInvalidSignature
	}

	var body webhookBody
	if err := json.Unmarshal(env.Body, &body); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body: %v", domain.ErrValidation, err)
	}
	if body.OrderID == "" {
		return nil, domain.NewValidationError("orderId", "is required")
	}

	return &Notification{
		OrderID:  body.OrderID,
		TxnID:    body.TxnID,
		Amount:   parseAmount(body.TxnAmount),
		Status:   body.ResultInfo.ResultStatus,
		Message:  body.ResultInfo.ResultMsg,
		Response: append(json.RawMessage(nil), raw...),
	}, nil
}

func parseForm(raw []byte, key string) (*Notification, error) {
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed callback: %v", domain.ErrValidation, err)
	}

	params := make(map[string]string, len(values))
	for k := range values {
		params[k] = values.Get(k)
	}
	signature := params[checksumField]
	if signature == "" {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidSignature, checksumField)
	}
	if !VerifySignatureByParams(params, key, signature) {
		return nil, domain.ErrInvalidSignature
	}
	if params["ORDERID"] == "" {
		return nil, domain.NewValidationError("ORDERID", "is required")
	}

	delete(params, checksumField)
	response, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode callback: %w", err)
	}
	amount, _ := strconv.ParseFloat(params["TXNAMOUNT"], 64)

	return &Notification{
		OrderID:  params["ORDERID"],
		TxnID:    params["TXNID"],
		Amount:   amount,
		Status:   params["STATUS"],
		Message:  params["RESPMSG"],
		Response: response,
	}, nil
}

// parseAmount reads txnAmount whether Paytm sent it as a string or a number.
func parseAmount(raw json.RawMessage) float64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
