package cryptomus

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
)

const (
	defaultBaseURL  = "https://api.cryptomus.com"
	SignatureHeader = "X-Signature"
)

// PaidStatuses are the invoice statuses that settle an order.
var PaidStatuses = map[string]bool{
	"paid":         true,
	"paid_over":    true,
	"paid_partial": true,
}

type Config struct {
	MerchantID    string
	APIKey        string
	WebhookSecret string
	BaseURL       string
	HTTPClient    *http.Client
}

type Adapter struct {
	merchantID    string
	apiKey        string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

func New(cfg Config) *Adapter {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	return &Adapter{
		merchantID:    strings.TrimSpace(cfg.MerchantID),
		apiKey:        strings.TrimSpace(cfg.APIKey),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		baseURL:       baseURL,
		client:        client,
	}
}

func (a *Adapter) Provider() string { return paymentdomain.ProviderCryptomus }

func (a *Adapter) Method() orderdomain.Method { return orderdomain.MethodCrypto }

func (a *Adapter) Secured() bool { return a.webhookSecret != "" }

type invoiceRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	URLReturn   string `json:"url_return,omitempty"`
	URLSuccess  string `json:"url_success,omitempty"`
	URLCallback string `json:"url_callback,omitempty"`
}

type invoiceResponse struct {
	State   int    `json:"state"`
	Message string `json:"message"`
	Result  struct {
		UUID    string `json:"uuid"`
		OrderID string `json:"order_id"`
		URL     string `json:"url"`
	} `json:"result"`
}

// CreateSession creates a hosted crypto invoice for the order's USD price.
func (a *Adapter) CreateSession(ctx context.Context, order *orderdomain.Order, callbacks paymentdomain.CallbackConfig) (*paymentdomain.Session, error) {
	if order == nil || order.ID == "" {
		return nil, orderdomain.ErrInvalidOrder
	}
	if a.merchantID == "" || a.apiKey == "" {
		return nil, paymentdomain.ErrInvalidConfig
	}

	body, err := json.Marshal(invoiceRequest{
		Amount:      order.Product.Price.StringFixed(2),
		Currency:    "USD",
		OrderID:     order.ID,
		URLReturn:   callbacks.CancelURL,
		URLSuccess:  callbacks.SuccessURL,
		URLCallback: callbacks.CallbackURL,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/payment", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("merchant", a.merchantID)
	req.Header.Set("sign", RequestSign(body, a.apiKey))

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &paymentdomain.GatewayError{
			Provider:   a.Provider(),
			StatusCode: resp.StatusCode,
			Message:    "cryptomus_response_invalid",
		}
	}
	if strings.TrimSpace(out.Result.URL) == "" {
		message := strings.TrimSpace(out.Message)
		if message == "" {
			message = "payment url missing from response"
		}
		return nil, &paymentdomain.GatewayError{
			Provider:   a.Provider(),
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	return &paymentdomain.Session{
		CheckoutURL:       out.Result.URL,
		ProviderReference: out.Result.UUID,
	}, nil
}

// RequestSign is md5(base64(body) + apiKey), hex encoded.
func RequestSign(body []byte, apiKey string) string {
	sum := md5.Sum([]byte(base64.StdEncoding.EncodeToString(body) + apiKey))
	return hex.EncodeToString(sum[:])
}

// Verify requires an X-Signature HMAC-SHA256 of the raw body when a webhook
// secret is configured.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return nil
	}
	got := strings.ToLower(strings.TrimSpace(headers.Get(SignatureHeader)))
	if got == "" {
		return paymentdomain.ErrInvalidSignature
	}
	if !hmac.Equal([]byte(got), []byte(SignPayload(a.webhookSecret, payload))) {
		return paymentdomain.ErrInvalidSignature
	}
	return nil
}

// SignPayload returns hex(HMAC-SHA256(secret, payload)).
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

type callback struct {
	Type          string `json:"type"`
	UUID          string `json:"uuid"`
	PaymentUUID   string `json:"payment_uuid"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	PaymentAmount string `json:"payment_amount"`
	Status        string `json:"status"`
	TxID          string `json:"txid"`
	IsFinal       bool   `json:"is_final"`
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var cb callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	status := strings.ToLower(strings.TrimSpace(cb.Status))
	if status == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}

	ref := firstNonEmpty(cb.UUID, cb.TxID, cb.PaymentUUID, cb.OrderID)
	if ref == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}

	event := &paymentdomain.PaymentEvent{
		Provider:        a.Provider(),
		ProviderEventID: ref + ":" + status,
		Type:            status,
		Paid:            PaidStatuses[status],
		OrderID:         strings.TrimSpace(cb.OrderID),
		Method:          orderdomain.MethodCrypto,
		TransactionID:   firstNonEmpty(cb.TxID, cb.UUID, cb.PaymentUUID),
		RawPayload:      payload,
	}
	if amount := strings.TrimSpace(cb.Amount); amount != "" {
		event.PaidAmount = "$" + amount
	}
	if event.Paid && event.OrderID == "" {
		return event, paymentdomain.ErrMissingOrderRef
	}
	return event, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ paymentdomain.Adapter = (*Adapter)(nil)
