package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/ticketbot/internal/clock"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
)

const (
	defaultBaseURL   = "https://api.stripe.com"
	defaultTolerance = 5 * time.Minute

	EventCheckoutCompleted = "checkout.session.completed"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Tolerance     time.Duration
	HTTPClient    *http.Client
	Clock         clock.Clock
}

type Adapter struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	tolerance     time.Duration
	client        *http.Client
	clock         clock.Clock
}

func New(cfg Config) *Adapter {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 12 * time.Second}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}

	return &Adapter{
		secretKey:     strings.TrimSpace(cfg.SecretKey),
		webhookSecret: strings.TrimSpace(cfg.WebhookSecret),
		baseURL:       baseURL,
		tolerance:     tolerance,
		client:        client,
		clock:         clk,
	}
}

func (a *Adapter) Provider() string { return paymentdomain.ProviderStripe }

func (a *Adapter) Method() orderdomain.Method { return orderdomain.MethodCard }

func (a *Adapter) Secured() bool { return a.webhookSecret != "" }

type checkoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession opens a hosted Checkout Session for a single unit of the
// order's product, priced in USD cents.
func (a *Adapter) CreateSession(ctx context.Context, order *orderdomain.Order, callbacks paymentdomain.CallbackConfig) (*paymentdomain.Session, error) {
	if order == nil || order.ID == "" {
		return nil, orderdomain.ErrInvalidOrder
	}

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("success_url", callbacks.SuccessURL)
	values.Set("cancel_url", callbacks.CancelURL)
	values.Set("client_reference_id", order.ID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", "usd")
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(UnitAmount(order.Product.Price), 10))
	values.Set("line_items[0][price_data][product_data][name]", order.Product.Name)
	values.Set("metadata[orderId]", order.ID)
	values.Set("payment_intent_data[metadata][orderId]", order.ID)

	session, err := a.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, "order:"+order.ID)
	if err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, &paymentdomain.GatewayError{Provider: a.Provider(), Message: "checkout session has no url"}
	}

	return &paymentdomain.Session{
		CheckoutURL:       session.URL,
		ProviderReference: session.ID,
	}, nil
}

// UnitAmount converts a dollar price into whole cents.
func UnitAmount(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (a *Adapter) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
) (checkoutSession, error) {
	if a.secretKey == "" {
		return checkoutSession{}, paymentdomain.ErrInvalidConfig
	}
	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bodyReader)
	if err != nil {
		return checkoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+a.secretKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return checkoutSession{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		message := "stripe_request_failed"
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err == nil {
			if m := strings.TrimSpace(stripeErr.Error.Message); m != "" {
				message = m
			}
		}
		return checkoutSession{}, &paymentdomain.GatewayError{
			Provider:   a.Provider(),
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	var session checkoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return checkoutSession{}, &paymentdomain.GatewayError{Provider: a.Provider(), Message: "stripe_response_invalid"}
	}
	if session.ID == "" {
		return checkoutSession{}, &paymentdomain.GatewayError{Provider: a.Provider(), Message: "stripe_response_invalid"}
	}
	return session, nil
}

// Verify checks the Stripe-Signature header. Without a configured webhook
// secret every payload is accepted.
func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	if a.webhookSecret == "" {
		return nil
	}

	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseStripeSignature(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}
	age := a.clock.Now().Sub(time.Unix(ts, 0))
	if age > a.tolerance || age < -a.tolerance {
		return paymentdomain.ErrInvalidSignature
	}

	expected := computeSignature(a.webhookSecret, timestamp, payload)
	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.PaymentEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	eventType := strings.TrimSpace(event.Type)
	if strings.TrimSpace(event.ID) == "" || eventType == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}

	out := &paymentdomain.PaymentEvent{
		Provider:        a.Provider(),
		ProviderEventID: event.ID,
		Type:            eventType,
		Method:          orderdomain.MethodCard,
		RawPayload:      payload,
	}
	if eventType != EventCheckoutCompleted {
		return out, nil
	}

	var session checkoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	out.Paid = true
	out.OrderID = strings.TrimSpace(session.Metadata["orderId"])
	out.TransactionID = transactionID(session)
	out.PaidAmount = "$" + decimal.New(session.AmountTotal, -2).StringFixed(2)
	if out.OrderID == "" {
		return out, paymentdomain.ErrMissingOrderRef
	}
	return out, nil
}

func transactionID(session checkoutSession) string {
	var intent string
	if len(session.PaymentIntent) > 0 && json.Unmarshal(session.PaymentIntent, &intent) == nil && intent != "" {
		return intent
	}
	return session.ID
}

// SignPayload builds a Stripe-Signature header value for payload.
func SignPayload(secret string, payload []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	return fmt.Sprintf("t=%s,v1=%s", timestamp, computeSignature(secret, timestamp, payload))
}

func computeSignature(secret, timestamp string, payload []byte) string {
	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseStripeSignature(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

var _ paymentdomain.Adapter = (*Adapter)(nil)
