package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"gorm.io/datatypes"
)

const (
	ProviderStripe    = "stripe"
	ProviderCryptomus = "cryptomus"
)

// EventRecord is one inbound provider webhook, kept for audit and dedupe.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	OrderID         string         `json:"order_id" gorm:"type:text;not null;index"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "payment_events" }

// CallbackConfig holds the URLs a provider sends the buyer or its callbacks to.
type CallbackConfig struct {
	SuccessURL  string
	CancelURL   string
	CallbackURL string
}

type Session struct {
	CheckoutURL       string
	ProviderReference string
}

// PaymentEvent is the canonical webhook event parsed by adapters.
type PaymentEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	// Paid is true when Type belongs to the provider's settled set.
	Paid          bool
	OrderID       string
	Method        orderdomain.Method
	TransactionID string
	PaidAmount    string
	RawPayload    []byte
}
