package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

type Method string

const (
	MethodCard   Method = "card"
	MethodCrypto Method = "crypto"
)

// ProductSnapshot is the product as it was when the buyer selected it.
type ProductSnapshot struct {
	ID    string          `gorm:"column:id" json:"id"`
	Name  string          `gorm:"column:name" json:"name"`
	Price decimal.Decimal `gorm:"column:price;type:varchar(32)" json:"price"`
}

type Payment struct {
	Method        Method `gorm:"column:method" json:"method,omitempty"`
	Provider      string `gorm:"column:provider" json:"provider,omitempty"`
	URL           string `gorm:"column:url" json:"url,omitempty"`
	TransactionID string `gorm:"column:transaction_id" json:"transaction_id,omitempty"`
	PaidAmount    string `gorm:"column:paid_amount" json:"paid_amount,omitempty"`
}

type Order struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GuildID   string          `gorm:"column:guild_id" json:"guild_id"`
	ChannelID string          `gorm:"column:channel_id;not null;index" json:"channel_id"`
	UserID    string          `gorm:"column:user_id;not null;index" json:"user_id"`
	UserTag   string          `gorm:"column:user_tag" json:"user_tag"`
	Status    Status          `gorm:"column:status;not null" json:"status"`
	Product   ProductSnapshot `gorm:"embedded;embeddedPrefix:product_" json:"product"`
	Payment   Payment         `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
}

func (Order) TableName() string { return "orders" }

func (o Order) IsPaid() bool {
	return o.Status == StatusPaid
}

// InvoiceID is the short reference printed on receipts.
func (o Order) InvoiceID() string {
	if len(o.ID) <= 8 {
		return o.ID
	}
	return o.ID[:8]
}

// NominalAmount renders the snapshot price, e.g. "$9.99".
func (o Order) NominalAmount() string {
	return "$" + o.Product.Price.StringFixed(2)
}

// DisplayAmount prefers the amount reported by the provider.
func (o Order) DisplayAmount() string {
	if o.Payment.PaidAmount != "" {
		return o.Payment.PaidAmount
	}
	return o.NominalAmount()
}

// PaymentUpdate carries the fields a provider reports on settlement.
type PaymentUpdate struct {
	Method        Method
	Provider      string
	TransactionID string
	PaidAmount    string
}

type MarkPaidResult struct {
	Order *Order
	// Transitioned is true only for the call that moved the order from pending to paid.
	Transitioned bool
}
