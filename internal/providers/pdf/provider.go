package pdf

import (
	"context"
	"time"
)

// ReceiptData is everything printed on an order receipt.
type ReceiptData struct {
	StoreName     string
	OrderID       string
	InvoiceID     string
	BuyerTag      string
	BuyerID       string
	ProductName   string
	Amount        string
	PaymentMethod string
	PaidAmount    string
	TransactionID string
	Status        string
	IssuedAt      time.Time
}

type Provider interface {
	RenderReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}
