package service

import (
	"fmt"
	"strings"
	"time"

	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	"github.com/smallbiznis/ticketbot/internal/providers/pdf"
)

func receiptData(storeName string, order *orderdomain.Order, issuedAt time.Time) pdf.ReceiptData {
	return pdf.ReceiptData{
		StoreName:     storeName,
		OrderID:       order.ID,
		InvoiceID:     order.InvoiceID(),
		BuyerTag:      order.UserTag,
		BuyerID:       order.UserID,
		ProductName:   order.Product.Name,
		Amount:        order.NominalAmount(),
		PaymentMethod: paymentLabel(order.Payment),
		PaidAmount:    order.DisplayAmount(),
		TransactionID: order.Payment.TransactionID,
		Status:        string(order.Status),
		IssuedAt:      issuedAt.UTC(),
	}
}

func paymentLabel(p orderdomain.Payment) string {
	method := string(p.Method)
	if method == "" {
		return "n/a"
	}
	method = strings.ToUpper(method[:1]) + method[1:]
	if p.Provider == "" {
		return method
	}
	return fmt.Sprintf("%s (%s)", method, p.Provider)
}

func receiptFileName(order *orderdomain.Order) string {
	return order.InvoiceID() + ".pdf"
}

func auditSummary(order *orderdomain.Order, closedBy string, state string) string {
	return fmt.Sprintf("Ticket closed (%s): order `%s` %s for <@%s>, %s, status %s, closed by <@%s>",
		state, order.InvoiceID(), order.Product.Name, order.UserID, order.DisplayAmount(), order.Status, closedBy)
}
