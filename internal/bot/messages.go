package bot

import (
	"errors"
	"fmt"

	"github.com/smallbiznis/ticketbot/internal/authorization"
	"github.com/smallbiznis/ticketbot/internal/checkout"
	invoicedomain "github.com/smallbiznis/ticketbot/internal/invoice/domain"
	orderdomain "github.com/smallbiznis/ticketbot/internal/order/domain"
	paymentdomain "github.com/smallbiznis/ticketbot/internal/payment/domain"
	ticketdomain "github.com/smallbiznis/ticketbot/internal/ticket/domain"
)

const genericFailure = "Something went wrong. Please try again or contact staff."

// userMessage maps a handler error to the short reply shown to the member.
func userMessage(err error) string {
	var existing *ticketdomain.ExistingTicketError
	var gatewayErr *paymentdomain.GatewayError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &existing):
		return fmt.Sprintf("You already have an open ticket: <#%s>", existing.ChannelID)
	case errors.Is(err, ticketdomain.ErrTicketInProgress):
		return "Please wait, your ticket is being created."
	case errors.Is(err, ticketdomain.ErrForbidden),
		errors.Is(err, invoicedomain.ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, checkout.ErrProductNotFound):
		return "That product is no longer available."
	case errors.Is(err, checkout.ErrOrderPending):
		return "This ticket already has a pending order."
	case errors.Is(err, checkout.ErrAlreadyPaid):
		return "This order is already paid."
	case errors.Is(err, checkout.ErrWrongChannel):
		return "That order belongs to another ticket."
	case errors.Is(err, orderdomain.ErrOrderNotFound):
		return "Order not found. Choose a product first."
	case errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, paymentdomain.ErrInvalidConfig):
		return "That payment method is not available right now."
	case errors.As(err, &gatewayErr):
		return fmt.Sprintf("The payment provider rejected the request: %s", gatewayErr.Message)
	default:
		return genericFailure
	}
}
