package ticket

import (
	"github.com/shopspring/decimal"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/ticket"
)

// Payment type keys into the pricing table.
const (
	PaymentTypeCreation = "TICKET_CREATION"
	PaymentTypeUpgrade  = "TICKET_UPGRADE"
	PaymentTypePriority = "PRIORITY_ACCESS"
)

// PricingTable maps a payment type to its fee. Injected from configuration
// so deployments can reprice without a rebuild.
type PricingTable map[string]decimal.Decimal

// DefaultPricing is the fallback when no pricing section is configured.
func DefaultPricing() PricingTable {
	return PricingTable{
		PaymentTypeCreation: decimal.NewFromFloat(10.0),
		PaymentTypeUpgrade:  decimal.NewFromFloat(25.0),
		PaymentTypePriority: decimal.NewFromFloat(50.0),
	}
}

// FeeFor returns the fee for a payment type. Only known types with a
// positive fee make a ticket payable.
func (t PricingTable) FeeFor(paymentType string) (decimal.Decimal, bool) {
	fee, ok := t[paymentType]
	if !ok || !fee.IsPositive() {
		return decimal.Decimal{}, false
	}
	return fee, true
}

// statusEffects is the dispatch table applied to a ticket when its payment
// completes. Types without an entry leave the ticket status untouched.
var statusEffects = map[string]string{
	PaymentTypeUpgrade:  ticket.StatusPriority,
	PaymentTypePriority: ticket.StatusVIP,
}

type RepositoryAPI interface {
	Create(t *ticket.Ticket) error
	GetByID(id int64) (*ticket.Ticket, error)
	GetByPaymentAttemptID(attemptID int64) (*ticket.Ticket, error)
	Save(t *ticket.Ticket) error
	GetPendingPaymentTickets(limit int) ([]*ticket.Ticket, error)
}
