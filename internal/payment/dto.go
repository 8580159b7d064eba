package payment

import (
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/common/validation"
)

// CreatePaymentDTO carries everything needed to open a payment attempt.
// Amount is deliberately untyped: callers send raw numbers or decimal
// strings and NormalizeAmount canonicalizes once at this boundary.
type CreatePaymentDTO struct {
	Amount      interface{} `json:"amount"`
	Currency    string      `json:"currency"`
	Description string      `json:"description"`
	UserEmail   string      `json:"user_email"`
	ClientIP    string      `json:"-"`
}

func (d *CreatePaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("currency", d.Currency).Required()
	validator.Field("user_email", d.UserEmail).Required()
	validator.Field("amount", d.Amount).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	if _, err := NormalizeAmount(d.Amount); err != nil {
		return err
	}
	return nil
}

// StatusSummary is the payment state reported for a ticket.
type StatusSummary struct {
	Required      bool    `json:"required"`
	Amount        *string `json:"amount,omitempty"`
	Currency      *string `json:"currency,omitempty"`
	PaymentType   *string `json:"payment_type,omitempty"`
	Status        *string `json:"status,omitempty"`
	OrderID       *string `json:"order_id,omitempty"`
	TransactionID *string `json:"transaction_id,omitempty"`
}
