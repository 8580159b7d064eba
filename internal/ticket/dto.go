package ticket

import (
	"time"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/common/validation"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/ticket"
	"github.com/mouhcinecherqui/devtech-sub000/internal/payment"
)

type CreateTicketDTO struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Type        string `json:"type"`
	UserEmail   string `json:"-"`
}

func (d *CreateTicketDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("subject", d.Subject).Required().MaxLength(200)
	validator.Field("description", d.Description).MaxLength(5000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type ConfigurePaymentDTO struct {
	PaymentType string `json:"payment_type"`
}

func (d *ConfigurePaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("payment_type", d.PaymentType).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type View struct {
	ID              int64   `json:"id"`
	Subject         string  `json:"subject"`
	Description     string  `json:"description,omitempty"`
	Type            string  `json:"type,omitempty"`
	Status          string  `json:"status"`
	UserEmail       string  `json:"user_email"`
	PaymentRequired bool    `json:"payment_required"`
	PaymentAmount   *string `json:"payment_amount,omitempty"`
	PaymentCurrency *string `json:"payment_currency,omitempty"`
	PaymentType     *string `json:"payment_type,omitempty"`
	PaymentStatus   *string `json:"payment_status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToView(t *ticket.Ticket) *View {
	if t == nil {
		return nil
	}
	view := &View{
		ID:              t.ID,
		Subject:         t.Subject,
		Description:     t.Description,
		Type:            t.Type,
		Status:          t.Status,
		UserEmail:       t.UserEmail,
		PaymentRequired: t.PaymentRequired,
		PaymentCurrency: t.PaymentCurrency,
		PaymentType:     t.PaymentType,
		PaymentStatus:   t.PaymentStatus,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if t.PaymentAmount != nil {
		amount := payment.FormatAmount(*t.PaymentAmount)
		view.PaymentAmount = &amount
	}
	return view
}

// PricingView answers "is this payment type billable, and for how much".
type PricingView struct {
	PaymentType string  `json:"payment_type"`
	Required    bool    `json:"required"`
	Amount      *string `json:"amount,omitempty"`
	Currency    *string `json:"currency,omitempty"`
}
