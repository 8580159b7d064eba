package payment

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/payment"
)

// RepositoryAPI is the persistence contract for payment attempts.
// MarkTerminal is the idempotency point: it must transition the row only if
// it is still pending and report whether this call won the transition.
type RepositoryAPI interface {
	Create(attempt *payment.PaymentAttempt) error
	GetByID(id int64) (*payment.PaymentAttempt, error)
	GetByOrderID(orderID string) (*payment.PaymentAttempt, error)
	GetByTransactionID(transactionID string) (*payment.PaymentAttempt, error)
	MarkTerminal(id int64, status string, meta CallbackMeta) (bool, error)
	CountByStatus() (map[string]int64, error)
}

// CallbackMeta is the gateway-supplied metadata copied onto the attempt on
// its terminal transition.
type CallbackMeta struct {
	TransactionID   string
	ResponseCode    string
	ResponseMessage string
	ApprovalCode    string
	CardBrand       string
	CardIssuer      string
}

// ServiceAPI is what the web boundary and the ticket reconciler consume.
type ServiceAPI interface {
	BuildRequest(dto CreatePaymentDTO) (*payment.PaymentAttempt, map[string]string, error)
	ProcessCallback(params map[string]string) (*CallbackResult, error)
	GetByOrderID(orderID string) (*payment.PaymentAttempt, error)
	GetByID(id int64) (*payment.PaymentAttempt, error)
}

// CallbackResult reports a processed callback. FirstTransition is true only
// for the call that actually flipped the attempt to a terminal state; a
// re-delivered callback returns the stored attempt with AlreadyTerminal set
// so callers can suppress duplicate side effects.
type CallbackResult struct {
	Attempt         *payment.PaymentAttempt
	FirstTransition bool
	AlreadyTerminal bool
}

// NormalizeAmount resolves the polymorphic amount accepted at the system
// boundary (number, numeric string, json.Number) into a canonical
// non-negative decimal. Everything past this point operates on the decimal.
func NormalizeAmount(raw interface{}) (decimal.Decimal, error) {
	var (
		amount decimal.Decimal
		err    error
	)

	switch v := raw.(type) {
	case decimal.Decimal:
		amount = v
	case string:
		amount, err = decimal.NewFromString(v)
	case json.Number:
		amount, err = decimal.NewFromString(v.String())
	case float64:
		amount = decimal.NewFromFloat(v)
	case float32:
		amount = decimal.NewFromFloat32(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	default:
		return decimal.Decimal{}, errors.ErrInvalidAmount
	}

	if err != nil {
		return decimal.Decimal{}, errors.ErrInvalidAmount
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, errors.ErrInvalidAmount
	}

	return amount, nil
}

// FormatAmount renders an amount the way the gateway expects: exactly two
// decimal places.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// View is the JSON shape returned to API consumers.
type View struct {
	ID            int64      `json:"id"`
	OrderID       string     `json:"order_id"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	Amount        string     `json:"amount"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	ResponseCode  *string    `json:"response_code,omitempty"`
	ApprovalCode  *string    `json:"approval_code,omitempty"`
	CardBrand     *string    `json:"card_brand,omitempty"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func ToView(attempt *payment.PaymentAttempt) *View {
	if attempt == nil {
		return nil
	}
	return &View{
		ID:            attempt.ID,
		OrderID:       attempt.OrderID,
		TransactionID: attempt.TransactionID,
		Amount:        FormatAmount(attempt.Amount),
		Currency:      attempt.Currency,
		Status:        attempt.Status,
		ResponseCode:  attempt.ResponseCode,
		ApprovalCode:  attempt.ApprovalCode,
		CardBrand:     attempt.CardBrand,
		Description:   attempt.Description,
		CreatedAt:     attempt.CreatedAt,
		UpdatedAt:     attempt.UpdatedAt,
	}
}
