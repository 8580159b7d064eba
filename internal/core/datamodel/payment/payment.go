package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PaymentAttempt is one initiated payment. Rows are never deleted; the
// attempt history is the audit trail for gateway reconciliation.
type PaymentAttempt struct {
	ID            int64           `gorm:"primaryKey"`
	OrderID       string          `gorm:"column:order_id;uniqueIndex;not null"`
	TransactionID *string         `gorm:"column:transaction_id;index"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      string          `gorm:"column:currency;not null"`
	Status        string          `gorm:"column:status;default:pending;index"`

	// Gateway-supplied metadata, write-once at callback time.
	ResponseCode    *string `gorm:"column:response_code"`
	ResponseMessage *string `gorm:"column:response_message"`
	ApprovalCode    *string `gorm:"column:approval_code"`
	CardBrand       *string `gorm:"column:card_brand"`
	CardIssuer      *string `gorm:"column:card_issuer"`

	ClientIP    string `gorm:"column:client_ip"`
	Description string `gorm:"column:description"`
	UserEmail   string `gorm:"column:user_email;index"`

	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (PaymentAttempt) TableName() string { return "payment_attempts" }

// IsTerminal reports whether the attempt already reached a final state.
// Terminal attempts are immutable; callback re-delivery must not touch them.
func (p *PaymentAttempt) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}
