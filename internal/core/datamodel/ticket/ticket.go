package ticket

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"

	// Payment-driven status markers applied on reconciliation.
	StatusPriority = "priority"
	StatusVIP      = "vip"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

type Ticket struct {
	ID          int64  `gorm:"primaryKey"`
	Subject     string `gorm:"column:subject;not null"`
	Description string `gorm:"column:description"`
	Type        string `gorm:"column:type"`
	Status      string `gorm:"column:status;default:open;index"`
	UserEmail   string `gorm:"column:user_email;index;not null"`

	// Payment binding. PaymentAttemptID back-references the attempt that is
	// expected to settle this ticket; PaymentStatus mirrors its outcome.
	PaymentRequired  bool             `gorm:"column:payment_required;default:false"`
	PaymentAmount    *decimal.Decimal `gorm:"column:payment_amount;type:numeric(12,2)"`
	PaymentCurrency  *string          `gorm:"column:payment_currency"`
	PaymentType      *string          `gorm:"column:payment_type"`
	PaymentStatus    *string          `gorm:"column:payment_status"`
	PaymentAttemptID *int64           `gorm:"column:payment_attempt_id;index"`

	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Ticket) TableName() string { return "tickets" }
