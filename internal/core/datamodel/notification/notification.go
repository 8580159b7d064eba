package notification

import "time"

const (
	TypePaymentCompleted = "payment_completed"
	TypePaymentFailed    = "payment_failed"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey"`
	Recipient string    `gorm:"column:recipient;index;not null"`
	Message   string    `gorm:"column:message;not null"`
	Type      string    `gorm:"column:type;not null"`
	TicketID  *int64    `gorm:"column:ticket_id;index"`
	ActionURL string    `gorm:"column:action_url"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (Notification) TableName() string { return "notifications" }
