package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

// PaymentCompletedEvent fires exactly once per attempt, on the first
// transition to completed. Callback re-delivery does not republish it.
type PaymentCompletedEvent struct {
	BaseEvent
	PaymentAttemptID int64  `json:"payment_attempt_id"`
	TicketID         int64  `json:"ticket_id"`
	OrderID          string `json:"order_id"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	PaymentType      string `json:"payment_type"`
	Recipient        string `json:"recipient"`
}

func NewPaymentCompletedEvent(attemptID, ticketID int64, orderID, amount, currency, paymentType, recipient string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_attempt_id": attemptID,
				"ticket_id":          ticketID,
				"order_id":           orderID,
				"amount":             amount,
				"currency":           currency,
				"payment_type":       paymentType,
			},
		},
		PaymentAttemptID: attemptID,
		TicketID:         ticketID,
		OrderID:          orderID,
		Amount:           amount,
		Currency:         currency,
		PaymentType:      paymentType,
		Recipient:        recipient,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	PaymentAttemptID int64  `json:"payment_attempt_id"`
	TicketID         int64  `json:"ticket_id"`
	OrderID          string `json:"order_id"`
	Amount           string `json:"amount"`
	Reason           string `json:"reason"`
	Recipient        string `json:"recipient"`
}

func NewPaymentFailedEvent(attemptID, ticketID int64, orderID, amount, reason, recipient string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_attempt_id": attemptID,
				"ticket_id":          ticketID,
				"order_id":           orderID,
				"amount":             amount,
				"reason":             reason,
			},
		},
		PaymentAttemptID: attemptID,
		TicketID:         ticketID,
		OrderID:          orderID,
		Amount:           amount,
		Reason:           reason,
		Recipient:        recipient,
	}
}
