package notification

import (
	"context"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/notification"
)

// Notifier is the outbound notification contract. Dispatch is fire-and-
// forget: implementations log failures and never propagate them, so a
// broken notification channel cannot undo a payment transition.
type Notifier interface {
	Notify(ctx context.Context, recipient, message, ntype string, ticketID *int64, actionURL string)
}

type RepositoryAPI interface {
	Create(n *notification.Notification) error
	GetByRecipient(recipient string, limit, offset int) ([]*notification.Notification, error)
}
