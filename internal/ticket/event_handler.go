package ticket

import (
	"context"
	"fmt"
	"log/slog"

	notificationmodel "github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/notification"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/events"
	"github.com/mouhcinecherqui/devtech-sub000/internal/notification"
)

// EventHandler turns payment events into client notifications. Dispatch is
// best-effort by construction: the notifier swallows its own failures and
// the bus never propagates handler errors back to the reconciler.
type EventHandler struct {
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewEventHandler(notifier notification.Notifier, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		logger:   logger,
	}
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	message := fmt.Sprintf("Your payment of %s %s for ticket #%d was received.",
		completed.Amount, completed.Currency, completed.TicketID)
	actionURL := fmt.Sprintf("/tickets/%d", completed.TicketID)

	h.notifier.Notify(ctx, completed.Recipient, message,
		notificationmodel.TypePaymentCompleted, &completed.TicketID, actionURL)

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	message := fmt.Sprintf("Your payment for ticket #%d was declined. You can retry from the ticket page.",
		failed.TicketID)
	actionURL := fmt.Sprintf("/tickets/%d", failed.TicketID)

	h.notifier.Notify(ctx, failed.Recipient, message,
		notificationmodel.TypePaymentFailed, &failed.TicketID, actionURL)

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("ticket payment event handlers registered")
}
