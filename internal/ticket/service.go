package ticket

import (
	"context"
	"fmt"
	"log/slog"

	apperrors "github.com/mouhcinecherqui/devtech-sub000/internal"
	paymentmodel "github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/payment"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/ticket"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/events"
	"github.com/mouhcinecherqui/devtech-sub000/internal/payment"
)

// Service binds payment outcomes back to tickets: it configures payable
// tickets from the pricing table, opens payment attempts against the
// gateway, and applies the ticket-side state change when a callback lands.
type Service struct {
	repo           RepositoryAPI
	paymentService payment.ServiceAPI
	pricing        PricingTable
	currency       string
	eventBus       *events.EventBus
	logger         *slog.Logger
}

func NewService(repo RepositoryAPI, paymentService payment.ServiceAPI, pricing PricingTable, currency string, eventBus *events.EventBus, logger *slog.Logger) *Service {
	if len(pricing) == 0 {
		pricing = DefaultPricing()
	}
	return &Service{
		repo:           repo,
		paymentService: paymentService,
		pricing:        pricing,
		currency:       currency,
		eventBus:       eventBus,
		logger:         logger,
	}
}

func (s *Service) CreateTicket(dto CreateTicketDTO) (*ticket.Ticket, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t := &ticket.Ticket{
		Subject:     dto.Subject,
		Description: dto.Description,
		Type:        dto.Type,
		Status:      ticket.StatusOpen,
		UserEmail:   dto.UserEmail,
	}

	if err := s.repo.Create(t); err != nil {
		s.logger.Error("failed to create ticket", "error", err, "user", dto.UserEmail)
		return nil, apperrors.NewInternalError("failed to create ticket", err)
	}

	s.logger.Info("ticket created", "ticket_id", t.ID, "user", dto.UserEmail)
	return t, nil
}

func (s *Service) GetTicket(id int64) (*ticket.Ticket, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, apperrors.ErrTicketNotFound
	}
	return t, nil
}

// CheckPaymentRequired reports whether a payment type is billable and at
// what price, without touching any ticket.
func (s *Service) CheckPaymentRequired(paymentType string) PricingView {
	fee, required := s.pricing.FeeFor(paymentType)
	view := PricingView{PaymentType: paymentType, Required: required}
	if required {
		amount := payment.FormatAmount(fee)
		view.Amount = &amount
		view.Currency = &s.currency
	}
	return view
}

// ConfigurePayment marks a ticket as payment-required when the type carries
// a positive fee. Unknown or zero-price types are a no-op: the ticket stays
// free, which is not an error.
func (s *Service) ConfigurePayment(ticketID int64, paymentType string) error {
	t, err := s.repo.GetByID(ticketID)
	if err != nil {
		return apperrors.ErrTicketNotFound
	}

	fee, required := s.pricing.FeeFor(paymentType)
	if !required {
		s.logger.Info("payment type carries no fee, ticket stays free",
			"ticket_id", ticketID,
			"payment_type", paymentType)
		return nil
	}

	pending := ticket.PaymentStatusPending
	t.PaymentRequired = true
	t.PaymentAmount = &fee
	t.PaymentCurrency = &s.currency
	t.PaymentType = &paymentType
	t.PaymentStatus = &pending

	if err := s.repo.Save(t); err != nil {
		s.logger.Error("failed to configure ticket payment", "error", err, "ticket_id", ticketID)
		return apperrors.NewInternalError("failed to configure ticket payment", err)
	}

	s.logger.Info("ticket configured for payment",
		"ticket_id", ticketID,
		"payment_type", paymentType,
		"amount", payment.FormatAmount(fee),
		"currency", s.currency)

	return nil
}

// CreatePaymentRequest opens a payment attempt for a configured ticket and
// returns the signed gateway parameter map for the browser redirect.
func (s *Service) CreatePaymentRequest(ticketID int64, clientIP string) (map[string]string, error) {
	t, err := s.repo.GetByID(ticketID)
	if err != nil {
		return nil, apperrors.ErrTicketNotFound
	}

	if !t.PaymentRequired || t.PaymentAmount == nil || t.PaymentType == nil {
		return nil, apperrors.ErrPaymentNotRequired
	}

	currency := s.currency
	if t.PaymentCurrency != nil {
		currency = *t.PaymentCurrency
	}

	attempt, params, err := s.paymentService.BuildRequest(payment.CreatePaymentDTO{
		Amount:      payment.FormatAmount(*t.PaymentAmount),
		Currency:    currency,
		Description: fmt.Sprintf("ticket #%d %s", t.ID, *t.PaymentType),
		UserEmail:   t.UserEmail,
		ClientIP:    clientIP,
	})
	if err != nil {
		return nil, err
	}

	pending := ticket.PaymentStatusPending
	t.PaymentAttemptID = &attempt.ID
	t.PaymentStatus = &pending
	if err := s.repo.Save(t); err != nil {
		// the attempt row exists; the sweep re-binds it if this write is lost
		s.logger.Error("failed to bind payment attempt to ticket",
			"error", err,
			"ticket_id", t.ID,
			"order_id", attempt.OrderID)
		return nil, apperrors.NewInternalError("failed to bind payment attempt", err)
	}

	s.logger.Info("payment request created for ticket",
		"ticket_id", t.ID,
		"order_id", attempt.OrderID,
		"payment_type", *t.PaymentType)

	return params, nil
}

// Reconcile processes a gateway callback and applies the ticket-side
// consequence exactly once. The payment record is the source of truth:
// ticket or notification failures never undo the payment transition.
func (s *Service) Reconcile(params map[string]string) error {
	result, err := s.paymentService.ProcessCallback(params)
	if err != nil {
		return err
	}

	if result.AlreadyTerminal {
		// re-delivery; side effects already ran
		return nil
	}

	attempt := result.Attempt
	t, err := s.repo.GetByPaymentAttemptID(attempt.ID)
	if err != nil {
		s.logger.Error("payment completed but no ticket is bound to the attempt",
			"order_id", attempt.OrderID,
			"attempt_id", attempt.ID,
			"status", attempt.Status)
		return apperrors.ErrTicketNotBound
	}

	switch attempt.Status {
	case paymentmodel.StatusCompleted:
		s.applyCompletion(t, attempt.OrderID)
	case paymentmodel.StatusFailed:
		s.applyFailure(t, attempt.OrderID)
	}

	return nil
}

func (s *Service) applyCompletion(t *ticket.Ticket, orderID string) {
	completed := ticket.PaymentStatusCompleted
	t.PaymentStatus = &completed

	paymentType := ""
	if t.PaymentType != nil {
		paymentType = *t.PaymentType
	}

	if effect, ok := statusEffects[paymentType]; ok {
		t.Status = effect
	} else if paymentType != PaymentTypeCreation {
		s.logger.Warn("unrecognized payment type, ticket status untouched",
			"ticket_id", t.ID,
			"payment_type", paymentType)
	}

	if err := s.repo.Save(t); err != nil {
		s.logger.Error("failed to persist ticket after payment completion",
			"error", err,
			"ticket_id", t.ID,
			"order_id", orderID)
		return
	}

	amount := ""
	currency := ""
	if t.PaymentAmount != nil {
		amount = payment.FormatAmount(*t.PaymentAmount)
	}
	if t.PaymentCurrency != nil {
		currency = *t.PaymentCurrency
	}

	attemptID := int64(0)
	if t.PaymentAttemptID != nil {
		attemptID = *t.PaymentAttemptID
	}

	event := events.NewPaymentCompletedEvent(attemptID, t.ID, orderID, amount, currency, paymentType, t.UserEmail)
	s.eventBus.Publish(context.Background(), event)

	s.logger.Info("ticket payment reconciled",
		"ticket_id", t.ID,
		"order_id", orderID,
		"payment_type", paymentType,
		"ticket_status", t.Status)
}

func (s *Service) applyFailure(t *ticket.Ticket, orderID string) {
	failed := ticket.PaymentStatusFailed
	t.PaymentStatus = &failed

	if err := s.repo.Save(t); err != nil {
		s.logger.Error("failed to persist ticket after payment failure",
			"error", err,
			"ticket_id", t.ID,
			"order_id", orderID)
		return
	}

	amount := ""
	if t.PaymentAmount != nil {
		amount = payment.FormatAmount(*t.PaymentAmount)
	}

	attemptID := int64(0)
	if t.PaymentAttemptID != nil {
		attemptID = *t.PaymentAttemptID
	}

	event := events.NewPaymentFailedEvent(attemptID, t.ID, orderID, amount, "payment declined by gateway", t.UserEmail)
	s.eventBus.Publish(context.Background(), event)

	s.logger.Info("ticket payment marked failed",
		"ticket_id", t.ID,
		"order_id", orderID)
}

// GetPaymentStatus summarizes the payment state of a ticket for the API.
func (s *Service) GetPaymentStatus(ticketID int64) (*payment.StatusSummary, error) {
	t, err := s.repo.GetByID(ticketID)
	if err != nil {
		return nil, apperrors.ErrTicketNotFound
	}

	summary := &payment.StatusSummary{Required: t.PaymentRequired}
	if !t.PaymentRequired {
		return summary, nil
	}

	if t.PaymentAmount != nil {
		amount := payment.FormatAmount(*t.PaymentAmount)
		summary.Amount = &amount
	}
	summary.Currency = t.PaymentCurrency
	summary.PaymentType = t.PaymentType
	summary.Status = t.PaymentStatus

	if t.PaymentAttemptID != nil {
		if attempt, err := s.paymentService.GetByID(*t.PaymentAttemptID); err == nil {
			summary.OrderID = &attempt.OrderID
			summary.TransactionID = attempt.TransactionID
		}
	}

	return summary, nil
}

// Sweep is the compensating reconciliation pass: it finds tickets whose
// bound attempt already reached a terminal state while the ticket still
// shows a pending payment, and re-applies the missing side effect.
func (s *Service) Sweep(limit int) (int, error) {
	tickets, err := s.repo.GetPendingPaymentTickets(limit)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to list pending-payment tickets", err)
	}

	repaired := 0
	for _, t := range tickets {
		if t.PaymentAttemptID == nil {
			continue
		}
		attempt, err := s.paymentService.GetByID(*t.PaymentAttemptID)
		if err != nil {
			s.logger.Error("sweep: bound attempt missing", "ticket_id", t.ID, "error", err)
			continue
		}

		switch attempt.Status {
		case paymentmodel.StatusCompleted:
			s.applyCompletion(t, attempt.OrderID)
			repaired++
		case paymentmodel.StatusFailed:
			s.applyFailure(t, attempt.OrderID)
			repaired++
		}
	}

	if repaired > 0 {
		s.logger.Info("sweep repaired inconsistent tickets", "count", repaired)
	}
	return repaired, nil
}
