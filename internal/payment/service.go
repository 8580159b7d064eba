package payment

import (
	"errors"
	"log/slog"

	apperrors "github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/cmi"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/payment"
)

// Service builds signed gateway requests and reconciles gateway callbacks
// against stored payment attempts.
type Service struct {
	repo    RepositoryAPI
	builder *cmi.RequestBuilder
	signer  *cmi.Signer
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, builder *cmi.RequestBuilder, signer *cmi.Signer, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		builder: builder,
		signer:  signer,
		logger:  logger,
	}
}

// BuildRequest normalizes the caller-supplied amount, persists a pending
// attempt and returns the signed gateway parameter map. One row written,
// no network call.
func (s *Service) BuildRequest(dto CreatePaymentDTO) (*payment.PaymentAttempt, map[string]string, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment request validation failed", "error", err)
		return nil, nil, err
	}

	amount, err := NormalizeAmount(dto.Amount)
	if err != nil {
		s.logger.Error("amount normalization failed", "error", err, "user", dto.UserEmail)
		return nil, nil, err
	}

	orderID := s.builder.NewOrderID()

	attempt := &payment.PaymentAttempt{
		OrderID:     orderID,
		Amount:      amount,
		Currency:    dto.Currency,
		Status:      payment.StatusPending,
		ClientIP:    dto.ClientIP,
		Description: dto.Description,
		UserEmail:   dto.UserEmail,
	}

	if err := s.repo.Create(attempt); err != nil {
		s.logger.Error("failed to persist payment attempt", "error", err, "order_id", orderID)
		return nil, nil, apperrors.NewInternalError("failed to persist payment attempt", err)
	}

	params, err := s.builder.Build(orderID, FormatAmount(amount))
	if err != nil {
		// attempt row stays pending for the sweep; the caller gets no params
		s.logger.Error("failed to build gateway request", "error", err, "order_id", orderID)
		return nil, nil, apperrors.NewInternalError("failed to build gateway request", err).
			WithDetails(map[string]string{"order_id": orderID})
	}

	s.logger.Info("payment attempt created",
		"order_id", orderID,
		"amount", FormatAmount(amount),
		"currency", dto.Currency,
		"user", dto.UserEmail)

	return attempt, params, nil
}

// ProcessCallback validates an inbound gateway callback and applies the
// terminal transition exactly once.
//
// Ordering is a security boundary: the signature is verified before any
// lookup or mutation, and a mismatch leaves the store untouched.
func (s *Service) ProcessCallback(params map[string]string) (*CallbackResult, error) {
	callback := cmi.ParseCallback(params)

	// the gateway hashes over clientid but does not always echo it back
	if _, ok := params[cmi.ParamClientID]; !ok {
		params[cmi.ParamClientID] = s.builder.ClientID()
	}

	if err := s.signer.Verify(cmi.CallbackHashOrder, params, callback.Hash); err != nil {
		if errors.Is(err, cmi.ErrSignatureMismatch) {
			s.logger.Warn("callback signature mismatch, possible forgery",
				"order_id", callback.OrderID,
				"response", callback.Response)
			return nil, apperrors.ErrSignatureInvalid
		}
		s.logger.Error("callback verification misconfigured", "error", err)
		return nil, apperrors.NewInternalError("gateway verification misconfigured", err)
	}

	attempt, err := s.repo.GetByOrderID(callback.OrderID)
	if err != nil {
		s.logger.Warn("callback for unknown order id",
			"order_id", callback.OrderID,
			"error", err)
		return nil, apperrors.ErrUnknownOrder
	}

	if attempt.IsTerminal() {
		s.logger.Info("callback re-delivered for terminal attempt",
			"order_id", attempt.OrderID,
			"status", attempt.Status)
		return &CallbackResult{Attempt: attempt, AlreadyTerminal: true}, nil
	}

	status := payment.StatusFailed
	if callback.Approved() {
		status = payment.StatusCompleted
	}

	meta := CallbackMeta{
		TransactionID:   callback.TransID,
		ResponseCode:    callback.ProcReturnCode,
		ResponseMessage: callback.ErrMsg,
		ApprovalCode:    callback.AuthCode,
		CardBrand:       callback.CardBrand,
		CardIssuer:      callback.CardIssuer,
	}

	transitioned, err := s.repo.MarkTerminal(attempt.ID, status, meta)
	if err != nil {
		s.logger.Error("failed to persist callback outcome",
			"error", err,
			"order_id", attempt.OrderID,
			"status", status)
		return nil, apperrors.NewInternalError("failed to persist callback outcome", err)
	}

	if !transitioned {
		// lost the race against a concurrent delivery of the same callback
		current, err := s.repo.GetByOrderID(attempt.OrderID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to re-read payment attempt", err)
		}
		s.logger.Info("concurrent callback already transitioned attempt",
			"order_id", attempt.OrderID,
			"status", current.Status)
		return &CallbackResult{Attempt: current, AlreadyTerminal: true}, nil
	}

	updated, err := s.repo.GetByID(attempt.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to re-read payment attempt", err)
	}

	s.logger.Info("payment attempt transitioned",
		"order_id", updated.OrderID,
		"status", updated.Status,
		"transaction_id", callback.TransID,
		"response", callback.Response)

	return &CallbackResult{Attempt: updated, FirstTransition: true}, nil
}

func (s *Service) GetByOrderID(orderID string) (*payment.PaymentAttempt, error) {
	attempt, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		return nil, apperrors.ErrPaymentNotFound
	}
	return attempt, nil
}

func (s *Service) GetByID(id int64) (*payment.PaymentAttempt, error) {
	attempt, err := s.repo.GetByID(id)
	if err != nil {
		return nil, apperrors.ErrPaymentNotFound
	}
	return attempt, nil
}
