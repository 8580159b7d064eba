package notification

import (
	"context"
	"log/slog"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/notification"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Notify persists a notification row for the back-office UI to poll.
// Best-effort: a storage failure is logged and swallowed.
func (s *Service) Notify(ctx context.Context, recipient, message, ntype string, ticketID *int64, actionURL string) {
	n := &notification.Notification{
		Recipient: recipient,
		Message:   message,
		Type:      ntype,
		TicketID:  ticketID,
		ActionURL: actionURL,
	}

	if err := s.repo.Create(n); err != nil {
		s.logger.Error("failed to store notification",
			"error", err,
			"recipient", recipient,
			"type", ntype)
		return
	}

	s.logger.Info("notification dispatched",
		"recipient", recipient,
		"type", ntype,
		"notification_id", n.ID)
}

func (s *Service) ListForRecipient(recipient string, limit, offset int) ([]*notification.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.GetByRecipient(recipient, limit, offset)
}
