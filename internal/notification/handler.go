package notification

import (
	"log/slog"
	"net/http"
	"strconv"

	errors "github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/auth"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
	Logger  *slog.Logger
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Logger:      logger,
	}
}

// ListNotifications handles GET /api/v1/notifications. Always scoped to the
// authenticated user; there is no cross-recipient listing.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	notifications, err := h.Service.ListForRecipient(user.Email, limit, offset)
	if err != nil {
		h.Logger.Error("failed to list notifications", "error", err, "recipient", user.Email)
		h.HandleError(w, errors.NewInternalError("failed to list notifications", err))
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}
