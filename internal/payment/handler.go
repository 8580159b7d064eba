package payment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/auth"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	PaymentService ServiceAPI
	Logger         *slog.Logger
}

func NewHandler(paymentService ServiceAPI, logger *slog.Logger) *Handler {
	return &Handler{
		PaymentService: paymentService,
		Logger:         logger,
	}
}

// GetByOrderID handles GET /api/v1/payments/{orderID}. Staff only: clients
// read payment state through their ticket, not the raw attempt.
func (h *Handler) GetByOrderID(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}
	if !user.IsStaff() {
		h.Logger.Warn("payment lookup denied", "user", user.Email)
		h.HandleError(w, errors.ErrForbidden)
		return
	}

	orderID := chi.URLParam(r, "orderID")
	attempt, err := h.PaymentService.GetByOrderID(orderID)
	if err != nil {
		h.Logger.Error("payment lookup failed", "error", err, "order_id", orderID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(attempt))
}
