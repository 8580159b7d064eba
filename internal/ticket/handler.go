package ticket

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

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

// CreateTicket handles POST /api/v1/tickets
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	var dto CreateTicketDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}
	dto.UserEmail = user.Email

	t, err := h.Service.CreateTicket(dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, ToView(t))
}

// GetTicket handles GET /api/v1/tickets/{id}
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	id, err := h.ticketID(r)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid ticket id", errors.ErrCodeValidationFailed))
		return
	}

	t, err := h.Service.GetTicket(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if !user.IsStaff() && t.UserEmail != user.Email {
		h.Logger.Warn("ticket access denied", "ticket_id", id, "user", user.Email)
		h.HandleError(w, errors.ErrForbidden)
		return
	}

	h.WriteJSON(w, http.StatusOK, ToView(t))
}

// CheckPricing handles GET /api/v1/payments/pricing/{type}. Public: the
// client UI needs the fee before a ticket exists.
func (h *Handler) CheckPricing(w http.ResponseWriter, r *http.Request) {
	paymentType := chi.URLParam(r, "type")
	h.WriteJSON(w, http.StatusOK, h.Service.CheckPaymentRequired(paymentType))
}

// ConfigurePayment handles POST /api/v1/tickets/{id}/payment/configure (staff).
func (h *Handler) ConfigurePayment(w http.ResponseWriter, r *http.Request) {
	id, err := h.ticketID(r)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid ticket id", errors.ErrCodeValidationFailed))
		return
	}

	var dto ConfigurePaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.ConfigurePayment(id, dto.PaymentType); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	status, err := h.Service.GetPaymentStatus(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}

// CreatePaymentRequest handles POST /api/v1/tickets/{id}/payment. Returns
// the signed gateway form parameters for the browser redirect.
func (h *Handler) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	id, err := h.ticketID(r)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid ticket id", errors.ErrCodeValidationFailed))
		return
	}

	params, err := h.Service.CreatePaymentRequest(id, clientIP(r))
	if err != nil {
		h.Logger.Error("payment request failed", "error", err, "ticket_id", id, "user", user.Email)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"gateway_params": params,
	})
}

// GetPaymentStatus handles GET /api/v1/tickets/{id}/payment
func (h *Handler) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := h.ticketID(r)
	if err != nil {
		h.HandleError(w, errors.NewValidationError("invalid ticket id", errors.ErrCodeValidationFailed))
		return
	}

	status, err := h.Service.GetPaymentStatus(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) ticketID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
