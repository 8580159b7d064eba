package payment

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/cmi"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport"
)

// CallbackReconciler drives the ticket-side consequences of a processed
// callback. Implemented by the ticket service.
type CallbackReconciler interface {
	Reconcile(params map[string]string) error
}

type WebhookHandler struct {
	*transport.BaseHandler
	reconciler CallbackReconciler
	logger     *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, reconciler CallbackReconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		reconciler:  reconciler,
		logger:      logger,
	}
}

type callbackAck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleGatewayCallback receives the gateway's form-encoded POST.
//
// Acknowledgement policy: 400 only for a malformed or forged payload. An
// unknown order id or a persistence failure is logged and acknowledged with
// 200 so the gateway does not retry a permanent mismatch forever; the sweep
// command picks up anything left inconsistent.
func (h *WebhookHandler) HandleGatewayCallback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Error("unparseable gateway callback", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid callback payload")
		return
	}

	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}

	if params[cmi.CallbackOrderID] == "" {
		h.logger.Error("gateway callback missing order id")
		h.WriteError(w, http.StatusBadRequest, "oid is required")
		return
	}

	h.logger.Info("received gateway callback",
		"order_id", params[cmi.CallbackOrderID],
		"response", params[cmi.CallbackResponse],
		"transaction_id", params[cmi.CallbackTransID])

	if err := h.reconciler.Reconcile(params); err != nil {
		if appErr, ok := apperrors.IsAppError(err); ok && appErr.Code == apperrors.ErrCodeSignatureInvalid {
			h.WriteError(w, http.StatusBadRequest, "signature verification failed")
			return
		}
		if errors.Is(err, cmi.ErrStoreKeyMissing) || errors.Is(err, cmi.ErrNoParams) {
			h.WriteError(w, http.StatusInternalServerError, "gateway misconfigured")
			return
		}

		// acknowledged on purpose; see policy above
		h.logger.Error("callback reconciliation failed, acknowledging anyway",
			"error", err,
			"order_id", params[cmi.CallbackOrderID])
		h.WriteJSON(w, http.StatusOK, callbackAck{
			Status:  "accepted",
			Message: "callback received",
		})
		return
	}

	h.WriteJSON(w, http.StatusOK, callbackAck{
		Status:  "success",
		Message: "callback processed",
	})
}
