package payment_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/cmi"
	paymentPkg "github.com/mouhcinecherqui/devtech-sub000/internal/payment"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport"
)

type mockReconciler struct {
	err        error
	lastParams map[string]string
	calls      int
}

func (m *mockReconciler) Reconcile(params map[string]string) error {
	m.calls++
	m.lastParams = params
	return m.err
}

var _ = Describe("WebhookHandler", func() {
	var (
		reconciler *mockReconciler
		handler    *paymentPkg.WebhookHandler
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		reconciler = &mockReconciler{}
		handler = paymentPkg.NewWebhookHandler(transport.NewBaseHandler(logger), reconciler, logger)
	})

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.HandleGatewayCallback(rec, req)
		return rec
	}

	validForm := func() url.Values {
		form := url.Values{}
		form.Set(cmi.CallbackOrderID, "DT1700000000_abcd1234")
		form.Set(cmi.CallbackResponse, cmi.ResponseApproved)
		form.Set(cmi.CallbackTransID, "TX-1")
		form.Set(cmi.CallbackHash, "AABB")
		return form
	}

	It("acknowledges a successfully reconciled callback", func() {
		rec := post(validForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(reconciler.calls).To(Equal(1))
		Expect(reconciler.lastParams[cmi.CallbackOrderID]).To(Equal("DT1700000000_abcd1234"))

		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["status"]).To(Equal("success"))
	})

	It("rejects a callback without an order id", func() {
		form := validForm()
		form.Del(cmi.CallbackOrderID)

		rec := post(form)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(reconciler.calls).To(BeZero())
	})

	It("rejects a forged signature with 400", func() {
		reconciler.err = apperrors.ErrSignatureInvalid

		rec := post(validForm())
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("acknowledges an unknown order id with 200 so the gateway stops retrying", func() {
		reconciler.err = apperrors.ErrUnknownOrder

		rec := post(validForm())
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["status"]).To(Equal("accepted"))
	})

	It("acknowledges a persistence failure with 200", func() {
		reconciler.err = apperrors.NewInternalError("failed to persist callback outcome", errors.New("connection reset"))

		rec := post(validForm())
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("returns 500 when the gateway credentials are misconfigured", func() {
		reconciler.err = cmi.ErrStoreKeyMissing

		rec := post(validForm())
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})
})
