package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/mouhcinecherqui/devtech-sub000/internal/auth"
	"github.com/mouhcinecherqui/devtech-sub000/internal/notification"
	"github.com/mouhcinecherqui/devtech-sub000/internal/payment"
	"github.com/mouhcinecherqui/devtech-sub000/internal/ticket"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport/middleware"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport/swagger"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, ticketHandler *ticket.Handler, paymentHandler *payment.Handler, webhookHandler *payment.WebhookHandler, notificationHandler *notification.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway callback is unauthenticated: CMI authenticates with the
		// HASH parameter, not a session.
		if webhookHandler != nil {
			r.Post("/payments/callback", webhookHandler.HandleGatewayCallback)
		}

		// Public pricing lookup
		if ticketHandler != nil {
			r.Get("/payments/pricing/{type}", ticketHandler.CheckPricing)
		}

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if ticketHandler != nil {
					pr.Route("/tickets", func(tr chi.Router) {
						tr.Post("/", ticketHandler.CreateTicket)      // POST /tickets
						tr.Get("/{id}", ticketHandler.GetTicket)      // GET /tickets/:id
						tr.Get("/{id}/payment", ticketHandler.GetPaymentStatus)
						tr.Post("/{id}/payment", ticketHandler.CreatePaymentRequest)

						// Staff routes
						tr.Group(func(sr chi.Router) {
							sr.Use(authHandler.RequireStaff)
							sr.Post("/{id}/payment/configure", ticketHandler.ConfigurePayment)
						})
					})
				}

				if notificationHandler != nil {
					pr.Get("/notifications", notificationHandler.ListNotifications)
				}

				// Payment lookup by order id (staff only, enforced in handler)
				if paymentHandler != nil {
					pr.Get("/payments/orders/{orderID}", paymentHandler.GetByOrderID)
				}
			})
		}
	})
}
