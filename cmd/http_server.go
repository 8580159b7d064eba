package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mouhcinecherqui/devtech-sub000/internal"
	"github.com/mouhcinecherqui/devtech-sub000/internal/auth"
	authpg "github.com/mouhcinecherqui/devtech-sub000/internal/auth/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/internal/cmi"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/events"
	"github.com/mouhcinecherqui/devtech-sub000/internal/notification"
	notificationpg "github.com/mouhcinecherqui/devtech-sub000/internal/notification/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/internal/payment"
	paymentpg "github.com/mouhcinecherqui/devtech-sub000/internal/payment/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/internal/ticket"
	ticketpg "github.com/mouhcinecherqui/devtech-sub000/internal/ticket/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport/middleware"
	"github.com/mouhcinecherqui/devtech-sub000/internal/transport/rest"
	"github.com/mouhcinecherqui/devtech-sub000/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config              *internal.Config
	DB                  *sqlx.DB
	Router              *chi.Mux
	Logger              *slog.Logger
	AuthHandler         *auth.Handler
	TicketHandler       *ticket.Handler
	PaymentHandler      *payment.Handler
	WebhookHandler      *payment.WebhookHandler
	NotificationHandler *notification.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	deps.Router.Use(middleware.RequestID)
	deps.Router.Use(middleware.LoggingMiddleware(deps.Logger))

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthHandler,
		deps.TicketHandler,
		deps.PaymentHandler,
		deps.WebhookHandler,
		deps.NotificationHandler,
		deps.Logger,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	// gateway crypto
	signer := cmi.NewSigner(config.Gateway.StoreKey)
	builder := cmi.NewRequestBuilder(cmi.Config{
		ClientID:    config.Gateway.ClientID,
		StoreType:   config.Gateway.StoreTypeOrDefault(),
		OkURL:       config.Gateway.OkURL,
		FailURL:     config.Gateway.FailURL,
		Language:    config.Gateway.Language,
		Currency:    config.Gateway.Currency,
		OrderPrefix: config.Gateway.OrderPrefix,
	}, signer)

	// repositories
	paymentRepo := paymentpg.NewPaymentRepository(gormDB)
	ticketRepo := ticketpg.NewTicketRepository(gormDB)
	notificationRepo := notificationpg.NewNotificationRepository(gormDB)
	authRepo := authpg.NewAuthRepository(gormDB)

	// services
	eventBus := events.NewEventBus(log)
	paymentService := payment.NewService(paymentRepo, builder, signer, log)
	notificationService := notification.NewService(notificationRepo, log)

	currency := config.Pricing.Currency
	if currency == "" {
		currency = config.Gateway.Currency
	}
	ticketService := ticket.NewService(
		ticketRepo,
		paymentService,
		ticket.PricingTable(config.Pricing.FeeTable()),
		currency,
		eventBus,
		log,
	)

	eventHandler := ticket.NewEventHandler(notificationService, log)
	eventHandler.RegisterEventHandlers(eventBus)

	tokenGenerator := auth.NewJWTTokenGenerator(config.Security.AccessTokenSecret)
	authService := auth.NewService(authRepo, tokenGenerator)

	// handlers
	baseHandler := transport.NewBaseHandler(log)

	return &Dependencies{
		Config:              config,
		DB:                  db,
		Router:              chi.NewRouter(),
		Logger:              log,
		AuthHandler:         auth.NewHandler(baseHandler, authService, log),
		TicketHandler:       ticket.NewHandler(baseHandler, ticketService, log),
		PaymentHandler:      payment.NewHandler(paymentService, log),
		WebhookHandler:      payment.NewWebhookHandler(baseHandler, ticketService, log),
		NotificationHandler: notification.NewHandler(baseHandler, notificationService, log),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the existing sql connection so repositories and the health
// check share one pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
}
