package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mouhcinecherqui/devtech-sub000/internal/cmi"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/events"
	"github.com/mouhcinecherqui/devtech-sub000/internal/notification"
	notificationpg "github.com/mouhcinecherqui/devtech-sub000/internal/notification/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/internal/payment"
	paymentpg "github.com/mouhcinecherqui/devtech-sub000/internal/payment/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/internal/ticket"
	ticketpg "github.com/mouhcinecherqui/devtech-sub000/internal/ticket/postgres"
	"github.com/mouhcinecherqui/devtech-sub000/pkg/logger"
)

// sweepCmd runs the compensating reconciliation pass: callbacks the server
// acknowledged but failed to apply leave a ticket pending while its payment
// attempt is terminal, and the sweep repairs that drift.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Repair tickets whose payment already reached a terminal state",
	Long:  `Scan tickets still marked payment-pending, compare them against their bound payment attempts and re-apply any missing status change and notification.`,
	Run: func(cmd *cobra.Command, args []string) {
		runSweep()
	},
}

var (
	sweepLimit    int
	sweepInterval time.Duration
	sweepOnce     bool
)

func runSweep() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	gormDB, err := initGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

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

	eventBus := events.NewEventBus(log)
	paymentService := payment.NewService(paymentpg.NewPaymentRepository(gormDB), builder, signer, log)
	notificationService := notification.NewService(notificationpg.NewNotificationRepository(gormDB), log)

	currency := config.Pricing.Currency
	if currency == "" {
		currency = config.Gateway.Currency
	}
	ticketService := ticket.NewService(
		ticketpg.NewTicketRepository(gormDB),
		paymentService,
		ticket.PricingTable(config.Pricing.FeeTable()),
		currency,
		eventBus,
		log,
	)

	// repaired tickets still owe the client a notification
	ticket.NewEventHandler(notificationService, log).RegisterEventHandlers(eventBus)

	sweep := func() {
		repaired, err := ticketService.Sweep(sweepLimit)
		if err != nil {
			log.Error("sweep pass failed", "error", err)
			return
		}
		log.Info("sweep pass finished", "repaired", repaired)
	}

	sweep()
	if sweepOnce {
		// let async notification handlers drain before exit
		time.Sleep(200 * time.Millisecond)
		return
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info("sweep worker running", "interval", sweepInterval, "limit", sweepLimit)

	for {
		select {
		case <-ticker.C:
			sweep()
		case sig := <-sigChan:
			log.Info("received signal, stopping sweep worker", "signal", sig)
			return
		}
	}
}

func init() {
	sweepCmd.Flags().IntVar(&sweepLimit, "limit", 100, "Maximum tickets inspected per pass")
	sweepCmd.Flags().DurationVar(&sweepInterval, "interval", 5*time.Minute, "Delay between passes")
	sweepCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single pass and exit")
}
