package ticket_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/mouhcinecherqui/devtech-sub000/internal"
	paymentmodel "github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/payment"
	ticketmodel "github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/ticket"
	"github.com/mouhcinecherqui/devtech-sub000/internal/core/events"
	paymentPkg "github.com/mouhcinecherqui/devtech-sub000/internal/payment"
	ticketPkg "github.com/mouhcinecherqui/devtech-sub000/internal/ticket"
)

func TestTicketService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ticket Service Suite")
}

type mockTicketRepository struct {
	mu        sync.Mutex
	tickets   map[int64]*ticketmodel.Ticket
	nextID    int64
	saveError error
	saves     int
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{tickets: make(map[int64]*ticketmodel.Ticket)}
}

func (m *mockTicketRepository) Create(t *ticketmodel.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	copied := *t
	m.tickets[t.ID] = &copied
	return nil
}

func (m *mockTicketRepository) GetByID(id int64) (*ticketmodel.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, errors.New("ticket not found")
	}
	copied := *t
	return &copied, nil
}

func (m *mockTicketRepository) GetByPaymentAttemptID(attemptID int64) (*ticketmodel.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.PaymentAttemptID != nil && *t.PaymentAttemptID == attemptID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, errors.New("ticket not found")
}

func (m *mockTicketRepository) Save(t *ticketmodel.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	copied := *t
	m.tickets[t.ID] = &copied
	m.saves++
	return nil
}

func (m *mockTicketRepository) GetPendingPaymentTickets(limit int) ([]*ticketmodel.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*ticketmodel.Ticket
	for _, t := range m.tickets {
		if t.PaymentStatus != nil && *t.PaymentStatus == ticketmodel.PaymentStatusPending && t.PaymentAttemptID != nil {
			copied := *t
			out = append(out, &copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockTicketRepository) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type mockPaymentService struct {
	mu             sync.Mutex
	attempts       map[int64]*paymentmodel.PaymentAttempt
	nextID         int64
	callbackResult *paymentPkg.CallbackResult
	callbackError  error
	buildError     error
}

func newMockPaymentService() *mockPaymentService {
	return &mockPaymentService{attempts: make(map[int64]*paymentmodel.PaymentAttempt)}
}

func (m *mockPaymentService) BuildRequest(dto paymentPkg.CreatePaymentDTO) (*paymentmodel.PaymentAttempt, map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buildError != nil {
		return nil, nil, m.buildError
	}
	amount, err := paymentPkg.NormalizeAmount(dto.Amount)
	if err != nil {
		return nil, nil, err
	}
	m.nextID++
	attempt := &paymentmodel.PaymentAttempt{
		ID:        m.nextID,
		OrderID:   "DT1700000000_test" + paymentPkg.FormatAmount(amount),
		Amount:    amount,
		Currency:  dto.Currency,
		Status:    paymentmodel.StatusPending,
		UserEmail: dto.UserEmail,
	}
	m.attempts[attempt.ID] = attempt
	return attempt, map[string]string{"oid": attempt.OrderID, "hash": "SIGNED"}, nil
}

func (m *mockPaymentService) ProcessCallback(params map[string]string) (*paymentPkg.CallbackResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callbackResult, m.callbackError
}

func (m *mockPaymentService) GetByOrderID(orderID string) (*paymentmodel.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.OrderID == orderID {
			return a, nil
		}
	}
	return nil, apperrors.ErrPaymentNotFound
}

func (m *mockPaymentService) GetByID(id int64) (*paymentmodel.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, apperrors.ErrPaymentNotFound
	}
	return a, nil
}

var _ = Describe("TicketService", func() {
	var (
		repo           *mockTicketRepository
		paymentService *mockPaymentService
		eventBus       *events.EventBus
		service        *ticketPkg.Service
		published      chan events.Event
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo = newMockTicketRepository()
		paymentService = newMockPaymentService()
		eventBus = events.NewEventBus(logger)
		published = make(chan events.Event, 8)

		capture := func(ctx context.Context, event events.Event) error {
			published <- event
			return nil
		}
		eventBus.Subscribe(events.EventTypePaymentCompleted, capture)
		eventBus.Subscribe(events.EventTypePaymentFailed, capture)

		service = ticketPkg.NewService(repo, paymentService, ticketPkg.DefaultPricing(), "MAD", eventBus, logger)
	})

	createTicket := func() *ticketmodel.Ticket {
		t, err := service.CreateTicket(ticketPkg.CreateTicketDTO{
			Subject:   "Cannot log in",
			Type:      "account",
			UserEmail: "amina@mail.com",
		})
		Expect(err).ToNot(HaveOccurred())
		return t
	}

	configureAndOpen := func(paymentType string) (*ticketmodel.Ticket, *paymentmodel.PaymentAttempt) {
		t := createTicket()
		Expect(service.ConfigurePayment(t.ID, paymentType)).To(Succeed())

		_, err := service.CreatePaymentRequest(t.ID, "10.0.0.1")
		Expect(err).ToNot(HaveOccurred())

		bound, err := repo.GetByID(t.ID)
		Expect(err).ToNot(HaveOccurred())
		Expect(bound.PaymentAttemptID).ToNot(BeNil())

		attempt, err := paymentService.GetByID(*bound.PaymentAttemptID)
		Expect(err).ToNot(HaveOccurred())
		return bound, attempt
	}

	terminalCallback := func(attempt *paymentmodel.PaymentAttempt, status string) *paymentPkg.CallbackResult {
		attempt.Status = status
		return &paymentPkg.CallbackResult{Attempt: attempt, FirstTransition: true}
	}

	Describe("ConfigurePayment", func() {
		It("marks a ticket payable for a known type", func() {
			t := createTicket()

			Expect(service.ConfigurePayment(t.ID, ticketPkg.PaymentTypeUpgrade)).To(Succeed())

			updated, err := repo.GetByID(t.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.PaymentRequired).To(BeTrue())
			Expect(*updated.PaymentType).To(Equal(ticketPkg.PaymentTypeUpgrade))
			Expect(*updated.PaymentStatus).To(Equal(ticketmodel.PaymentStatusPending))
			Expect(updated.PaymentAmount.Equal(decimal.NewFromFloat(25.0))).To(BeTrue())
			Expect(*updated.PaymentCurrency).To(Equal("MAD"))
		})

		It("leaves a ticket free for an unknown type", func() {
			t := createTicket()

			Expect(service.ConfigurePayment(t.ID, "FREE_CONSULT")).To(Succeed())

			updated, err := repo.GetByID(t.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.PaymentRequired).To(BeFalse())
			Expect(updated.PaymentStatus).To(BeNil())
		})

		It("returns not found for a missing ticket", func() {
			err := service.ConfigurePayment(999, ticketPkg.PaymentTypeUpgrade)
			Expect(errors.Is(err, apperrors.ErrTicketNotFound)).To(BeTrue())
		})
	})

	Describe("CheckPaymentRequired", func() {
		It("prices a billable type", func() {
			view := service.CheckPaymentRequired(ticketPkg.PaymentTypePriority)
			Expect(view.Required).To(BeTrue())
			Expect(*view.Amount).To(Equal("50.00"))
			Expect(*view.Currency).To(Equal("MAD"))
		})

		It("reports an unknown type as free", func() {
			view := service.CheckPaymentRequired("SOMETHING_ELSE")
			Expect(view.Required).To(BeFalse())
			Expect(view.Amount).To(BeNil())
		})
	})

	Describe("CreatePaymentRequest", func() {
		It("refuses a ticket that does not require payment", func() {
			t := createTicket()

			_, err := service.CreatePaymentRequest(t.ID, "10.0.0.1")
			Expect(errors.Is(err, apperrors.ErrPaymentNotRequired)).To(BeTrue())
		})

		It("binds the new attempt to the ticket", func() {
			t, attempt := configureAndOpen(ticketPkg.PaymentTypeUpgrade)

			Expect(*t.PaymentAttemptID).To(Equal(attempt.ID))
			Expect(*t.PaymentStatus).To(Equal(ticketmodel.PaymentStatusPending))
			Expect(paymentPkg.FormatAmount(attempt.Amount)).To(Equal("25.00"))
		})
	})

	Describe("Reconcile", func() {
		It("upgrades the ticket when an upgrade payment completes", func() {
			_, attempt := configureAndOpen(ticketPkg.PaymentTypeUpgrade)
			paymentService.callbackResult = terminalCallback(attempt, paymentmodel.StatusCompleted)

			Expect(service.Reconcile(map[string]string{"oid": attempt.OrderID})).To(Succeed())

			updated, err := repo.GetByPaymentAttemptID(attempt.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(ticketmodel.StatusPriority))
			Expect(*updated.PaymentStatus).To(Equal(ticketmodel.PaymentStatusCompleted))

			var event events.Event
			Eventually(published).Should(Receive(&event))
			Expect(event.EventType()).To(Equal(events.EventTypePaymentCompleted))
		})

		It("grants vip status for a completed priority-access payment", func() {
			_, attempt := configureAndOpen(ticketPkg.PaymentTypePriority)
			paymentService.callbackResult = terminalCallback(attempt, paymentmodel.StatusCompleted)

			Expect(service.Reconcile(map[string]string{"oid": attempt.OrderID})).To(Succeed())

			updated, err := repo.GetByPaymentAttemptID(attempt.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(ticketmodel.StatusVIP))
		})

		It("keeps the ticket status for a completed creation payment", func() {
			_, attempt := configureAndOpen(ticketPkg.PaymentTypeCreation)
			paymentService.callbackResult = terminalCallback(attempt, paymentmodel.StatusCompleted)

			Expect(service.Reconcile(map[string]string{"oid": attempt.OrderID})).To(Succeed())

			updated, err := repo.GetByPaymentAttemptID(attempt.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(ticketmodel.StatusOpen))
			Expect(*updated.PaymentStatus).To(Equal(ticketmodel.PaymentStatusCompleted))
		})

		It("marks the payment failed without touching the ticket status on a decline", func() {
			_, attempt := configureAndOpen(ticketPkg.PaymentTypeUpgrade)
			paymentService.callbackResult = terminalCallback(attempt, paymentmodel.StatusFailed)

			Expect(service.Reconcile(map[string]string{"oid": attempt.OrderID})).To(Succeed())

			updated, err := repo.GetByPaymentAttemptID(attempt.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(ticketmodel.StatusOpen))
			Expect(*updated.PaymentStatus).To(Equal(ticketmodel.PaymentStatusFailed))

			var event events.Event
			Eventually(published).Should(Receive(&event))
			Expect(event.EventType()).To(Equal(events.EventTypePaymentFailed))
		})

		It("suppresses side effects for a re-delivered callback", func() {
			_, attempt := configureAndOpen(ticketPkg.PaymentTypeUpgrade)
			paymentService.callbackResult = &paymentPkg.CallbackResult{Attempt: attempt, AlreadyTerminal: true}
			savesBefore := repo.saveCount()

			Expect(service.Reconcile(map[string]string{"oid": attempt.OrderID})).To(Succeed())

			Expect(repo.saveCount()).To(Equal(savesBefore))
			Consistently(published).ShouldNot(Receive())
		})

		It("propagates a signature failure untouched", func() {
			paymentService.callbackError = apperrors.ErrSignatureInvalid

			err := service.Reconcile(map[string]string{"oid": "DT0_forged"})
			Expect(errors.Is(err, apperrors.ErrSignatureInvalid)).To(BeTrue())
		})

		It("reports an attempt no ticket is bound to", func() {
			attempt := &paymentmodel.PaymentAttempt{ID: 4242, OrderID: "DT0_orphan", Status: paymentmodel.StatusCompleted}
			paymentService.callbackResult = &paymentPkg.CallbackResult{Attempt: attempt, FirstTransition: true}

			err := service.Reconcile(map[string]string{"oid": attempt.OrderID})
			Expect(errors.Is(err, apperrors.ErrTicketNotBound)).To(BeTrue())
		})
	})

	Describe("Sweep", func() {
		It("repairs a ticket whose attempt completed while the ticket stayed pending", func() {
			t, attempt := configureAndOpen(ticketPkg.PaymentTypeUpgrade)

			// terminal attempt, ticket still pending: the drift the sweep exists for
			attempt.Status = paymentmodel.StatusCompleted

			repaired, err := service.Sweep(10)
			Expect(err).ToNot(HaveOccurred())
			Expect(repaired).To(Equal(1))

			updated, err := repo.GetByID(t.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Status).To(Equal(ticketmodel.StatusPriority))
			Expect(*updated.PaymentStatus).To(Equal(ticketmodel.PaymentStatusCompleted))
		})

		It("leaves genuinely pending attempts alone", func() {
			configureAndOpen(ticketPkg.PaymentTypeUpgrade)

			repaired, err := service.Sweep(10)
			Expect(err).ToNot(HaveOccurred())
			Expect(repaired).To(BeZero())
		})
	})
})
