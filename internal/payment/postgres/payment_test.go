package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/payment"
	paymentpkg "github.com/mouhcinecherqui/devtech-sub000/internal/payment"
)

func TestPaymentRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Payment Repository Suite")
}

// PaymentAttemptSQLite mirrors the production model without the postgres
// column defaults SQLite cannot parse.
type PaymentAttemptSQLite struct {
	ID              int64           `gorm:"primaryKey"`
	OrderID         string          `gorm:"column:order_id;uniqueIndex;not null"`
	TransactionID   *string         `gorm:"column:transaction_id;index"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric;not null"`
	Currency        string          `gorm:"column:currency;not null"`
	Status          string          `gorm:"column:status;default:pending"`
	ResponseCode    *string         `gorm:"column:response_code"`
	ResponseMessage *string         `gorm:"column:response_message"`
	ApprovalCode    *string         `gorm:"column:approval_code"`
	CardBrand       *string         `gorm:"column:card_brand"`
	CardIssuer      *string         `gorm:"column:card_issuer"`
	ClientIP        string          `gorm:"column:client_ip"`
	Description     string          `gorm:"column:description"`
	UserEmail       string          `gorm:"column:user_email"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (PaymentAttemptSQLite) TableName() string {
	return "payment_attempts"
}

var _ = ginkgo.Describe("PaymentRepository", func() {
	var (
		db   *gorm.DB
		repo paymentpkg.RepositoryAPI
	)

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		// a single connection keeps every session on the same in-memory db
		sqlDB, err := db.DB()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(&PaymentAttemptSQLite{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewPaymentRepository(db)
	})

	newPendingAttempt := func(orderID string) *payment.PaymentAttempt {
		attempt := &payment.PaymentAttempt{
			OrderID:   orderID,
			Amount:    decimal.RequireFromString("45.10"),
			Currency:  "504",
			Status:    payment.StatusPending,
			UserEmail: "amina@mail.com",
		}
		err := repo.Create(attempt)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(attempt.ID).ToNot(gomega.BeZero())
		return attempt
	}

	ginkgo.Describe("Create and lookups", func() {
		ginkgo.It("round-trips an attempt by order id", func() {
			attempt := newPendingAttempt("DT1700000000_abcd1234")

			found, err := repo.GetByOrderID(attempt.OrderID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found.ID).To(gomega.Equal(attempt.ID))
			gomega.Expect(found.Status).To(gomega.Equal(payment.StatusPending))
			gomega.Expect(found.Amount.Equal(decimal.RequireFromString("45.10"))).To(gomega.BeTrue())
		})

		ginkgo.It("rejects a duplicate order id", func() {
			newPendingAttempt("DT1700000000_abcd1234")

			err := repo.Create(&payment.PaymentAttempt{
				OrderID:   "DT1700000000_abcd1234",
				Amount:    decimal.RequireFromString("10.00"),
				Currency:  "504",
				Status:    payment.StatusPending,
				UserEmail: "other@mail.com",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("returns an error for an unknown order id", func() {
			_, err := repo.GetByOrderID("DT0_missing")
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("finds an attempt by transaction id after the transition", func() {
			attempt := newPendingAttempt("DT1700000001_cafe0001")

			ok, err := repo.MarkTerminal(attempt.ID, payment.StatusCompleted, paymentpkg.CallbackMeta{
				TransactionID: "TX-777",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			found, err := repo.GetByTransactionID("TX-777")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(found.ID).To(gomega.Equal(attempt.ID))
		})
	})

	ginkgo.Describe("MarkTerminal", func() {
		ginkgo.It("transitions a pending attempt and stores the gateway metadata", func() {
			attempt := newPendingAttempt("DT1700000002_cafe0002")

			ok, err := repo.MarkTerminal(attempt.ID, payment.StatusCompleted, paymentpkg.CallbackMeta{
				TransactionID: "TX-1",
				ResponseCode:  "00",
				ApprovalCode:  "A12345",
				CardBrand:     "VISA",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			updated, err := repo.GetByID(attempt.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Status).To(gomega.Equal(payment.StatusCompleted))
			gomega.Expect(*updated.TransactionID).To(gomega.Equal("TX-1"))
			gomega.Expect(*updated.ApprovalCode).To(gomega.Equal("A12345"))
			gomega.Expect(*updated.CardBrand).To(gomega.Equal("VISA"))
		})

		ginkgo.It("refuses to touch an attempt that is already terminal", func() {
			attempt := newPendingAttempt("DT1700000003_cafe0003")

			ok, err := repo.MarkTerminal(attempt.ID, payment.StatusFailed, paymentpkg.CallbackMeta{ResponseCode: "99"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeTrue())

			ok, err = repo.MarkTerminal(attempt.ID, payment.StatusCompleted, paymentpkg.CallbackMeta{ResponseCode: "00"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())

			current, err := repo.GetByID(attempt.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(current.Status).To(gomega.Equal(payment.StatusFailed))
		})

		ginkgo.It("returns false for an unknown id", func() {
			ok, err := repo.MarkTerminal(99999, payment.StatusCompleted, paymentpkg.CallbackMeta{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.BeFalse())
		})

		ginkgo.It("lets exactly one concurrent transition win", func() {
			attempt := newPendingAttempt("DT1700000004_cafe0004")

			const attempts = 10
			wins := make([]bool, attempts)
			errs := make([]error, attempts)

			var wg sync.WaitGroup
			for i := 0; i < attempts; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					wins[i], errs[i] = repo.MarkTerminal(attempt.ID, payment.StatusCompleted, paymentpkg.CallbackMeta{
						TransactionID: "TX-RACE",
					})
				}(i)
			}
			wg.Wait()

			winners := 0
			for i := 0; i < attempts; i++ {
				gomega.Expect(errs[i]).ToNot(gomega.HaveOccurred())
				if wins[i] {
					winners++
				}
			}
			gomega.Expect(winners).To(gomega.Equal(1))
		})
	})

	ginkgo.Describe("CountByStatus", func() {
		ginkgo.It("groups attempts by status", func() {
			a := newPendingAttempt("DT1700000005_cafe0005")
			newPendingAttempt("DT1700000006_cafe0006")

			_, err := repo.MarkTerminal(a.ID, payment.StatusCompleted, paymentpkg.CallbackMeta{})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			counts, err := repo.CountByStatus()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(counts[payment.StatusCompleted]).To(gomega.Equal(int64(1)))
			gomega.Expect(counts[payment.StatusPending]).To(gomega.Equal(int64(1)))
		})
	})
})
