package postgres

import (
	"gorm.io/gorm"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/ticket"
	ticketpkg "github.com/mouhcinecherqui/devtech-sub000/internal/ticket"
)

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) ticketpkg.RepositoryAPI {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(t *ticket.Ticket) error {
	return r.db.Create(t).Error
}

func (r *TicketRepository) GetByID(id int64) (*ticket.Ticket, error) {
	var t ticket.Ticket
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) GetByPaymentAttemptID(attemptID int64) (*ticket.Ticket, error) {
	var t ticket.Ticket
	if err := r.db.Where("payment_attempt_id = ?", attemptID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepository) Save(t *ticket.Ticket) error {
	return r.db.Save(t).Error
}

func (r *TicketRepository) GetPendingPaymentTickets(limit int) ([]*ticket.Ticket, error) {
	var tickets []*ticket.Ticket
	err := r.db.
		Where("payment_status = ? AND payment_attempt_id IS NOT NULL", ticket.PaymentStatusPending).
		Order("updated_at ASC").
		Limit(limit).
		Find(&tickets).Error
	return tickets, err
}
