package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/payment"
	paymentpkg "github.com/mouhcinecherqui/devtech-sub000/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(attempt *payment.PaymentAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *PaymentRepository) GetByID(id int64) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PaymentRepository) GetByOrderID(orderID string) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	if err := r.db.Where("order_id = ?", orderID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *PaymentRepository) GetByTransactionID(transactionID string) (*payment.PaymentAttempt, error) {
	var attempt payment.PaymentAttempt
	if err := r.db.Where("transaction_id = ?", transactionID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// MarkTerminal transitions an attempt out of pending with a conditional
// update. The `status = pending` guard makes concurrent deliveries of the
// same callback race safely: exactly one update matches, the rest see zero
// rows affected.
func (r *PaymentRepository) MarkTerminal(id int64, status string, meta paymentpkg.CallbackMeta) (bool, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	if meta.TransactionID != "" {
		updates["transaction_id"] = meta.TransactionID
	}
	if meta.ResponseCode != "" {
		updates["response_code"] = meta.ResponseCode
	}
	if meta.ResponseMessage != "" {
		updates["response_message"] = meta.ResponseMessage
	}
	if meta.ApprovalCode != "" {
		updates["approval_code"] = meta.ApprovalCode
	}
	if meta.CardBrand != "" {
		updates["card_brand"] = meta.CardBrand
	}
	if meta.CardIssuer != "" {
		updates["card_issuer"] = meta.CardIssuer
	}

	result := r.db.Model(&payment.PaymentAttempt{}).
		Where("id = ? AND status = ?", id, payment.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *PaymentRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&payment.PaymentAttempt{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
