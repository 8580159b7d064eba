package postgres

import (
	"gorm.io/gorm"

	"github.com/mouhcinecherqui/devtech-sub000/internal/core/datamodel/notification"
	notificationpkg "github.com/mouhcinecherqui/devtech-sub000/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notificationpkg.RepositoryAPI {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *notification.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) GetByRecipient(recipient string, limit, offset int) ([]*notification.Notification, error) {
	var notifications []*notification.Notification
	err := r.db.Where("recipient = ?", recipient).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	return notifications, err
}
