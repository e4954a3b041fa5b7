package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
)

const defaultListLimit = 50

// Repository exposes persistence helpers for in-app notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListByUser returns the newest notifications for a user.
func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// StoreNotifier persists tasks as in-app notification rows.
type StoreNotifier struct {
	repo Repository
}

func NewStoreNotifier(repo Repository) (*StoreNotifier, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	return &StoreNotifier{repo: repo}, nil
}

func (n *StoreNotifier) Notify(ctx context.Context, task Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	title, message := Render(task)
	orderID := task.IndividualOrderID
	row := &models.Notification{
		UserID:            task.UserID,
		Type:              task.Kind,
		Title:             title,
		Message:           message,
		GroupOrderID:      task.GroupOrderID,
		IndividualOrderID: &orderID,
	}
	if err := n.repo.Create(ctx, row); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}
