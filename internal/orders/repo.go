package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// Repository defines persistence operations for individual orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.IndividualOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.IndividualOrder, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.IndividualOrder, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.IndividualOrderStatus, updates map[string]any) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an individual orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.IndividualOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.IndividualOrder, error) {
	var order models.IndividualOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns a shopper's orders, newest first.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.IndividualOrder, error) {
	var list []models.IndividualOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateIfStatus applies updates only while the stored status still equals
// from. It reports whether the row changed.
func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.IndividualOrderStatus, updates map[string]any) (bool, error) {
	values := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		values[k] = v
	}
	values["updated_at"] = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&models.IndividualOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
