package grouporders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// Repository defines persistence operations for group orders and their members.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, group *models.GroupOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error)
	ListByStatus(ctx context.Context, status enums.GroupOrderStatus) ([]models.GroupOrder, error)
	ListMembers(ctx context.Context, groupOrderID uuid.UUID) ([]models.IndividualOrder, error)
	Update(ctx context.Context, group *models.GroupOrder) error
	FinishIfOpen(ctx context.Context, settled models.GroupOrder) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a group orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, group *models.GroupOrder) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.GroupOrder, error) {
	var group models.GroupOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *repository) ListByStatus(ctx context.Context, status enums.GroupOrderStatus) ([]models.GroupOrder, error) {
	var groups []models.GroupOrder
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("close_deadline ASC, id ASC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ListMembers returns the individual orders of a group in join order.
func (r *repository) ListMembers(ctx context.Context, groupOrderID uuid.UUID) ([]models.IndividualOrder, error) {
	var members []models.IndividualOrder
	err := r.db.WithContext(ctx).
		Where("group_order_id = ?", groupOrderID).
		Order("created_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// Update writes every column of group unconditionally.
func (r *repository) Update(ctx context.Context, group *models.GroupOrder) error {
	return r.db.WithContext(ctx).Save(group).Error
}

// FinishIfOpen persists a settlement only while the stored row is still open.
// It reports false when another run already moved the group on.
func (r *repository) FinishIfOpen(ctx context.Context, settled models.GroupOrder) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.GroupOrder{}).
		Where("id = ? AND status = ?", settled.ID, enums.GroupOrderStatusOpen).
		Updates(map[string]any{
			"status":             enums.GroupOrderStatusFinished,
			"settled_total":      settled.SettledTotal,
			"actual_finish_time": settled.ActualFinishTime,
			"updated_at":         time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
