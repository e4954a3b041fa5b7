package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// GroupOrder is a pin-tuan group that members join until its close deadline.
// SettledTotal and ActualFinishTime stay nil until the group is finished.
type GroupOrder struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Status           enums.GroupOrderStatus `gorm:"column:status;type:group_order_status;not null;default:'pending'"`
	CloseDeadline    time.Time              `gorm:"column:close_deadline;not null"`
	SettledTotal     *decimal.Decimal       `gorm:"column:settled_total;type:numeric(12,2)"`
	ActualFinishTime *time.Time             `gorm:"column:actual_finish_time"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

func (GroupOrder) TableName() string {
	return "group_orders"
}
