package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// IndividualOrder is one member's order; it belongs to at most one group.
type IndividualOrder struct {
	ID                 uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GroupOrderID       *uuid.UUID                  `gorm:"column:group_order_id;type:uuid"`
	UserID             uuid.UUID                   `gorm:"column:user_id;type:uuid;not null"`
	Paid               bool                        `gorm:"column:paid;not null;default:false"`
	TotalPrice         decimal.Decimal             `gorm:"column:total_price;type:numeric(12,2);not null"`
	RefundPrice        *decimal.Decimal            `gorm:"column:refund_price;type:numeric(12,2)"`
	Status             enums.IndividualOrderStatus `gorm:"column:status;type:individual_order_status;not null;default:'unpaid'"`
	RefundReason       *string                     `gorm:"column:refund_reason"`
	RefundRefuseReason *string                     `gorm:"column:refund_refuse_reason"`
	DeliveryType       *enums.DeliveryType         `gorm:"column:delivery_type;type:delivery_type"`
	DeliveryCarrier    *string                     `gorm:"column:delivery_carrier"`
	DeliveryTrackingNo *string                     `gorm:"column:delivery_tracking_no"`
	ShippedAt          *time.Time                  `gorm:"column:shipped_at"`
	ConfirmReceiptAt   *time.Time                  `gorm:"column:confirm_receipt_at"`
	CreatedAt          time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (IndividualOrder) TableName() string {
	return "individual_orders"
}
