package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// Notification stores in-app notification payloads addressed to a user.
type Notification struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID              `gorm:"column:user_id;type:uuid;not null"`
	Type              enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title             string                 `gorm:"column:title;type:text;not null"`
	Message           string                 `gorm:"column:message;type:text;not null"`
	GroupOrderID      *uuid.UUID             `gorm:"column:group_order_id;type:uuid"`
	IndividualOrderID *uuid.UUID             `gorm:"column:individual_order_id;type:uuid"`
	ReadAt            *time.Time             `gorm:"column:read_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}
