package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeGroupClosed      NotificationType = "group_closed"
	NotificationTypeOrderShipped     NotificationType = "order_shipped"
	NotificationTypeReceiptConfirmed NotificationType = "receipt_confirmed"
	NotificationTypeRefundRequested  NotificationType = "refund_requested"
	NotificationTypeRefundApproved   NotificationType = "refund_approved"
	NotificationTypeRefundRejected   NotificationType = "refund_rejected"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeGroupClosed,
	NotificationTypeOrderShipped,
	NotificationTypeReceiptConfirmed,
	NotificationTypeRefundRequested,
	NotificationTypeRefundApproved,
	NotificationTypeRefundRejected,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
