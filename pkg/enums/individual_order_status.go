package enums

import "fmt"

// IndividualOrderStatus tracks a member's own order inside a group.
type IndividualOrderStatus string

const (
	IndividualOrderStatusUnpaid           IndividualOrderStatus = "unpaid"
	IndividualOrderStatusAwaitingShipment IndividualOrderStatus = "awaiting_shipment"
	IndividualOrderStatusShipped          IndividualOrderStatus = "shipped"
	IndividualOrderStatusAwaitingComment  IndividualOrderStatus = "awaiting_comment"
	IndividualOrderStatusCommented        IndividualOrderStatus = "commented"
	IndividualOrderStatusRefundApplying   IndividualOrderStatus = "refund_applying"
	IndividualOrderStatusRefundFinished   IndividualOrderStatus = "refund_finished"
)

var validIndividualOrderStatuses = []IndividualOrderStatus{
	IndividualOrderStatusUnpaid,
	IndividualOrderStatusAwaitingShipment,
	IndividualOrderStatusShipped,
	IndividualOrderStatusAwaitingComment,
	IndividualOrderStatusCommented,
	IndividualOrderStatusRefundApplying,
	IndividualOrderStatusRefundFinished,
}

// String implements fmt.Stringer.
func (s IndividualOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known IndividualOrderStatus.
func (s IndividualOrderStatus) IsValid() bool {
	for _, candidate := range validIndividualOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// InRefund reports whether a refund has been requested or completed.
func (s IndividualOrderStatus) InRefund() bool {
	return s == IndividualOrderStatusRefundApplying || s == IndividualOrderStatusRefundFinished
}

// ParseIndividualOrderStatus converts raw input into an IndividualOrderStatus.
func ParseIndividualOrderStatus(value string) (IndividualOrderStatus, error) {
	for _, candidate := range validIndividualOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid individual order status %q", value)
}
