package enums

import "fmt"

// GroupOrderStatus tracks the lifecycle of a pin-tuan group order.
type GroupOrderStatus string

const (
	GroupOrderStatusPending  GroupOrderStatus = "pending"
	GroupOrderStatusOpen     GroupOrderStatus = "open"
	GroupOrderStatusFinished GroupOrderStatus = "finished"
	GroupOrderStatusCanceled GroupOrderStatus = "canceled"
)

var validGroupOrderStatuses = []GroupOrderStatus{
	GroupOrderStatusPending,
	GroupOrderStatusOpen,
	GroupOrderStatusFinished,
	GroupOrderStatusCanceled,
}

// String implements fmt.Stringer.
func (s GroupOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known GroupOrderStatus.
func (s GroupOrderStatus) IsValid() bool {
	for _, candidate := range validGroupOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s GroupOrderStatus) IsTerminal() bool {
	return s == GroupOrderStatusFinished || s == GroupOrderStatusCanceled
}

// ParseGroupOrderStatus converts raw input into a GroupOrderStatus.
func ParseGroupOrderStatus(value string) (GroupOrderStatus, error) {
	for _, candidate := range validGroupOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group order status %q", value)
}
