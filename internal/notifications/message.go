package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// Render produces the user-facing title and body for a task.
func Render(task Task) (string, string) {
	amount := task.Amount.StringFixed(2)
	order := task.IndividualOrderID.String()

	switch task.Kind {
	case enums.NotificationTypeGroupClosed:
		group := ""
		if task.GroupOrderID != nil {
			group = task.GroupOrderID.String()
		}
		return "Group order closed",
			fmt.Sprintf("Group order %s closed with %d members. Your order %s of %s is confirmed.", group, task.MemberCount, order, amount)
	case enums.NotificationTypeOrderShipped:
		if task.DeliveryType.RequiresTracking() {
			return "Order shipped",
				fmt.Sprintf("Order %s shipped with %s, tracking number %s.", order, task.Carrier, task.TrackingNumber)
		}
		if task.DeliveryType == enums.DeliveryTypePickup {
			return "Order ready for pickup", fmt.Sprintf("Order %s is ready for pickup.", order)
		}
		return "Order out for delivery", fmt.Sprintf("Order %s is on its way.", order)
	case enums.NotificationTypeReceiptConfirmed:
		return "Receipt confirmed",
			fmt.Sprintf("Order %s was received. Leave a review when you are ready.", order)
	case enums.NotificationTypeRefundRequested:
		return "Refund requested",
			fmt.Sprintf("Your refund of %s for order %s is under review.", amount, order)
	case enums.NotificationTypeRefundApproved:
		return "Refund approved",
			fmt.Sprintf("Your refund of %s for order %s has been completed.", amount, order)
	case enums.NotificationTypeRefundRejected:
		msg := fmt.Sprintf("Your refund for order %s was rejected.", order)
		if reason := strings.TrimSpace(task.Reason); reason != "" {
			msg = fmt.Sprintf("%s Reason: %s", msg, reason)
		}
		return "Refund rejected", msg
	}
	return "Order update", fmt.Sprintf("Order %s was updated.", order)
}
