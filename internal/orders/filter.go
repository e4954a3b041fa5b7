package orders

import (
	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// OrderType is the order list tab a shopper selects.
type OrderType int

const (
	OrderTypeAll OrderType = iota
	OrderTypeUnpaid
	OrderTypeAwaitingShipment
	OrderTypeAwaitingReceipt
	OrderTypeAwaitingComment
	OrderTypeCompleted
	OrderTypeRefundApplying
	OrderTypeRefundFinished
)

// IsValid reports whether t is a known tab.
func (t OrderType) IsValid() bool {
	return t >= OrderTypeAll && t <= OrderTypeRefundFinished
}

var statusByOrderType = map[OrderType]enums.IndividualOrderStatus{
	OrderTypeAwaitingShipment: enums.IndividualOrderStatusAwaitingShipment,
	OrderTypeAwaitingReceipt:  enums.IndividualOrderStatusShipped,
	OrderTypeAwaitingComment:  enums.IndividualOrderStatusAwaitingComment,
	OrderTypeCompleted:        enums.IndividualOrderStatusCommented,
	OrderTypeRefundApplying:   enums.IndividualOrderStatusRefundApplying,
	OrderTypeRefundFinished:   enums.IndividualOrderStatusRefundFinished,
}

// FilterByOrderType returns the orders belonging to the given tab in a new
// slice. Unknown tabs match nothing.
func FilterByOrderType(list []models.IndividualOrder, orderType OrderType) []models.IndividualOrder {
	out := make([]models.IndividualOrder, 0, len(list))
	switch orderType {
	case OrderTypeAll:
		return append(out, list...)
	case OrderTypeUnpaid:
		for _, order := range list {
			if !order.Paid {
				out = append(out, order)
			}
		}
		return out
	}

	status, ok := statusByOrderType[orderType]
	if !ok {
		return out
	}
	for _, order := range list {
		if order.Status == status {
			out = append(out, order)
		}
	}
	return out
}
