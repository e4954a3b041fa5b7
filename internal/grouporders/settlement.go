package grouporders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/pintuan-backend/internal/notifications"
	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
	"github.com/angelmondragon/pintuan-backend/pkg/enums"
)

// AnomalyUnpaid marks a member that was still unpaid when its group closed.
const AnomalyUnpaid = "unpaid"

// Anomaly is a member excluded from a settlement. It is data, not a failure:
// the group still closes.
type Anomaly struct {
	GroupOrderID      uuid.UUID
	IndividualOrderID uuid.UUID
	UserID            uuid.UUID
	Reason            string
}

// Settlement is the outcome of closing one group.
type Settlement struct {
	Group         models.GroupOrder
	Notifications []notifications.Task
	Anomalies     []Anomaly
	MemberCount   int
}

// Settle finalizes a due group from its members. Paid members contribute their
// TotalPrice and receive a group_closed task. Unpaid members become anomalies.
// MemberCount counts every member, anomalies included. group and members are
// not mutated, and the caller guarantees group.CloseDeadline <= now.
func Settle(group models.GroupOrder, members []models.IndividualOrder, now time.Time) Settlement {
	total := decimal.Zero
	groupID := group.ID
	memberCount := len(members)

	var (
		tasks     []notifications.Task
		anomalies []Anomaly
	)
	for _, member := range members {
		if !member.Paid {
			anomalies = append(anomalies, Anomaly{
				GroupOrderID:      group.ID,
				IndividualOrderID: member.ID,
				UserID:            member.UserID,
				Reason:            AnomalyUnpaid,
			})
			continue
		}
		total = total.Add(member.TotalPrice)
		tasks = append(tasks, notifications.Task{
			Kind:              enums.NotificationTypeGroupClosed,
			UserID:            member.UserID,
			GroupOrderID:      &groupID,
			IndividualOrderID: member.ID,
			MemberCount:       memberCount,
			Amount:            member.TotalPrice,
		})
	}

	finishedAt := now
	settled := group
	settled.Status = enums.GroupOrderStatusFinished
	settled.SettledTotal = &total
	settled.ActualFinishTime = &finishedAt

	return Settlement{
		Group:         settled,
		Notifications: tasks,
		Anomalies:     anomalies,
		MemberCount:   memberCount,
	}
}
