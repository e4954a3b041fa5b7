package grouporders

import (
	"time"

	"github.com/angelmondragon/pintuan-backend/pkg/db/models"
)

// DueForClosing returns the groups whose close deadline is at or before now,
// in input order. The input slice is left untouched.
func DueForClosing(groups []models.GroupOrder, now time.Time) []models.GroupOrder {
	due := make([]models.GroupOrder, 0, len(groups))
	for _, group := range groups {
		if !group.CloseDeadline.After(now) {
			due = append(due, group)
		}
	}
	return due
}
