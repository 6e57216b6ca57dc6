package reminder

import (
	"fmt"
	"math"
	"time"

	"github.com/afikmenashe/roadcrew/internal/database"
)

var remindLabels = map[string]string{
	database.RemindLoadIn:     "Load-in",
	database.RemindSoundcheck: "Soundcheck",
	database.RemindDoors:      "Doors",
	database.RemindShow:       "Show",
	database.RemindCurfew:     "Curfew",
}

// reminderBody builds the SMS text for an event reminder.
func reminderBody(event *database.ScheduleEvent, remindType string, target, now time.Time, loc *time.Location) string {
	label, ok := remindLabels[remindType]
	if !ok {
		label = remindType
	}
	minutes := int(math.Round(target.Sub(now).Minutes()))
	return fmt.Sprintf("Reminder: %s for %s at %s (in %d min)",
		label, event.Title, target.In(loc).Format("15:04"), minutes)
}
