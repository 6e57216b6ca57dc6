package fanout

import (
	"fmt"
	"strings"
	"time"

	"github.com/afikmenashe/roadcrew/internal/events"
	"github.com/afikmenashe/roadcrew/internal/preferences"
)

// urgentDays is the furthest associated date that still gets an urgency label.
const urgentDays = 3

// UrgencyLabel names how soon a dated change applies: TODAY, TOMORROW or
// "in N days" up to urgentDays out. Other dates get no label.
func UrgencyLabel(date *time.Time, today time.Time) string {
	if date == nil {
		return ""
	}
	days := preferences.DaysOut(*date, today)
	switch {
	case days < 0 || days > urgentDays:
		return ""
	case days == 0:
		return "TODAY"
	case days == 1:
		return "TOMORROW"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// Compose builds the inbox text for a change.
func Compose(e *events.ChangeEvent, today time.Time) string {
	var parts []string
	if tags := e.ImpactTags(); len(tags) > 0 {
		parts = append(parts, strings.Join(tags, " "))
	}
	if label := UrgencyLabel(e.AssociatedDate, today); label != "" {
		parts = append(parts, "["+label+"]")
	}
	parts = append(parts, e.Summary)

	text := strings.Join(parts, " ")
	if e.Reason != "" {
		text += "\nReason: " + e.Reason
	}
	return text
}

// Subject builds the e-mail subject for a change.
func Subject(e *events.ChangeEvent) string {
	return fmt.Sprintf("[%s] %s", e.ResolvedSeverity(), e.Summary)
}
