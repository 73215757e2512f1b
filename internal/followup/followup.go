// Package followup computes follow-up due dates and encodes them as
// one-shot cron expressions for the external reminder sink.
package followup

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-crm/internal/model"
)

// ErrCustomDateRequired rejects a custom follow-up without a date; the
// degenerate fallback would be a follow-up due immediately.
var ErrCustomDateRequired = eris.New("followup: custom follow-up requires a date")

// Schedule builds a FollowUp due relative to now. A 1-month follow-up
// uses calendar-month addition per time.Time.AddDate, so Jan 31 + 1
// month normalizes past the end of February.
func Schedule(companyID string, typ model.FollowUpType, description string, customDate time.Time, now time.Time) (model.FollowUp, error) {
	var due time.Time
	switch typ {
	case model.FollowUpOneWeek:
		due = now.AddDate(0, 0, 7)
	case model.FollowUpTwoWeeks:
		due = now.AddDate(0, 0, 14)
	case model.FollowUpOneMonth:
		due = now.AddDate(0, 1, 0)
	case model.FollowUpCustom:
		if customDate.IsZero() {
			return model.FollowUp{}, ErrCustomDateRequired
		}
		due = customDate
	default:
		return model.FollowUp{}, eris.Errorf("followup: unknown type %q", typ)
	}

	return model.FollowUp{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		DueDate:     due,
		Type:        typ,
		Description: description,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CronExpr encodes the target instant as a six-field one-shot cron
// expression: minute, hour, day of month, month, any weekday, year.
func CronExpr(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d * %d",
		t.Minute(), t.Hour(), t.Day(), int(t.Month()), t.Year())
}

// Overdue reports whether an incomplete follow-up's due date has passed.
func Overdue(f model.FollowUp, now time.Time) bool {
	return !f.Completed && f.DueDate.Before(now)
}
