package followup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-crm/internal/model"
)

var schedNow = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)

func TestScheduleRelativeTypes(t *testing.T) {
	tests := []struct {
		name    string
		typ     model.FollowUpType
		wantDue time.Time
	}{
		{"one week", model.FollowUpOneWeek, schedNow.AddDate(0, 0, 7)},
		{"two weeks", model.FollowUpTwoWeeks, schedNow.AddDate(0, 0, 14)},
		{"one month", model.FollowUpOneMonth, time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Schedule("c1", tt.typ, "check in", time.Time{}, schedNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDue, f.DueDate)
			assert.Equal(t, tt.typ, f.Type)
			assert.Equal(t, "check in", f.Description)
			assert.False(t, f.Completed)
			assert.Empty(t, f.JobID)
			assert.Equal(t, schedNow, f.CreatedAt)
			assert.Equal(t, schedNow, f.UpdatedAt)
			assert.NotEmpty(t, f.ID)
		})
	}
}

func TestScheduleMonthRollover(t *testing.T) {
	// AddDate convention: Jan 31 + 1 month normalizes to Mar 3 (Feb has
	// 28 days in 2025).
	jan31 := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)
	f, err := Schedule("c1", model.FollowUpOneMonth, "month out", time.Time{}, jan31)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC), f.DueDate)
}

func TestScheduleCustom(t *testing.T) {
	custom := time.Date(2025, 12, 1, 14, 0, 0, 0, time.UTC)
	f, err := Schedule("c1", model.FollowUpCustom, "year end", custom, schedNow)
	require.NoError(t, err)
	assert.Equal(t, custom, f.DueDate)

	_, err = Schedule("c1", model.FollowUpCustom, "no date", time.Time{}, schedNow)
	assert.ErrorIs(t, err, ErrCustomDateRequired)
}

func TestScheduleUnknownType(t *testing.T) {
	_, err := Schedule("c1", model.FollowUpType("6_weeks"), "x", time.Time{}, schedNow)
	assert.Error(t, err)
}

func TestScheduleUniqueIDs(t *testing.T) {
	a, err := Schedule("c1", model.FollowUpOneWeek, "a", time.Time{}, schedNow)
	require.NoError(t, err)
	b, err := Schedule("c1", model.FollowUpOneWeek, "b", time.Time{}, schedNow)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCronExpr(t *testing.T) {
	at := time.Date(2025, 6, 22, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "30 9 22 6 * 2025", CronExpr(at))

	midnight := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "0 0 1 1 * 2026", CronExpr(midnight))
}

func TestOverdue(t *testing.T) {
	past := model.FollowUp{DueDate: schedNow.AddDate(0, 0, -1)}
	assert.True(t, Overdue(past, schedNow))

	past.Completed = true
	assert.False(t, Overdue(past, schedNow))

	future := model.FollowUp{DueDate: schedNow.AddDate(0, 0, 1)}
	assert.False(t, Overdue(future, schedNow))
}
