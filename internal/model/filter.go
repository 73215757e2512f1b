package model

import "time"

// DateRange bounds latestContact inclusively. A zero Start or End marks
// the range malformed and the axis is skipped.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FilterCriteria is a sparse filter specification. A nil/empty slice or
// nil pointer means no constraint on that axis.
type FilterCriteria struct {
	Categories        []Category `json:"categories,omitempty"`
	Statuses          []Status   `json:"statuses,omitempty"`
	Priorities        []Priority `json:"priorities,omitempty"`
	MinScore          *int       `json:"min_score,omitempty"`
	MaxScore          *int       `json:"max_score,omitempty"`
	HasRecentActivity bool       `json:"has_recent_activity,omitempty"`
	DateRange         *DateRange `json:"date_range,omitempty"`
	Tags              []string   `json:"tags,omitempty"`
	SearchQuery       string     `json:"search_query,omitempty"`
}

// IsZero reports whether no axis is constrained.
func (f FilterCriteria) IsZero() bool {
	return len(f.Categories) == 0 && len(f.Statuses) == 0 &&
		len(f.Priorities) == 0 && f.MinScore == nil && f.MaxScore == nil &&
		!f.HasRecentActivity && f.DateRange == nil && len(f.Tags) == 0 &&
		f.SearchQuery == ""
}

// BulkAction names a transform applied across a set of companies.
type BulkAction string

const (
	BulkUpdateStatus     BulkAction = "updateStatus"
	BulkUpdatePriority   BulkAction = "updatePriority"
	BulkAddTag           BulkAction = "addTag"
	BulkScheduleFollowUp BulkAction = "scheduleFollowUp"
	BulkDelete           BulkAction = "delete"
)

// BulkOperation applies one action to every listed company id. Data
// carries the action payload: status, priority, tag, or follow-up
// type/description.
type BulkOperation struct {
	Action     BulkAction     `json:"action"`
	CompanyIDs []string       `json:"company_ids"`
	Data       map[string]any `json:"data"`
}
