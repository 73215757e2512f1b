// Package filter derives the visible subset of the company collection
// from a sparse multi-axis criteria specification.
package filter

import (
	"strings"
	"time"

	"github.com/sells-group/prospect-crm/internal/model"
)

// recentActivityWindow bounds the has-recent-activity axis.
const recentActivityWindow = 30 * 24 * time.Hour

// Apply returns the companies satisfying every present axis of the
// criteria. Order-preserving and non-mutating. The evaluation instant is
// captured once for the whole pass so time-relative axes are internally
// consistent.
func Apply(companies []model.Company, criteria model.FilterCriteria, now time.Time) []model.Company {
	out := make([]model.Company, 0, len(companies))
	if criteria.IsZero() {
		return append(out, companies...)
	}
	for _, c := range companies {
		if Matches(c, criteria, now) {
			out = append(out, c)
		}
	}
	return out
}

// Matches tests a single company against every present criterion:
// AND across axes, OR within a multi-value axis.
func Matches(c model.Company, criteria model.FilterCriteria, now time.Time) bool {
	if len(criteria.Categories) > 0 && !containsCategory(criteria.Categories, c.Category) {
		return false
	}
	if len(criteria.Statuses) > 0 && !containsStatus(criteria.Statuses, c.Status) {
		return false
	}
	if len(criteria.Priorities) > 0 && !containsPriority(criteria.Priorities, c.Priority) {
		return false
	}

	if criteria.MinScore != nil && c.OverallScore < *criteria.MinScore {
		return false
	}
	if criteria.MaxScore != nil && c.OverallScore > *criteria.MaxScore {
		return false
	}

	if criteria.HasRecentActivity && c.LatestContact.Before(now.Add(-recentActivityWindow)) {
		return false
	}

	// A malformed range (zero bound) disables the axis rather than failing.
	if r := criteria.DateRange; r != nil && !r.Start.IsZero() && !r.End.IsZero() {
		if c.LatestContact.Before(r.Start) || c.LatestContact.After(r.End) {
			return false
		}
	}

	if len(criteria.Tags) > 0 {
		matched := false
		for _, tag := range criteria.Tags {
			if c.HasTag(tag) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if q := criteria.SearchQuery; q != "" {
		if !strings.Contains(searchCorpus(c), strings.ToLower(q)) {
			return false
		}
	}

	return true
}

// searchCorpus flattens a company's searchable text: name, notes,
// contacts, email subjects and tags, lowercased and space-joined.
func searchCorpus(c model.Company) string {
	parts := []string{c.Name, c.Notes}
	for _, ct := range c.Contacts {
		parts = append(parts, ct.FirstName+" "+ct.LastName+" "+ct.Email)
	}
	for _, e := range c.Emails {
		parts = append(parts, e.Subject)
	}
	parts = append(parts, c.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

func containsCategory(list []model.Category, v model.Category) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsStatus(list []model.Status, v model.Status) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsPriority(list []model.Priority, v model.Priority) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
