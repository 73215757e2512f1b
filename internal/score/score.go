// Package score computes numeric lead scores from a company's
// interaction history. Two divergent formulas exist in production use;
// both are kept as named strategies rather than merged, selectable by
// the caller.
package score

import (
	"math"
	"time"

	"github.com/sells-group/prospect-crm/internal/model"
)

// Strategy computes a lead score from a company snapshot at the given
// evaluation instant. Strategies are pure: no side effects, missing
// numeric fields count as zero.
type Strategy func(c model.Company, now time.Time) int

// Named strategy identifiers accepted by ByName.
const (
	StrategyWeighted     = "weighted"
	StrategyRecencyBoost = "recency_boost"
)

// ByName resolves a strategy identifier, defaulting to Weighted for
// unknown names.
func ByName(name string) Strategy {
	if name == StrategyRecencyBoost {
		return RecencyBoost
	}
	return Weighted
}

// bonusCategories attract the category bonus in the Weighted strategy.
var bonusCategories = map[model.Category]bool{
	model.CategoryFood:          true,
	model.CategoryManufacturing: true,
	model.CategoryConstruction:  true,
}

// Weighted is the authoritative lead score: a weighted sum of email
// volume, conversation quality and business relevance, with recency,
// category and follow-up discipline bonuses.
func Weighted(c model.Company, now time.Time) int {
	score := float64(c.TotalEmails)*2 +
		float64(c.ConversationScore)*3 +
		float64(c.BusinessScore)*5

	switch days := DaysSinceContact(c, now); {
	case days < 7:
		score += 20
	case days < 30:
		score += 10
	}

	if bonusCategories[c.Category] {
		score += 15
	}

	if total := len(c.FollowUps); total > 0 {
		completed := 0
		for _, f := range c.FollowUps {
			if f.Completed {
				completed++
			}
		}
		score += float64(completed) / float64(total) * 10
	}

	return int(math.Round(score))
}

// RecencyBoost is the legacy board variant: it starts from the stored
// overall score and applies stronger recency boosts plus flat bonuses
// when the component scores clear fixed thresholds.
func RecencyBoost(c model.Company, now time.Time) int {
	score := float64(c.OverallScore)

	switch days := DaysSinceContact(c, now); {
	case days < 30:
		score += 50
	case days < 90:
		score += 25
	}

	if c.BusinessScore > 10 {
		score += 25
	}
	if c.ConversationScore > 5 {
		score += 15
	}

	return int(math.Round(score))
}

// priorityWeights orders companies by urgency tag.
var priorityWeights = map[model.Priority]float64{
	model.PriorityHot:  100,
	model.PriorityWarm: 50,
	model.PriorityCold: 10,
}

// PriorityRank orders companies for attention: urgency tag, tag volume,
// overdue follow-ups, then overall score as a tiebreaker. Used by list
// sorting, not stored on the company.
func PriorityRank(c model.Company, now time.Time) int {
	rank := priorityWeights[c.Priority]
	rank += float64(len(c.Tags)) * 20

	for _, f := range c.FollowUps {
		if !f.Completed && f.DueDate.Before(now) {
			rank += 200
			break
		}
	}

	rank += float64(c.OverallScore) / 10
	return int(math.Round(rank))
}

// DaysSinceContact returns whole days elapsed since the company's
// latest contact, truncated. A zero LatestContact yields a very large
// value so recency bonuses never apply.
func DaysSinceContact(c model.Company, now time.Time) int {
	if c.LatestContact.IsZero() {
		return math.MaxInt32
	}
	return int(now.Sub(c.LatestContact).Hours() / 24)
}
