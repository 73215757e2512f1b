// Package classify decides whether a single email message is business
// relevant, what category it falls into, and how strongly it matches
// the configured keyword lists.
package classify

import (
	"strings"

	"github.com/sells-group/prospect-crm/internal/config"
	"github.com/sells-group/prospect-crm/internal/model"
)

// Result is the outcome of analyzing one message.
type Result struct {
	BusinessRelevant bool            `json:"business_relevant"`
	Keywords         []string        `json:"keywords"`
	Type             model.EmailType `json:"type"`
	Score            int             `json:"score"`
}

// Classifier scans subject/body text against keyword and exclusion
// lists. Stateless; safe for concurrent use.
type Classifier struct {
	keywords   []string
	exclusions []string
}

// New builds a Classifier from the configured word lists.
func New(cfg config.KeywordsConfig) *Classifier {
	return &Classifier{
		keywords:   cfg.Business,
		exclusions: cfg.ExclusionPatterns,
	}
}

// Classify analyzes a message. Exclusion patterns take absolute
// precedence: any match short-circuits to a non-relevant general result.
func (cl *Classifier) Classify(subject, body string) Result {
	text := strings.ToLower(subject + " " + body)

	for _, pattern := range cl.exclusions {
		if strings.Contains(text, strings.ToLower(pattern)) {
			return Result{Keywords: []string{}, Type: model.EmailGeneral}
		}
	}

	var found []string
	for _, kw := range cl.keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}

	emailType := model.EmailGeneral
	switch {
	case containsAny(text, "quote", "proposal", "bid"):
		emailType = model.EmailQuote
	case containsAny(text, "follow up", "follow-up"):
		emailType = model.EmailFollowUp
	case containsAny(text, "project", "installation"):
		emailType = model.EmailProject
	case len(found) > 0:
		emailType = model.EmailBusiness
	}

	score := len(found) * 10
	if emailType != model.EmailGeneral {
		score += 20
	}

	return Result{
		BusinessRelevant: len(found) > 0 || emailType != model.EmailGeneral,
		Keywords:         found,
		Type:             emailType,
		Score:            score,
	}
}

// containsAny checks if s contains any of the given substrings.
func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
