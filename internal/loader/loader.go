// Package loader turns the raw prospect-corpus document into normalized
// Company records and overlays persisted user edits so they survive a
// refresh of the base dataset.
package loader

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/model"
)

// corpusDocument is the shape of the mined email-corpus export: a map
// of prospect name → aggregate record.
type corpusDocument struct {
	FilteredProspects map[string]prospectRecord `json:"filtered_prospects"`
	LastUpdated       string                    `json:"last_updated"`
}

type prospectRecord struct {
	Category          string        `json:"category"`
	TotalEmails       int           `json:"total_emails"`
	BusinessScore     int           `json:"business_score"`
	ConversationScore int           `json:"conversation_score"`
	OverallScore      int           `json:"overall_score"`
	FirstContact      string        `json:"first_contact"`
	LatestContact     string        `json:"latest_contact"`
	RelevantEmails    []corpusEmail `json:"relevant_emails"`
}

type corpusEmail struct {
	Date     string   `json:"date"`
	Subject  string   `json:"subject"`
	Type     string   `json:"type"`
	Keywords []string `json:"keywords"`
	From     string   `json:"from"`
}

// ParseCorpus decodes the corpus document into Company records.
// Missing or malformed fields default to zero values; only an
// undecodable document is an error. Record order follows no particular
// key order, so callers needing determinism sort afterwards.
func ParseCorpus(raw []byte, now time.Time) ([]model.Company, error) {
	var doc corpusDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "loader: decode corpus")
	}

	companies := make([]model.Company, 0, len(doc.FilteredProspects))
	for name, rec := range doc.FilteredProspects {
		companies = append(companies, normalize(name, rec, now))
	}

	zap.L().Info("loader: corpus parsed", zap.Int("companies", len(companies)))
	return companies, nil
}

// LoadFile reads and parses a corpus document from disk.
func LoadFile(path string, now time.Time) ([]model.Company, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", path)
	}
	return ParseCorpus(raw, now)
}

func normalize(name string, rec prospectRecord, now time.Time) model.Company {
	category := model.Category(rec.Category)
	if rec.Category == "" {
		category = model.CategoryProspect
	}

	var primaryEmail string
	if len(rec.RelevantEmails) > 0 {
		primaryEmail = rec.RelevantEmails[0].From
	}
	contact := model.Contact{
		ID:        uuid.New().String(),
		LastName:  name,
		Email:     primaryEmail,
		IsPrimary: true,
	}

	emails := make([]model.Email, 0, len(rec.RelevantEmails))
	for _, e := range rec.RelevantEmails {
		emailType := model.EmailType(e.Type)
		if e.Type == "" {
			emailType = model.EmailBusiness
		}
		emails = append(emails, model.Email{
			ID:        uuid.New().String(),
			Date:      parseTime(e.Date, now),
			Subject:   e.Subject,
			Type:      emailType,
			Keywords:  append([]string(nil), e.Keywords...),
			Direction: model.DirectionIncoming,
		})
	}

	return model.Company{
		ID:       uuid.New().String(),
		Name:     name,
		Category: category,
		Status:   model.StatusLead,
		Priority: derivePriority(rec.OverallScore),

		Contacts: []model.Contact{contact},

		TotalEmails:       rec.TotalEmails,
		BusinessScore:     rec.BusinessScore,
		ConversationScore: rec.ConversationScore,
		OverallScore:      rec.OverallScore,

		FirstContact:  parseTime(rec.FirstContact, now),
		LatestContact: parseTime(rec.LatestContact, now),

		Emails:    emails,
		FollowUps: []model.FollowUp{},
		Quotes:    []model.Quote{},
		Tags:      []string{},

		CreatedAt:    now,
		UpdatedAt:    now,
		CustomFields: map[string]any{},
	}
}

// derivePriority buckets the mined overall score into an urgency tag.
func derivePriority(overallScore int) model.Priority {
	switch {
	case overallScore > 1000:
		return model.PriorityHot
	case overallScore > 500:
		return model.PriorityWarm
	default:
		return model.PriorityCold
	}
}

// parseTime accepts the timestamp formats seen in corpus exports,
// falling back to the load instant for anything unparsable.
func parseTime(s string, fallback time.Time) time.Time {
	if s == "" {
		return fallback
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}
