// Package export flattens the company collection into CSV or JSON for
// download and reporting.
package export

import (
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-crm/internal/model"
)

var csvHeader = []string{
	"Company Name", "Category", "Status", "Priority", "Score",
	"Total Emails", "First Contact", "Latest Contact", "Primary Contact",
	"Email", "Phone", "Notes", "Tags", "Next Follow-Up",
}

// CSV renders the companies as RFC 4180 CSV. Internal quotes are
// doubled by the writer; newlines in free text collapse to spaces.
func CSV(companies []model.Company) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return "", eris.Wrap(err, "export: write header")
	}

	for _, c := range companies {
		var contactName, contactEmail, contactPhone string
		if primary, ok := c.PrimaryContact(); ok {
			contactName = strings.TrimSpace(primary.FirstName + " " + primary.LastName)
			contactEmail = primary.Email
			contactPhone = primary.Phone
		}

		var nextDue string
		if next, ok := c.NextFollowUp(); ok {
			nextDue = next.DueDate.Format(time.RFC3339)
		}

		row := []string{
			c.Name,
			string(c.Category),
			string(c.Status),
			string(c.Priority),
			strconv.Itoa(c.OverallScore),
			strconv.Itoa(c.TotalEmails),
			formatTime(c.FirstContact),
			formatTime(c.LatestContact),
			contactName,
			contactEmail,
			contactPhone,
			flattenText(c.Notes),
			strings.Join(c.Tags, "; "),
			nextDue,
		}
		if err := w.Write(row); err != nil {
			return "", eris.Wrapf(err, "export: write row for %s", c.Name)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", eris.Wrap(err, "export: flush")
	}
	return sb.String(), nil
}

// document is the structured export shape, mirroring the dashboard's
// load format with a derived statistics block.
type document struct {
	Companies   []model.Company `json:"companies"`
	Statistics  statistics      `json:"statistics"`
	LastUpdated time.Time       `json:"last_updated"`
}

type statistics struct {
	TotalProspects  int     `json:"total_prospects"`
	ActiveProspects int     `json:"active_prospects"`
	TotalEmails     int     `json:"total_emails"`
	ConversionRate  float64 `json:"conversion_rate"`
}

// JSON renders the companies as an indented document with aggregate
// statistics. Active means not Lost; conversion is Won over total.
func JSON(companies []model.Company, now time.Time) ([]byte, error) {
	stats := statistics{TotalProspects: len(companies)}
	won := 0
	for _, c := range companies {
		stats.TotalEmails += c.TotalEmails
		if c.Status != model.StatusLost {
			stats.ActiveProspects++
		}
		if c.Status == model.StatusWon {
			won++
		}
	}
	if len(companies) > 0 {
		stats.ConversionRate = float64(won) / float64(len(companies))
	}

	raw, err := json.MarshalIndent(document{
		Companies:   companies,
		Statistics:  stats,
		LastUpdated: now,
	}, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "export: marshal json")
	}
	return raw, nil
}

// flattenText replaces newlines with spaces so free text stays on one
// CSV row for spreadsheet consumers.
func flattenText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
