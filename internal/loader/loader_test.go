package loader

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/model"
)

var loadNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const sampleCorpus = `{
  "filtered_prospects": {
    "Acme Concrete": {
      "category": "Construction",
      "total_emails": 42,
      "business_score": 12,
      "conversation_score": 7,
      "overall_score": 1200,
      "first_contact": "2024-11-02T08:15:00Z",
      "latest_contact": "2025-06-10T16:40:00Z",
      "relevant_emails": [
        {
          "date": "2025-06-10T16:40:00Z",
          "subject": "Epoxy quote request",
          "type": "quote",
          "keywords": ["epoxy", "quote"],
          "from": "dana@acme.example"
        },
        {
          "date": "2025-05-01",
          "subject": "Site visit notes",
          "keywords": []
        }
      ]
    },
    "Bravo Foods": {
      "overall_score": 600
    },
    "Cobalt Services": {}
  },
  "last_updated": "2025-06-14T00:00:00Z"
}`

func parseSorted(t *testing.T, raw string) []model.Company {
	t.Helper()
	companies, err := ParseCorpus([]byte(raw), loadNow)
	require.NoError(t, err)
	sort.Slice(companies, func(i, j int) bool { return companies[i].Name < companies[j].Name })
	return companies
}

func TestParseCorpus(t *testing.T) {
	companies := parseSorted(t, sampleCorpus)
	require.Len(t, companies, 3)

	acme := companies[0]
	assert.Equal(t, "Acme Concrete", acme.Name)
	assert.Equal(t, model.CategoryConstruction, acme.Category)
	assert.Equal(t, model.StatusLead, acme.Status)
	assert.Equal(t, model.PriorityHot, acme.Priority)
	assert.Equal(t, 42, acme.TotalEmails)
	assert.Equal(t, 12, acme.BusinessScore)
	assert.Equal(t, 7, acme.ConversationScore)
	assert.Equal(t, 1200, acme.OverallScore)
	assert.Equal(t, time.Date(2024, 11, 2, 8, 15, 0, 0, time.UTC), acme.FirstContact)
	assert.NotEmpty(t, acme.ID)

	require.Len(t, acme.Contacts, 1)
	assert.True(t, acme.Contacts[0].IsPrimary)
	assert.Equal(t, "Acme Concrete", acme.Contacts[0].LastName)
	assert.Equal(t, "dana@acme.example", acme.Contacts[0].Email)

	require.Len(t, acme.Emails, 2)
	assert.Equal(t, model.EmailQuote, acme.Emails[0].Type)
	assert.Equal(t, []string{"epoxy", "quote"}, acme.Emails[0].Keywords)
	assert.Equal(t, model.DirectionIncoming, acme.Emails[0].Direction)
	// Date-only timestamps parse too.
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), acme.Emails[1].Date)
	// Untyped emails default to business.
	assert.Equal(t, model.EmailBusiness, acme.Emails[1].Type)
}

func TestParseCorpusDefaults(t *testing.T) {
	companies := parseSorted(t, sampleCorpus)

	bravo := companies[1]
	assert.Equal(t, model.CategoryProspect, bravo.Category)
	assert.Equal(t, model.PriorityWarm, bravo.Priority)
	assert.Equal(t, loadNow, bravo.FirstContact)
	assert.Equal(t, loadNow, bravo.LatestContact)
	assert.Empty(t, bravo.Emails)
	assert.NotNil(t, bravo.FollowUps)
	assert.NotNil(t, bravo.Tags)

	cobalt := companies[2]
	assert.Equal(t, 0, cobalt.OverallScore)
	assert.Equal(t, model.PriorityCold, cobalt.Priority)
	require.Len(t, cobalt.Contacts, 1)
	assert.Empty(t, cobalt.Contacts[0].Email)
}

func TestParseCorpusMalformed(t *testing.T) {
	_, err := ParseCorpus([]byte("{nope"), loadNow)
	assert.Error(t, err)

	companies, err := ParseCorpus([]byte(`{}`), loadNow)
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm-data.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCorpus), 0o644))

	companies, err := LoadFile(path, loadNow)
	require.NoError(t, err)
	assert.Len(t, companies, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"), loadNow)
	assert.Error(t, err)
}

func TestUserEditsRoundTrip(t *testing.T) {
	kv := kvstore.NewMemory()

	companies := parseSorted(t, sampleCorpus)
	acme := companies[0]
	acme.Status = model.StatusQuoted
	acme.Priority = model.PriorityWarm
	acme.Notes = "waiting on revised bid"
	acme.Tags = []string{"vip"}
	acme.FollowUps = []model.FollowUp{{
		ID: "f1", Type: model.FollowUpOneWeek, Description: "call dana",
		DueDate: loadNow.AddDate(0, 0, 7), CreatedAt: loadNow, UpdatedAt: loadNow,
	}}
	require.NoError(t, SaveUserEdits(kv, acme))

	// Simulate a corpus refresh: fresh parse, fresh ids, then merge.
	fresh := parseSorted(t, sampleCorpus)
	merged := MergeUserEdits(fresh, kv)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })

	got := merged[0]
	assert.NotEqual(t, acme.ID, got.ID, "re-import assigns fresh ids")
	assert.Equal(t, model.StatusQuoted, got.Status)
	assert.Equal(t, model.PriorityWarm, got.Priority)
	assert.Equal(t, "waiting on revised bid", got.Notes)
	assert.Equal(t, []string{"vip"}, got.Tags)
	require.Len(t, got.FollowUps, 1)
	assert.Equal(t, "call dana", got.FollowUps[0].Description)

	// Companies without edits pass through untouched.
	assert.Equal(t, model.StatusLead, merged[1].Status)
}

func TestMergeUserEditsCorruptBlob(t *testing.T) {
	kv := kvstore.NewMemory()
	require.NoError(t, kv.Set("user_edits:Bravo Foods", "{broken"))

	merged := MergeUserEdits(parseSorted(t, sampleCorpus), kv)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })
	assert.Equal(t, model.StatusLead, merged[1].Status)
	assert.Equal(t, model.PriorityWarm, merged[1].Priority)
}
