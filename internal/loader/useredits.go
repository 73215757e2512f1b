package loader

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/model"
)

// editsKeyPrefix namespaces user-edit blobs in the KV store. Edits are
// keyed by company name rather than id so they survive a corpus
// re-import, which assigns fresh ids.
const editsKeyPrefix = "user_edits:"

// UserEdits is the per-company overlay of user-entered fields.
type UserEdits struct {
	Status        model.Status     `json:"status,omitempty"`
	Priority      model.Priority   `json:"priority,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	NextAction    string           `json:"next_action,omitempty"`
	FollowUps     []model.FollowUp `json:"follow_ups,omitempty"`
	LastContacted *time.Time       `json:"last_contacted,omitempty"`
}

// SaveUserEdits persists the editable slice of a company.
func SaveUserEdits(kv kvstore.Store, c model.Company) error {
	edits := UserEdits{
		Status:    c.Status,
		Priority:  c.Priority,
		Notes:     c.Notes,
		Tags:      c.Tags,
		FollowUps: c.FollowUps,
	}
	if next, ok := c.NextFollowUp(); ok {
		edits.NextAction = next.Description
	}
	if !c.LatestContact.IsZero() {
		t := c.LatestContact
		edits.LastContacted = &t
	}

	raw, err := json.Marshal(edits)
	if err != nil {
		return eris.Wrapf(err, "loader: marshal edits for %s", c.Name)
	}
	return kv.Set(editsKeyPrefix+c.Name, string(raw))
}

// MergeUserEdits overlays persisted edits onto freshly loaded companies.
// A corrupt blob is skipped with a warning; the base record stands.
func MergeUserEdits(companies []model.Company, kv kvstore.Store) []model.Company {
	out := make([]model.Company, len(companies))
	for i, c := range companies {
		out[i] = mergeOne(c, kv)
	}
	return out
}

func mergeOne(c model.Company, kv kvstore.Store) model.Company {
	raw, ok, err := kv.Get(editsKeyPrefix + c.Name)
	if err != nil {
		zap.L().Warn("loader: read edits failed",
			zap.String("company", c.Name),
			zap.Error(err),
		)
		return c
	}
	if !ok {
		return c
	}

	var edits UserEdits
	if err := json.Unmarshal([]byte(raw), &edits); err != nil {
		zap.L().Warn("loader: skipping corrupt edits",
			zap.String("company", c.Name),
			zap.Error(err),
		)
		return c
	}

	if edits.Status != "" {
		c.Status = edits.Status
	}
	if edits.Priority != "" {
		c.Priority = edits.Priority
	}
	if edits.Notes != "" {
		c.Notes = edits.Notes
	}
	if len(edits.Tags) > 0 {
		c.Tags = append([]string(nil), edits.Tags...)
	}
	if len(edits.FollowUps) > 0 {
		c.FollowUps = append([]model.FollowUp(nil), edits.FollowUps...)
	}
	if edits.LastContacted != nil && edits.LastContacted.After(c.LatestContact) {
		c.LatestContact = *edits.LastContacted
	}
	return c
}
