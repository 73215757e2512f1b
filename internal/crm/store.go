// Package crm holds the authoritative company collection and its
// derived views. Every mutation goes through the Store, which applies
// it atomically, runs the automation and scheduling engines where the
// operation calls for them, recomputes the filtered view, and notifies
// subscribers.
package crm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/automation"
	"github.com/sells-group/prospect-crm/internal/filter"
	"github.com/sells-group/prospect-crm/internal/followup"
	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/loader"
	"github.com/sells-group/prospect-crm/internal/model"
	"github.com/sells-group/prospect-crm/internal/reminder"
	"github.com/sells-group/prospect-crm/internal/score"
)

// Deps carries the Store's collaborators. Zero-value fields get safe
// defaults: a nil Clock falls back to time.Now, and nil sinks disable
// their integration.
type Deps struct {
	KV              kvstore.Store
	Reminder        reminder.Sink
	Engine          *automation.Engine
	Rules           []model.AutomationRule
	EnableReminders bool
	Clock           func() time.Time
}

// Store is the reducer core. All exported methods are safe for
// concurrent use, though the intended model is a single logical writer.
type Store struct {
	mu sync.Mutex

	companies []model.Company
	filtered  []model.Company
	selection map[string]struct{}
	criteria  model.FilterCriteria
	rules     []model.AutomationRule

	loadErr     error
	lastUpdated time.Time

	deps        Deps
	subscribers []func()
}

// New creates an empty Store.
func New(deps Deps) *Store {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Engine == nil {
		deps.Engine = automation.New(nil, automation.Policy{NullFromMatchesAny: true})
	}
	return &Store{
		selection: make(map[string]struct{}),
		rules:     append([]model.AutomationRule(nil), deps.Rules...),
		deps:      deps,
	}
}

// Subscribe registers fn to run after every completed mutation.
// Subscribers are called outside the store lock.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// commit recomputes the derived view under the lock, then fires
// subscribers after releasing it.
func (s *Store) commit(mutate func(now time.Time)) {
	now := s.deps.Clock()

	s.mu.Lock()
	mutate(now)
	s.filtered = filter.Apply(s.companies, s.criteria, now)
	s.lastUpdated = now
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Load replaces the entire collection and clears any load error.
func (s *Store) Load(companies []model.Company) {
	s.commit(func(now time.Time) {
		s.companies = cloneAll(companies)
		s.loadErr = nil
	})
}

// SetLoadError records a failed initial load; the collection stays
// empty so the UI can surface the message and retry.
func (s *Store) SetLoadError(err error) {
	s.commit(func(now time.Time) {
		s.loadErr = err
	})
}

// UpdateCompany replaces the record with the same id, stamping
// UpdatedAt. Unknown ids are a no-op.
func (s *Store) UpdateCompany(c model.Company) {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID == c.ID {
				updated := c.Clone()
				updated.UpdatedAt = now
				s.companies[i] = updated
				return
			}
		}
	})
}

// DeleteCompany removes the record and drops its id from the selection
// set. Unknown ids are a no-op.
func (s *Store) DeleteCompany(id string) {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID == id {
				s.companies = append(s.companies[:i], s.companies[i+1:]...)
				break
			}
		}
		delete(s.selection, id)
	})
}

// SetFilters replaces the active criteria.
func (s *Store) SetFilters(criteria model.FilterCriteria) {
	s.commit(func(now time.Time) {
		s.criteria = criteria
	})
}

// ClearFilters removes all criteria.
func (s *Store) ClearFilters() {
	s.SetFilters(model.FilterCriteria{})
}

// ToggleSelection flips the id's membership in the selection set.
// Selection is not pruned when filters change; stale ids are harmless.
func (s *Store) ToggleSelection(id string) {
	s.commit(func(now time.Time) {
		if _, ok := s.selection[id]; ok {
			delete(s.selection, id)
		} else {
			s.selection[id] = struct{}{}
		}
	})
}

// SelectAll selects every company in the current filtered view.
func (s *Store) SelectAll() {
	s.commit(func(now time.Time) {
		for _, c := range s.filtered {
			s.selection[c.ID] = struct{}{}
		}
	})
}

// ClearSelection empties the selection set.
func (s *Store) ClearSelection() {
	s.commit(func(now time.Time) {
		s.selection = make(map[string]struct{})
	})
}

// Bulk applies one operation across op.CompanyIDs. Unknown ids are
// skipped. The filtered view is recomputed once for the whole batch; a
// delete action clears the entire selection set.
func (s *Store) Bulk(op model.BulkOperation) {
	s.commit(func(now time.Time) {
		targets := make(map[string]struct{}, len(op.CompanyIDs))
		for _, id := range op.CompanyIDs {
			targets[id] = struct{}{}
		}

		if op.Action == model.BulkDelete {
			kept := s.companies[:0]
			for _, c := range s.companies {
				if _, hit := targets[c.ID]; !hit {
					kept = append(kept, c)
				}
			}
			s.companies = kept
			s.selection = make(map[string]struct{})
			return
		}

		for i := range s.companies {
			if _, hit := targets[s.companies[i].ID]; !hit {
				continue
			}
			s.applyBulkAction(&s.companies[i], op, now)
			s.companies[i].UpdatedAt = now
		}
	})
}

func (s *Store) applyBulkAction(c *model.Company, op model.BulkOperation, now time.Time) {
	switch op.Action {
	case model.BulkUpdateStatus:
		if v, ok := op.Data["status"].(string); ok {
			c.Status = model.Status(v)
		}
	case model.BulkUpdatePriority:
		if v, ok := op.Data["priority"].(string); ok {
			c.Priority = model.Priority(v)
		}
	case model.BulkAddTag:
		if tag, ok := op.Data["tag"].(string); ok && tag != "" && !c.HasTag(tag) {
			c.Tags = append(c.Tags, tag)
		}
	case model.BulkScheduleFollowUp:
		typ := model.FollowUpOneWeek
		if v, ok := op.Data["type"].(string); ok && v != "" {
			typ = model.FollowUpType(v)
		}
		description, _ := op.Data["description"].(string)
		f, err := followup.Schedule(c.ID, typ, description, time.Time{}, now)
		if err != nil {
			zap.L().Warn("crm: bulk follow-up skipped",
				zap.String("company", c.Name),
				zap.Error(err),
			)
			return
		}
		c.FollowUps = append(c.FollowUps, f)
	default:
		zap.L().Warn("crm: unknown bulk action", zap.String("action", string(op.Action)))
	}
}

// MoveToStage sets the company's pipeline status and runs the
// automation engine for the status-change event. Unknown ids are a
// no-op. The engine's nested status writes do not re-enter it.
func (s *Store) MoveToStage(ctx context.Context, id string, newStatus model.Status) {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID != id {
				continue
			}
			from := s.companies[i].Status
			c := s.companies[i].Clone()
			c.Status = newStatus
			c.UpdatedAt = now

			c, s.rules = s.deps.Engine.OnStatusChange(ctx, c, from, newStatus, s.rules, now)
			s.companies[i] = c
			return
		}
	})
}

// AddFollowUp schedules a follow-up and appends it to the company. When
// reminder integration is enabled the external sink is called first;
// its job id is attached on success and its failure is logged and
// ignored, so the follow-up is recorded either way.
func (s *Store) AddFollowUp(ctx context.Context, companyID string, typ model.FollowUpType, description string, customDate time.Time) error {
	now := s.deps.Clock()

	s.mu.Lock()
	var companyName string
	found := false
	for i := range s.companies {
		if s.companies[i].ID == companyID {
			companyName = s.companies[i].Name
			found = true
			break
		}
	}
	remindersOn := s.deps.EnableReminders
	sink := s.deps.Reminder
	s.mu.Unlock()
	if !found {
		return nil
	}

	f, err := followup.Schedule(companyID, typ, description, customDate, now)
	if err != nil {
		return eris.Wrap(err, "crm: schedule follow-up")
	}

	// The sink call happens outside the lock: a slow endpoint must not
	// block readers, and the append below is unconditional.
	if remindersOn && sink != nil {
		message := fmt.Sprintf("Follow-up due for %s: %s", companyName, f.Description)
		jobID, err := sink.CreateReminder(ctx, followup.CronExpr(f.DueDate), message)
		if err != nil {
			zap.L().Warn("crm: reminder creation failed",
				zap.String("company", companyName),
				zap.Error(err),
			)
		} else {
			f.JobID = jobID
		}
	}

	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID == companyID {
				s.companies[i].FollowUps = append(s.companies[i].FollowUps, f)
				s.companies[i].UpdatedAt = now
				return
			}
		}
	})
	return nil
}

// CompleteFollowUp marks the matching follow-up done. Unknown company
// or follow-up ids are a no-op.
func (s *Store) CompleteFollowUp(companyID, followUpID string) {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID != companyID {
				continue
			}
			for j := range s.companies[i].FollowUps {
				if s.companies[i].FollowUps[j].ID == followUpID {
					s.companies[i].FollowUps[j].Completed = true
					s.companies[i].FollowUps[j].UpdatedAt = now
					return
				}
			}
			return
		}
	})
}

// UpdateNotes replaces a company's notes. Unknown ids are a no-op.
func (s *Store) UpdateNotes(id, notes string) {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID == id {
				s.companies[i].Notes = notes
				s.companies[i].UpdatedAt = now
				return
			}
		}
	})
}

// UpdatePriority replaces a company's priority. Unknown ids are a
// no-op.
func (s *Store) UpdatePriority(id string, priority model.Priority) {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			if s.companies[i].ID == id {
				s.companies[i].Priority = priority
				s.companies[i].UpdatedAt = now
				return
			}
		}
	})
}

// RefreshScores recomputes every company's overall score with the
// Weighted formula. Weighted is computed from raw interaction signals
// only, never from the stored score, so refreshing is idempotent for an
// unchanged collection and evaluation instant. RecencyBoost reads the
// stored score and would compound if written back; it stays a
// ranking-only strategy.
func (s *Store) RefreshScores() {
	s.commit(func(now time.Time) {
		for i := range s.companies {
			s.companies[i].OverallScore = score.Weighted(s.companies[i], now)
		}
	})
}

// Settings is the runtime-togglable slice of Deps.
type Settings struct {
	EnableReminders bool
}

// UpdateSettings flips the reminder toggle without reconstructing the
// store.
func (s *Store) UpdateSettings(settings Settings) {
	s.commit(func(now time.Time) {
		s.deps.EnableReminders = settings.EnableReminders
	})
}

// SetRules replaces the automation rule set.
func (s *Store) SetRules(rules []model.AutomationRule) {
	s.commit(func(now time.Time) {
		s.rules = append([]model.AutomationRule(nil), rules...)
	})
}

// Save persists the user-editable slice of every company to the KV
// store so edits survive a corpus refresh.
func (s *Store) Save() error {
	if s.deps.KV == nil {
		return nil
	}
	for _, c := range s.Companies() {
		if err := loader.SaveUserEdits(s.deps.KV, c); err != nil {
			return err
		}
	}
	return nil
}

// Companies returns a deep copy of the full collection.
func (s *Store) Companies() []model.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.companies)
}

// Filtered returns a deep copy of the current filtered view.
func (s *Store) Filtered() []model.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.filtered)
}

// Company returns a deep copy of one record.
func (s *Store) Company(id string) (model.Company, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.ID == id {
			return c.Clone(), true
		}
	}
	return model.Company{}, false
}

// Selection returns the selected ids in insertion-independent order.
func (s *Store) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selection))
	for id := range s.selection {
		out = append(out, id)
	}
	return out
}

// Filters returns the active criteria.
func (s *Store) Filters() model.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// Rules returns a copy of the automation rule set.
func (s *Store) Rules() []model.AutomationRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AutomationRule(nil), s.rules...)
}

// Err returns the recorded load error, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// LastUpdated returns the instant of the most recent mutation.
func (s *Store) LastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdated
}

func cloneAll(companies []model.Company) []model.Company {
	out := make([]model.Company, len(companies))
	for i, c := range companies {
		out[i] = c.Clone()
	}
	return out
}
