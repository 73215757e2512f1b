// Package automation evaluates declarative trigger→actions rules
// against company state transitions and applies the fired actions.
package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/followup"
	"github.com/sells-group/prospect-crm/internal/model"
	"github.com/sells-group/prospect-crm/internal/notify"
)

// Policy controls ambiguous rule-matching semantics.
type Policy struct {
	// NullFromMatchesAny: a status_change rule with a nil/absent "from"
	// condition matches any prior status when true, and never matches
	// when false.
	NullFromMatchesAny bool
}

// Engine applies automation rules. Stateless between calls; the
// notifier is the only external collaborator and its failures never
// abort action application.
type Engine struct {
	notifier notify.Notifier
	policy   Policy
}

// New creates an Engine. A nil notifier disables send_notification
// actions silently.
func New(notifier notify.Notifier, policy Policy) *Engine {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Engine{notifier: notifier, policy: policy}
}

// OnStatusChange runs every active status_change rule matching the
// from→to transition against the company, applying actions in list
// order. The returned rules slice carries LastTriggered stamps for the
// rules that fired; the input slices are not mutated.
//
// An update_status action performed by a fired rule does not re-enter
// the engine: rule evaluation is one level deep to avoid unbounded
// cascades.
func (e *Engine) OnStatusChange(ctx context.Context, c model.Company, from, to model.Status, rules []model.AutomationRule, now time.Time) (model.Company, []model.AutomationRule) {
	out := append([]model.AutomationRule(nil), rules...)
	for i, rule := range out {
		if !rule.IsActive || rule.Trigger.Type != model.TriggerStatusChange {
			continue
		}
		if !e.matchStatusConditions(rule.Trigger.Conditions, from, to) {
			continue
		}
		c = e.fire(ctx, rule, c, now)
		stamp := now
		out[i].LastTriggered = &stamp
	}
	return c, out
}

// OnScoreChange runs active score_change rules. A "min_delta" condition
// requires the absolute score movement to reach it; absent means any
// change fires.
func (e *Engine) OnScoreChange(ctx context.Context, c model.Company, oldScore, newScore int, rules []model.AutomationRule, now time.Time) (model.Company, []model.AutomationRule) {
	delta := newScore - oldScore
	if delta < 0 {
		delta = -delta
	}

	out := append([]model.AutomationRule(nil), rules...)
	for i, rule := range out {
		if !rule.IsActive || rule.Trigger.Type != model.TriggerScoreChange {
			continue
		}
		if minDelta, ok := condNumber(rule.Trigger.Conditions, "min_delta"); ok && float64(delta) < minDelta {
			continue
		}
		c = e.fire(ctx, rule, c, now)
		stamp := now
		out[i].LastTriggered = &stamp
	}
	return c, out
}

// OnEmailReceived runs active email_received rules. A "keyword"
// condition requires the email's matched keywords or subject to contain
// it; absent means any email fires.
func (e *Engine) OnEmailReceived(ctx context.Context, c model.Company, email model.Email, rules []model.AutomationRule, now time.Time) (model.Company, []model.AutomationRule) {
	out := append([]model.AutomationRule(nil), rules...)
	for i, rule := range out {
		if !rule.IsActive || rule.Trigger.Type != model.TriggerEmailReceived {
			continue
		}
		if kw, ok := condString(rule.Trigger.Conditions, "keyword"); ok && !emailMentions(email, kw) {
			continue
		}
		c = e.fire(ctx, rule, c, now)
		stamp := now
		out[i].LastTriggered = &stamp
	}
	return c, out
}

// Tick runs active time_based rules across the collection. The only
// recognized condition is "overdue_follow_ups": true, matching
// companies holding at least one overdue incomplete follow-up.
func (e *Engine) Tick(ctx context.Context, companies []model.Company, rules []model.AutomationRule, now time.Time) ([]model.Company, []model.AutomationRule) {
	outCompanies := append([]model.Company(nil), companies...)
	outRules := append([]model.AutomationRule(nil), rules...)

	for i, rule := range outRules {
		if !rule.IsActive || rule.Trigger.Type != model.TriggerTimeBased {
			continue
		}
		requireOverdue := false
		if v, ok := rule.Trigger.Conditions["overdue_follow_ups"]; ok {
			requireOverdue, _ = v.(bool)
		}

		fired := false
		for j, c := range outCompanies {
			if requireOverdue && !hasOverdueFollowUp(c, now) {
				continue
			}
			outCompanies[j] = e.fire(ctx, rule, c, now)
			fired = true
		}
		if fired {
			stamp := now
			outRules[i].LastTriggered = &stamp
		}
	}
	return outCompanies, outRules
}

// matchStatusConditions tests a status_change condition map against the
// transition.
func (e *Engine) matchStatusConditions(conditions map[string]any, from, to model.Status) bool {
	target, ok := condString(conditions, "to")
	if !ok || model.Status(target) != to {
		return false
	}

	source, ok := condString(conditions, "from")
	if !ok {
		return e.policy.NullFromMatchesAny
	}
	return model.Status(source) == from
}

// fire applies the rule's actions in list order. Each action is
// independent: one failure is logged and the rest still run.
func (e *Engine) fire(ctx context.Context, rule model.AutomationRule, c model.Company, now time.Time) model.Company {
	zap.L().Info("automation: rule fired",
		zap.String("rule", rule.Name),
		zap.String("company", c.Name),
	)

	for _, action := range rule.Actions {
		c = e.apply(ctx, action, c, now)
	}
	return c
}

func (e *Engine) apply(ctx context.Context, action model.Action, c model.Company, now time.Time) model.Company {
	switch action.Type {
	case model.ActionCreateFollowUp:
		typ := model.FollowUpOneWeek
		if s, ok := condString(action.Data, "type"); ok {
			typ = model.FollowUpType(s)
		}
		description, ok := condString(action.Data, "description")
		if !ok || description == "" {
			description = fmt.Sprintf("Automated follow-up for %s", c.Name)
		}
		f, err := followup.Schedule(c.ID, typ, description, time.Time{}, now)
		if err != nil {
			zap.L().Warn("automation: create_follow_up failed",
				zap.String("company", c.Name),
				zap.Error(err),
			)
			return c
		}
		c.FollowUps = append(c.FollowUps, f)

	case model.ActionUpdateScore:
		if delta, ok := condNumber(action.Data, "score_change"); ok {
			c.OverallScore += int(delta)
		}

	case model.ActionUpdateStatus:
		if s, ok := condString(action.Data, "new_status"); ok {
			c.Status = model.Status(s)
		}

	case model.ActionSendNotification:
		message, ok := condString(action.Data, "message")
		if !ok || message == "" {
			message = fmt.Sprintf("Automation alert for %s", c.Name)
		}
		if err := e.notifier.Notify(ctx, message, c.ID, c.Name); err != nil {
			zap.L().Warn("automation: send_notification failed",
				zap.String("company", c.Name),
				zap.Error(err),
			)
		}

	default:
		zap.L().Warn("automation: unknown action type",
			zap.String("type", string(action.Type)),
		)
	}
	return c
}

func hasOverdueFollowUp(c model.Company, now time.Time) bool {
	for _, f := range c.FollowUps {
		if followup.Overdue(f, now) {
			return true
		}
	}
	return false
}

func emailMentions(email model.Email, keyword string) bool {
	lower := strings.ToLower(keyword)
	for _, kw := range email.Keywords {
		if strings.ToLower(kw) == lower {
			return true
		}
	}
	return strings.Contains(strings.ToLower(email.Subject), lower)
}

// condString extracts a non-nil string condition value.
func condString(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// condNumber extracts a numeric condition value; JSON decoding yields
// float64 but int literals appear in tests and fixtures.
func condNumber(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
