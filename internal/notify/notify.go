// Package notify records CRM alerts in a capped history and forwards
// them to an optional webhook. Delivery is best-effort: a failed webhook
// never surfaces past the sink.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/config"
	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/model"
)

// historyKey is the KV slot holding the serialized notification history.
const historyKey = "crm_notifications"

// DefaultRetention caps history length when the config leaves it unset.
const DefaultRetention = 50

// Notifier is the outbound notification sink.
type Notifier interface {
	// Notify records a notification. The error reports recording
	// problems only; webhook delivery failures are swallowed.
	Notify(ctx context.Context, message, companyID, companyName string) error
	// History returns notifications newest first.
	History() []model.Notification
}

// HistoryNotifier keeps the most recent notifications in memory,
// persists them to the KV store, and optionally POSTs each one to a
// webhook.
type HistoryNotifier struct {
	mu        sync.Mutex
	history   []model.Notification
	kv        kvstore.Store
	retention int
	webhook   string
	client    *http.Client
	now       func() time.Time
}

// Option customizes a HistoryNotifier.
type Option func(*HistoryNotifier)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(n *HistoryNotifier) { n.now = now }
}

// New creates a HistoryNotifier backed by kv. Previously persisted
// history is loaded; a corrupt blob is discarded with a warning.
func New(cfg config.NotifyConfig, kv kvstore.Store, opts ...Option) *HistoryNotifier {
	retention := cfg.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	n := &HistoryNotifier{
		kv:        kv,
		retention: retention,
		webhook:   cfg.WebhookURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	n.loadHistory()
	return n
}

func (n *HistoryNotifier) loadHistory() {
	if n.kv == nil {
		return
	}
	raw, ok, err := n.kv.Get(historyKey)
	if err != nil || !ok {
		return
	}
	var history []model.Notification
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		zap.L().Warn("notify: discarding corrupt history", zap.Error(err))
		return
	}
	if len(history) > n.retention {
		history = history[:n.retention]
	}
	n.history = history
}

// Notify appends a notification (newest first), trims to the retention
// cap, persists, and fires the webhook if one is configured.
func (n *HistoryNotifier) Notify(ctx context.Context, message, companyID, companyName string) error {
	notification := model.Notification{
		ID:          uuid.New().String(),
		Type:        "crm_alert",
		Message:     message,
		CompanyID:   companyID,
		CompanyName: companyName,
		Timestamp:   n.now().UTC(),
		Read:        false,
	}

	n.mu.Lock()
	n.history = append([]model.Notification{notification}, n.history...)
	if len(n.history) > n.retention {
		n.history = n.history[:n.retention]
	}
	snapshot := append([]model.Notification(nil), n.history...)
	n.mu.Unlock()

	zap.L().Info("notify: crm alert",
		zap.String("message", message),
		zap.String("company", companyName),
	)

	if n.kv != nil {
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return eris.Wrap(err, "notify: marshal history")
		}
		if err := n.kv.Set(historyKey, string(raw)); err != nil {
			return eris.Wrap(err, "notify: persist history")
		}
	}

	n.post(ctx, notification)
	return nil
}

// post delivers to the webhook, logging failures only.
func (n *HistoryNotifier) post(ctx context.Context, notification model.Notification) {
	if n.webhook == "" {
		return
	}
	body, err := json.Marshal(notification)
	if err != nil {
		zap.L().Warn("notify: marshal webhook payload", zap.Error(err))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhook, bytes.NewReader(body))
	if err != nil {
		zap.L().Warn("notify: build webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		zap.L().Warn("notify: webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		zap.L().Warn("notify: webhook rejected", zap.Int("status", resp.StatusCode))
	}
}

// History returns a copy of the current history, newest first.
func (n *HistoryNotifier) History() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.history...)
}

// Discard drops everything it is given; used when notifications are
// disabled.
type Discard struct{}

func (Discard) Notify(context.Context, string, string, string) error { return nil }

func (Discard) History() []model.Notification { return nil }
