package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-crm/internal/automation"
	"github.com/sells-group/prospect-crm/internal/crm"
	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/loader"
	"github.com/sells-group/prospect-crm/internal/notify"
	"github.com/sells-group/prospect-crm/internal/reminder"
)

// appEnv bundles the wired application: the KV store, the notifier, and
// the CRM store loaded from the corpus.
type appEnv struct {
	KV       kvstore.Store
	Notifier *notify.HistoryNotifier
	Store    *crm.Store
}

// initApp opens the KV backend, wires the automation and reminder
// sinks, and loads the corpus merged with saved user edits. A missing
// or unreadable corpus is recorded as the store's load error rather
// than aborting, so the serve command can still come up.
func initApp() (*appEnv, error) {
	kv, err := kvstore.Open(cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open kv store")
	}

	notifier := notify.New(cfg.Notify, kv)
	engine := automation.New(notifier, automation.Policy{
		NullFromMatchesAny: cfg.Automation.NullFromMatchesAny,
	})

	deps := crm.Deps{
		KV:              kv,
		Engine:          engine,
		EnableReminders: cfg.Integration.EnableAutomation,
	}
	if cfg.Integration.CronEndpoint != "" {
		deps.Reminder = reminder.NewHTTP(cfg.Integration)
	}

	store := crm.New(deps)
	store.Subscribe(func() {
		if err := store.Save(); err != nil {
			zap.L().Warn("persist user edits failed", zap.Error(err))
		}
	})

	companies, err := loader.LoadFile(cfg.Data.CorpusPath, time.Now())
	if err != nil {
		zap.L().Warn("corpus load failed",
			zap.String("path", cfg.Data.CorpusPath),
			zap.Error(err),
		)
		store.SetLoadError(err)
	} else {
		store.Load(loader.MergeUserEdits(companies, kv))
		zap.L().Info("corpus loaded",
			zap.String("path", cfg.Data.CorpusPath),
			zap.Int("companies", len(companies)),
		)
	}

	return &appEnv{KV: kv, Notifier: notifier, Store: store}, nil
}

func (e *appEnv) Close() {
	if err := e.KV.Close(); err != nil {
		zap.L().Warn("kv store close failed", zap.Error(err))
	}
}
