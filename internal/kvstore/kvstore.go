// Package kvstore abstracts the string key-value store that holds user
// edits and notification history. Backends are interchangeable so tests
// run against the in-memory implementation.
package kvstore

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-crm/internal/config"
)

// Store is a simple string-keyed get/set store with last-write-wins
// semantics.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "badger":
		return NewBadger(cfg.Path)
	default:
		return nil, eris.Errorf("kvstore: unknown driver %q", cfg.Driver)
	}
}
