package kvstore

import (
	badger "github.com/dgraph-io/badger/v3"
	"github.com/rotisserie/eris"
)

// Badger implements Store on an embedded badger database.
type Badger struct {
	db *badger.DB
}

// NewBadger opens a badger database at the given directory with its
// default logger silenced in favor of zap.
func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, eris.Wrap(err, "kvstore: open badger")
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key string) (string, bool, error) {
	var value string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrapf(err, "kvstore: get %s", key)
	}
	return value, true, nil
}

func (b *Badger) Set(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	return eris.Wrapf(err, "kvstore: set %s", key)
}

func (b *Badger) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return eris.Wrapf(err, "kvstore: delete %s", key)
}

func (b *Badger) Close() error {
	return b.db.Close()
}
