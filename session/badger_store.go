// ABOUTME: BadgerDB-backed session store
// ABOUTME: Durable local key/value storage for the bearer token
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/ringbook/config"
)

// BadgerPath returns the XDG-compliant directory of the badger database.
func BadgerPath() string {
	return filepath.Join(config.DataDir(), "session.badger")
}

// BadgerStore keeps session values in a local badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if needed) a badger database in dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(nil) // badger logs to stderr, which the TUI owns

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(key string) (string, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(result), nil
}

func (b *BadgerStore) Set(key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

func (b *BadgerStore) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close closes the database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}
