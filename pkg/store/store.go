// Package store persists snapshots of sheet values in a bbolt database.
package store

import (
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
	"src.adam.sh/pkg/logutil"
	"src.adam.sh/pkg/store/storedefs"
)

var logger = logutil.GetLogger("[store] ")

// Functions that initialize the database, keyed by description. They are run
// in order of description when a store is opened.
var initDB = map[string](func(*bolt.Tx) error){}

// DBStore is the permanent storage backend.
type DBStore interface {
	storedefs.Store
	Close() error
}

type dbStore struct {
	db *bolt.DB
}

// NewStore opens the database at the given path, creating it if it does not
// exist, and initializes it.
func NewStore(path string) (DBStore, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	logger.Println("opened", path)
	return newStoreFromDB(db)
}

func newStoreFromDB(db *bolt.DB) (DBStore, error) {
	descs := make([]string, 0, len(initDB))
	for desc := range initDB {
		descs = append(descs, desc)
	}
	sort.Strings(descs)
	err := db.Update(func(tx *bolt.Tx) error {
		for _, desc := range descs {
			if err := initDB[desc](tx); err != nil {
				return fmt.Errorf("failed to %s: %w", desc, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &dbStore{db}, nil
}

// Close closes the underlying database.
func (s *dbStore) Close() error {
	return s.db.Close()
}
