package store

import (
	bolt "go.etcd.io/bbolt"
	"src.adam.sh/pkg/store/storedefs"
	"src.adam.sh/pkg/vals"
)

const bucketSnapshot = "snapshot"

func init() {
	initDB["initialize snapshot table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshot))
		return err
	}
}

// Snapshots are stored as YAML documents.

func (s *dbStore) SaveSnapshot(name string, d vals.Dict) error {
	data, err := vals.MarshalDict(d)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshot)).Put([]byte(name), data)
	})
}

func (s *dbStore) Snapshot(name string) (vals.Dict, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketSnapshot)).Get([]byte(name))
		if v == nil {
			return storedefs.ErrNoSnapshot
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vals.UnmarshalDict(data)
}

func (s *dbStore) DelSnapshot(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSnapshot)).Delete([]byte(name))
	})
}

func (s *dbStore) Snapshots() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		// bbolt keeps keys in byte order.
		return tx.Bucket([]byte(bucketSnapshot)).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}
