package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/igor-ruivo/metin2-events/internal/discord"
	"github.com/igor-ruivo/metin2-events/internal/schedule"
)

const (
	boltFile     = "metin2-events.db"
	periodBucket = "periods"
)

// BoltStore keeps every period under the "periods" bucket of one bbolt file.
// The database is opened per operation so the CLI and a running server can share it.
type BoltStore struct {
	path string
}

// NewBolt creates a BoltStore in dataDir and makes sure the bucket exists
func NewBolt(dataDir string) (*BoltStore, error) {
	dir, err := prepareDir(dataDir)
	if err != nil {
		return nil, err
	}

	s := &BoltStore{path: filepath.Join(dir, boltFile)}
	err = s.update(func(b *bolt.Bucket) error { return nil })
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the database file
func (s *BoltStore) Path() string {
	return s.path
}

func (s *BoltStore) open() (*bolt.DB, error) {
	db, err := bolt.Open(s.path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open db %s: %w", s.path, err)
	}
	return db, nil
}

func (s *BoltStore) update(fn func(b *bolt.Bucket) error) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(periodBucket))
		if err != nil {
			return fmt.Errorf("unable to create bucket %s: %w", periodBucket, err)
		}
		return fn(b)
	})
}

// Save stores the embeds for a period
func (s *BoltStore) Save(p schedule.Period, embeds []discord.Embed) error {
	data, err := json.Marshal(embeds)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", p, err)
	}

	return s.update(func(b *bolt.Bucket) error {
		if err := b.Put([]byte(p), data); err != nil {
			return fmt.Errorf("could not store %s: %w", p, err)
		}
		return nil
	})
}

// Load reads the embeds for a period
func (s *BoltStore) Load(p schedule.Period) ([]discord.Embed, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var data []byte
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(periodBucket))
		if b == nil {
			return nil
		}
		// the value is only valid inside the transaction
		if v := b.Get([]byte(p)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return decode(p, data)
}
