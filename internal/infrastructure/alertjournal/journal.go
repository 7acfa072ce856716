package alertjournal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Entry records the last alert emitted for a product, so chronic low-stock
// items do not flood the log on every sweep.
type Entry struct {
	ProductID   string    `json:"product_id"`
	UnitsNeeded int       `json:"units_needed"`
	AlertedAt   time.Time `json:"alerted_at"`
}

// Journal wraps BoltDB to persist low-stock alert state across restarts.
type Journal struct {
	db     *bolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	bucket := []byte("lowstock_alerts")
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{
		db:     db,
		bucket: bucket,
	}, nil
}

// Get returns the stored entry for a product, or ok=false when the product
// has never been alerted (or was cleared after recovering).
func (j *Journal) Get(productID string) (Entry, bool, error) {
	if j == nil || j.db == nil {
		return Entry{}, false, bolt.ErrDatabaseNotOpen
	}

	var entry Entry
	var found bool
	err := j.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(j.bucket).Get([]byte(productID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return err
		}
		found = true
		return nil
	})
	return entry, found, err
}

// Put stores or replaces the entry for a product.
func (j *Journal) Put(entry Entry) error {
	if j == nil || j.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if entry.AlertedAt.IsZero() {
		entry.AlertedAt = time.Now()
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(j.bucket).Put([]byte(entry.ProductID), payload)
	})
}

// Delete clears the entry for a product that has recovered, so a relapse
// triggers a fresh alert.
func (j *Journal) Delete(productID string) error {
	if j == nil || j.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(j.bucket).Delete([]byte(productID))
	})
}

// List returns every journaled entry.
func (j *Journal) List() ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	var entries []Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(j.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	return entries, err
}

// Size returns the number of journaled products.
func (j *Journal) Size() (int, error) {
	if j == nil || j.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := j.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(j.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Cleanup removes entries older than the provided timestamp.
func (j *Journal) Cleanup(olderThan time.Time) error {
	if j == nil || j.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return j.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(j.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue
			}
			if entry.AlertedAt.Before(olderThan) {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Close closes the Bolt database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
