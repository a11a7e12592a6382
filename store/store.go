// Package store persists edit sessions: the document as loaded and the
// working copy the editor mutates.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	swimdata "github.com/PeterK-end/swim-data-analyser"
)

var sessionsBucket = []byte("sessions")

var (
	// ErrNotFound reports a session id with no stored record.
	ErrNotFound = errors.New("session not found")

	errDBLocked = errors.New(
		"session database is locked by another process",
	)
)

// Record is one stored edit session.
type Record struct {
	ID         string             `json:"id"`
	SourceName string             `json:"source_name,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Original   *swimdata.Document `json:"original"`
	Current    *swimdata.Document `json:"current"`
}

// Client is a BoltDB database client.
type Client struct {
	*bolt.DB
}

// Open creates or opens the database at path and makes sure the sessions
// bucket exists.
func Open(path string) (*Client, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	var fileMode fs.FileMode = 0o600

	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if errors.Is(err, berrors.ErrTimeout) {
			return nil, errDBLocked
		}

		return nil, fmt.Errorf("open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Client{db}, nil
}

// Save creates or overwrites rec.
func (c *Client) Save(rec *Record) error {
	if rec.ID == "" {
		return errors.New("save session: empty id")
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("save session %s: %w", rec.ID, err)
	}

	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(rec.ID), value)
	})
}

// Get loads the session stored under id.
func (c *Client) Get(id string) (*Record, error) {
	var rec Record

	err := c.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(id))
		if len(v) == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// Delete removes the session stored under id. Missing ids are not an error.
func (c *Client) Delete(id string) error {
	return c.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
}

// List returns every stored session, most recently updated first.
func (c *Client) List() ([]Record, error) {
	var out []Record

	err := c.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("session %s: %w", k, err)
			}

			out = append(out, rec)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

// Prune deletes sessions last updated before cutoff and reports how many
// were removed.
func (c *Client) Prune(cutoff time.Time) (int, error) {
	var n int

	err := c.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)

		var stale [][]byte

		err := b.ForEach(func(k, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("session %s: %w", k, err)
			}

			if rec.UpdatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}

			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}

		n = len(stale)

		return nil
	})

	return n, err
}
