package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

var (
	bucketTasks     = []byte("tasks")
	bucketCallbacks = []byte("callbacks")
	bucketNonces    = []byte("nonces")
)

// callbackMaxEntries bounds the callback audit log.
var callbackMaxEntries = 500

// Store wraps a BoltDB instance holding the task journal. It is audit-only:
// request handling never depends on a journal read.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at the given path.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketTasks, bucketCallbacks, bucketNonces} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordTask upserts a journal entry. Records keep one key for their whole
// lifecycle, so stage updates overwrite in place.
func (s *Store) RecordTask(rec core.TaskRecord) error {
	if rec.ID == "" {
		return errors.New("empty task id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).Put(taskKey(rec), data)
	})
}

// ListTasks returns journal entries newest first. A non-positive limit
// defaults to 50.
func (s *Store) ListTasks(limit int) ([]core.TaskRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []core.TaskRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketTasks).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec core.TaskRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// AppendCallback records one delivery outcome and trims old entries.
func (s *Store) AppendCallback(rec core.CallbackRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := []byte(rec.At.UTC().Format(time.RFC3339Nano) + ":" + rec.TaskID)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCallbacks)
		// KeyN reflects the committed state, so the pending Put is counted
		// separately.
		excess := b.Stats().KeyN + 1 - callbackMaxEntries
		if err := b.Put(key, data); err != nil {
			return err
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil && excess > 0; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
			excess--
		}
		return nil
	})
}

// ListCallbacks returns delivery records newest first, bounded by limit.
func (s *Store) ListCallbacks(limit int) ([]core.CallbackRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []core.CallbackRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketCallbacks).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec core.CallbackRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// SeenNonce reports whether this task/nonce pair was submitted before, and
// marks it as seen either way.
func (s *Store) SeenNonce(task, nonce string) (bool, error) {
	if nonce == "" {
		return false, errors.New("empty nonce")
	}
	h := sha256.Sum256([]byte(task + ":" + nonce))
	key := []byte(hex.EncodeToString(h[:]))

	var existed bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNonces)
		if v := b.Get(key); v != nil {
			existed = true
			return nil
		}
		return b.Put(key, []byte(time.Now().UTC().Format(time.RFC3339Nano)))
	})
	return existed, err
}

func taskKey(rec core.TaskRecord) []byte {
	return []byte(rec.CreatedAt.UTC().Format(time.RFC3339Nano) + ":" + rec.ID)
}
