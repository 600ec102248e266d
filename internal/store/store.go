// Package store provides the key-scoped durable Local Store backing offline
// operation. Each key holds one JSON collection; writes are whole-collection
// rewrites, which bounds throughput but keeps a single-writer SQLite file
// trivially consistent.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	syncerrors "github.com/nualapos/backend/internal/errors"
)

// Record is implemented by anything the store can add or update. The JSON
// field "id" of the marshalled record must equal RecordID.
type Record interface {
	RecordID() string
}

// Store is the local persistence layer shared by entity collections and the
// sync queue. Mutations are whole-collection read-modify-write sequences, so
// the mutex must be held across the full window; callers run on several
// goroutines (scheduler drain, HTTP handlers).
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens the store's SQLite database under dataDir, creating it when
// absent. The database is opened with WAL mode and a single writer, matching
// SQLite's concurrency model.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "nualapos.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		key        TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key returns the organization-scoped collection key for base. An empty
// organization id falls back to the unscoped legacy key.
func Key(base, organizationID string) string {
	if organizationID == "" {
		return base
	}
	return base + "_" + organizationID
}

// GetItems unmarshals the collection under key into out, which must be a
// pointer to a slice. A missing or corrupt collection degrades to an empty
// slice; reads never fail.
func (s *Store) GetItems(key string, out any) {
	// Reset to empty first so corrupt data can't leave stale contents.
	if err := json.Unmarshal([]byte("[]"), out); err != nil {
		return
	}

	var data []byte
	err := s.db.QueryRow("SELECT data FROM collections WHERE key = ?", key).Scan(&data)
	if err != nil {
		return
	}

	if err := json.Unmarshal(data, out); err != nil {
		// Corrupt collection degrades to empty rather than erroring.
		_ = json.Unmarshal([]byte("[]"), out)
	}
}

// AddItem appends item to the collection under key. Uniqueness of the id
// within the collection is the caller's responsibility.
func (s *Store) AddItem(key string, item Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readRaw(key)

	data, err := json.Marshal(item)
	if err != nil {
		return storageErr(key, "marshal item", err)
	}
	items = append(items, data)

	return s.writeRaw(key, items)
}

// UpdateItem replaces the first item in the collection whose id matches
// item's. It is an error when no item matches.
func (s *Store) UpdateItem(key string, item Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readRaw(key)

	idx := indexOf(items, item.RecordID())
	if idx < 0 {
		return storageErr(key, "update item",
			fmt.Errorf("no item with id %q in collection", item.RecordID()))
	}

	data, err := json.Marshal(item)
	if err != nil {
		return storageErr(key, "marshal item", err)
	}
	items[idx] = data

	return s.writeRaw(key, items)
}

// DeleteItem removes the item with the given id from the collection.
// Removing an absent id is a no-op.
func (s *Store) DeleteItem(key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.readRaw(key)

	idx := indexOf(items, id)
	if idx < 0 {
		return nil
	}
	items = append(items[:idx], items[idx+1:]...)

	return s.writeRaw(key, items)
}

// idProbe extracts the id field used to match items within a collection.
type idProbe struct {
	ID string `json:"id"`
}

func indexOf(items []json.RawMessage, id string) int {
	for i, raw := range items {
		var probe idProbe
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		if probe.ID == id {
			return i
		}
	}
	return -1
}

// readRaw loads the collection as raw JSON elements, degrading to empty on
// any read or decode failure.
func (s *Store) readRaw(key string) []json.RawMessage {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM collections WHERE key = ?", key).Scan(&data)
	if err != nil {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	return items
}

// writeRaw persists the full collection under key in one statement.
func (s *Store) writeRaw(key string, items []json.RawMessage) error {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return storageErr(key, "marshal collection", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO collections (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().Unix())
	if err != nil {
		return storageErr(key, "write collection", err)
	}
	return nil
}

func storageErr(key, op string, err error) error {
	return syncerrors.Wrap(
		fmt.Errorf("%s under key %q: %w", op, key, err),
		syncerrors.KindStorage,
		syncerrors.Context{Operation: op},
	)
}
