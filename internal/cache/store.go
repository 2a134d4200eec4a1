// Package cache persists fetched quote history on disk, one JSON file per
// product. Entries cover a whole date range and are replaced, never merged.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Alliabson/cotacaoprodutos/internal/quote"
)

// DefaultTTL is the maximum entry age before it is considered stale.
const DefaultTTL = 24 * time.Hour

// IOError indicates the local store could not be read or written. Callers
// degrade to a direct fetch instead of failing the operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err is a cache IO error
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// Entry is a cached fetch result for one product. Quotes are sorted
// ascending by date with no duplicates. Entries are superseded whole by a
// fresh Put, never mutated.
type Entry struct {
	ProductID string          `json:"product_id"`
	Range     quote.DateRange `json:"range"`
	FetchedAt time.Time       `json:"fetched_at"`
	Quotes    []quote.Quote   `json:"quotes"`
}

// Store is a file-backed cache keyed by product id. It is safe for use
// from multiple goroutines in one process; multi-process access is not
// coordinated.
type Store struct {
	dir string
	ttl time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// NewStore opens (creating if needed) a store rooted at dir.
func NewStore(dir string, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Get returns the entry for productID when it exists, fully covers r, and
// is fresher than the TTL. The second return is false on a miss. An IO
// failure is returned as *IOError so the caller can degrade.
func (s *Store) Get(productID string, r quote.DateRange) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(productID)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &IOError{Op: "read", Path: path, Err: err}
	}

	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, false, &IOError{Op: "decode", Path: path, Err: err}
	}

	if s.now().Sub(e.FetchedAt) > s.ttl {
		return nil, false, nil
	}
	if !e.Range.Covers(r) {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores quotes for productID over r, overwriting any prior entry for
// the product. Quotes are normalized (sorted, deduplicated) before writing.
func (s *Store) Put(productID string, r quote.DateRange, quotes []quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{
		ProductID: productID,
		Range:     r,
		FetchedAt: s.now(),
		Quotes:    quote.Normalize(quotes),
	}
	b, err := json.Marshal(e)
	if err != nil {
		return &IOError{Op: "encode", Path: s.path(productID), Err: err}
	}

	// Write to a temp file and rename so readers never see a torn entry.
	path := s.path(productID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// path maps a product id to its cache file, sanitizing characters that
// would escape the cache directory.
func (s *Store) path(productID string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '.':
			return '_'
		}
		return r
	}, productID)
	return filepath.Join(s.dir, name+".json")
}
