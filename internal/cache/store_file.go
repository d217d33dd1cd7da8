package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/designsnack/leadharvest/internal/leads"
)

const indexFileName = "contacts-cache.json"

// FileStore persists cache entries as one JSON file per key plus a JSON
// index file ordered most-recently-put first. Writes are serialized so the
// index read-modify-write cannot interleave; across processes the format
// tolerates last-writer-wins.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

type fileIndex struct {
	Entries []fileIndexEntry `json:"entries"`
}

type fileIndexEntry struct {
	CacheKey string `json:"cacheKey"`
	FilePath string `json:"filePath"`
}

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the entry file for key. A missing file is an absent entry; a
// corrupted file is an error for the caller to treat as a miss.
func (s *FileStore) Get(_ context.Context, key string) (leads.CacheEntry, bool, error) {
	data, err := os.ReadFile(s.entryPath(key))
	if os.IsNotExist(err) {
		return leads.CacheEntry{}, false, nil
	}
	if err != nil {
		return leads.CacheEntry{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	var entry leads.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return leads.CacheEntry{}, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return entry, true, nil
}

// Put writes the entry file and prepends the key to the index.
func (s *FileStore) Put(_ context.Context, key string, entry leads.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := os.WriteFile(s.entryPath(key), data, 0o600); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	index := s.readIndex()
	filtered := index.Entries[:0]
	for _, e := range index.Entries {
		if e.CacheKey != key {
			filtered = append(filtered, e)
		}
	}
	index.Entries = append([]fileIndexEntry{{
		CacheKey: key,
		FilePath: key + ".json",
	}}, filtered...)
	return s.writeIndex(index)
}

// Delete removes the entry file and its index row.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache entry: %w", err)
	}
	index := s.readIndex()
	filtered := index.Entries[:0]
	for _, e := range index.Entries {
		if e.CacheKey != key {
			filtered = append(filtered, e)
		}
	}
	index.Entries = filtered
	return s.writeIndex(index)
}

// Keys returns the index order, most recently put first.
func (s *FileStore) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.readIndex()
	keys := make([]string, 0, len(index.Entries))
	for _, e := range index.Entries {
		keys = append(keys, e.CacheKey)
	}
	return keys, nil
}

func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) indexPath() string {
	return filepath.Join(s.dir, indexFileName)
}

// readIndex tolerates a missing or corrupted index file by starting fresh.
func (s *FileStore) readIndex() fileIndex {
	var index fileIndex
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return index
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return fileIndex{}
	}
	return index
}

func (s *FileStore) writeIndex(index fileIndex) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache index: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o600); err != nil {
		return fmt.Errorf("write cache index: %w", err)
	}
	return nil
}
