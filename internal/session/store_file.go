package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/designsnack/leadharvest/internal/leads"
)

const historyFileName = "search-history.json"

// FileStore persists one JSON file per session plus a history index holding
// the most recent summaries, newest first.
type FileStore struct {
	dir        string
	maxHistory int
	mu         sync.Mutex
}

type historyFile struct {
	Searches []leads.SessionSummary `json:"searches"`
}

// NewFileStore creates the backing directory if needed. maxHistory <= 0
// falls back to the default bound of 50.
func NewFileStore(dir string, maxHistory int) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	return &FileStore{dir: dir, maxHistory: maxHistory}, nil
}

// Save writes the session file and prepends its summary to the history
// index, trimming the index to the configured bound.
func (s *FileStore) Save(_ context.Context, sess leads.SearchSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.sessionPath(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	history := s.readHistory()
	history.Searches = append([]leads.SessionSummary{{
		ID:          sess.ID,
		SearchTerm:  sess.SearchTerm,
		Timestamp:   sess.Timestamp,
		ResultCount: sess.TotalResults,
	}}, history.Searches...)
	if len(history.Searches) > s.maxHistory {
		history.Searches = history.Searches[:s.maxHistory]
	}
	return s.writeHistory(history)
}

// Get loads one session by ID.
func (s *FileStore) Get(_ context.Context, id string) (leads.SearchSession, error) {
	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		return leads.SearchSession{}, fmt.Errorf("session not found: %s", id)
	}
	var sess leads.SearchSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return leads.SearchSession{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

// History returns the summary index, newest first.
func (s *FileStore) History(context.Context) ([]leads.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHistory().Searches, nil
}

// CleanupOlderThan deletes session files whose modification time is older
// than the cutoff and returns how many were removed.
func (s *FileStore) CleanupOlderThan(days int, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read sessions dir: %w", err)
	}
	cutoff := now.AddDate(0, 0, -days)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || entry.Name() == historyFileName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) historyPath() string {
	return filepath.Join(s.dir, historyFileName)
}

func (s *FileStore) readHistory() historyFile {
	var history historyFile
	data, err := os.ReadFile(s.historyPath())
	if err != nil {
		return history
	}
	if err := json.Unmarshal(data, &history); err != nil {
		return historyFile{}
	}
	return history
}

func (s *FileStore) writeHistory(history historyFile) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.historyPath(), data, 0o600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}
