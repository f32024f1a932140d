package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/moorebrett0/tamapet/internal/pet"
)

// FileStore keeps stats in a JSON file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileRecord struct {
	Stats   pet.Stats `json:"stats"`
	SavedAt time.Time `json:"saved_at"`
}

// NewFileStore creates a store backed by path. The file is created on the
// first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadStats reads the file. A missing file is not an error.
func (f *FileStore) LoadStats(ctx context.Context) (pet.Stats, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return pet.Stats{}, false, nil
		}
		return pet.Stats{}, false, fmt.Errorf("read state: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return pet.Stats{}, false, fmt.Errorf("unmarshal state: %w", err)
	}
	return rec.Stats.Clamped(), true, nil
}

// SaveStats writes the state to disk atomically (write tmp, then rename).
func (f *FileStore) SaveStats(ctx context.Context, stats pet.Stats) error {
	data, err := json.MarshalIndent(fileRecord{Stats: stats, SavedAt: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write tmp state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
