package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileJournal appends journal entries as JSON lines. Append-only; the
// journal is diagnostic history, never read back by the engine.
type FileJournal struct {
	mu   sync.Mutex
	path string
}

func NewFileJournal(path string) *FileJournal {
	return &FileJournal{path: path}
}

func (j *FileJournal) Append(ctx context.Context, entry any) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}
