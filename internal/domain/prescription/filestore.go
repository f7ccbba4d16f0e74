package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the prescription list in a single JSON document on disk.
// It is the default Store for the GUI shell; the engine itself only uses
// the read side. Writes go through a temp file and rename so a crash
// mid-write cannot corrupt the document.
type FileStore struct {
	mu      sync.Mutex
	path    string
	records []Record
	now     func() time.Time
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, now: time.Now}
	if err := s.loadLocked(); err != nil {
		return nil, fmt.Errorf("loading prescriptions: %w", err)
	}
	return s, nil
}

func (s *FileStore) loadLocked() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.records = nil
		return nil
	}
	if err != nil {
		return err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decoding %s: %w", s.path, err)
	}
	// Older documents may predate id assignment.
	next := 1
	for i := range records {
		if records[i].ID >= next {
			next = records[i].ID + 1
		}
	}
	for i := range records {
		if records[i].ID == 0 {
			records[i].ID = next
			next++
		}
	}
	s.records = records
	return nil
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".prescriptions-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *FileStore) GetAllPrescriptions(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *FileStore) GetByID(ctx context.Context, id int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id {
			rec := s.records[i]
			return &rec, nil
		}
	}
	return nil, fmt.Errorf("prescription %d: %w", id, ErrRecordNotFound)
}

// Add validates the record, assigns the next free id and persists.
func (s *FileStore) Add(ctx context.Context, rec Record) (*Record, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for i := range s.records {
		if s.records[i].ID >= next {
			next = s.records[i].ID + 1
		}
	}
	rec.ID = next
	rec.CreatedAt = s.now()
	s.records = append(s.records, rec)

	if err := s.flushLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return nil, fmt.Errorf("saving prescriptions: %w", err)
	}
	return &rec, nil
}

func (s *FileStore) Update(ctx context.Context, id int, cmd *UpdateRecordCommand) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		prev := s.records[i]
		cmd.apply(&s.records[i])
		now := s.now()
		s.records[i].UpdatedAt = &now
		if err := s.flushLocked(); err != nil {
			s.records[i] = prev
			return nil, fmt.Errorf("saving prescriptions: %w", err)
		}
		rec := s.records[i]
		return &rec, nil
	}
	return nil, fmt.Errorf("prescription %d: %w", id, ErrRecordNotFound)
}

func (s *FileStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID != id {
			continue
		}
		prev := s.records
		s.records = append(s.records[:i:i], s.records[i+1:]...)
		if err := s.flushLocked(); err != nil {
			s.records = prev
			return fmt.Errorf("saving prescriptions: %w", err)
		}
		return nil
	}
	return fmt.Errorf("prescription %d: %w", id, ErrRecordNotFound)
}
