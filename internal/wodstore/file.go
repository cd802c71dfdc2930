package wodstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nicolasdagostino/a615-sub000/internal/logger"
	"github.com/nicolasdagostino/a615-sub000/internal/models"
)

// FileStore keeps the blob in memory and rewrites the JSON file after every
// mutation.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	data   *blob
	now    func() time.Time
	logger logger.Logger
}

func NewFileStore(path string, log logger.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		data:   newBlob(),
		now:    time.Now,
		logger: log,
	}
	if err := s.load(); err != nil {
		log.Errorf("wodstore: failed to load %s: %v", path, err)
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	data := newBlob()
	if err := json.NewDecoder(file).Decode(data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	data.ensure()

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *FileStore) List(_ context.Context) ([]models.WOD, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.list(), nil
}

func (s *FileStore) Get(_ context.Context, date string) (*models.WOD, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.get(date)
}

func (s *FileStore) Upsert(_ context.Context, wod models.WOD) (models.WOD, bool, error) {
	wod, err := Normalize(wod)
	if err != nil {
		return models.WOD{}, false, err
	}

	var created bool
	err = s.mutate(func(next *blob) (bool, error) {
		created = next.upsert(wod)
		return true, nil
	})
	if err != nil {
		return models.WOD{}, false, err
	}
	return wod, created, nil
}

func (s *FileStore) Delete(_ context.Context, date string) (bool, error) {
	var removed bool
	err := s.mutate(func(next *blob) (bool, error) {
		removed = next.remove(date)
		return removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *FileStore) Comments(_ context.Context, date string) ([]models.WODComment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.comments(date), nil
}

func (s *FileStore) AddComment(_ context.Context, date, text string) (*models.WODComment, error) {
	comment, err := newComment(text, s.now())
	if err != nil {
		return nil, err
	}

	err = s.mutate(func(next *blob) (bool, error) {
		return true, next.addComment(date, comment)
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *FileStore) DeleteComment(_ context.Context, date, commentID string) (bool, error) {
	var removed bool
	err := s.mutate(func(next *blob) (bool, error) {
		removed = next.removeComment(date, commentID)
		return removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *FileStore) Close() error {
	return nil
}

// mutate applies fn to a copy of the blob and swaps the copy in only after
// it has been written to disk.
func (s *FileStore) mutate(fn func(next *blob) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	changed, err := fn(next)
	if err != nil || !changed {
		return err
	}
	if err := atomicWriteFileJSON(s.path, next); err != nil {
		s.logger.Errorf("wodstore: failed to save %s: %v", s.path, err)
		return err
	}
	s.data = next
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}
