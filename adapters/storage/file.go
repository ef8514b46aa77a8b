package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"

	apperrors "widget-estimate/internal/errors"
)

// FileStore is a file-based storage backend: <base>/<widget_key>/<id>.json
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates a file store
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, apperrors.Storage("create storage directory", err)
	}
	return &FileStore{basePath: basePath}, nil
}

func (s *FileStore) Save(ctx context.Context, lead *Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := prepare(lead); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	widgetDir := filepath.Join(s.basePath, lead.WidgetKey)
	if err := os.MkdirAll(widgetDir, 0755); err != nil {
		return apperrors.Storage("create widget directory", err)
	}

	data, err := json.MarshalIndent(lead, "", "  ")
	if err != nil {
		return apperrors.Storage("marshal lead", err)
	}

	// Write then rename so readers never see a partial file
	filePath := filepath.Join(widgetDir, lead.ID+".json")
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apperrors.Storage("write lead", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return apperrors.Storage("write lead", err)
	}
	return nil
}

// locate returns the path of a lead file, searching widget directories
func (s *FileStore) locate(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", leadNotFound(id)
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return "", apperrors.Storage("read storage", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		filePath := filepath.Join(s.basePath, entry.Name(), id+".json")
		if _, err := os.Stat(filePath); err == nil {
			return filePath, nil
		}
	}
	return "", leadNotFound(id)
}

func (s *FileStore) Get(ctx context.Context, id string) (*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	return readLead(filePath)
}

func readLead(path string) (*Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Storage("read lead", err)
	}
	var lead Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, apperrors.Storage("unmarshal lead", err)
	}
	return &lead, nil
}

func (s *FileStore) List(ctx context.Context, filter *ListFilter) ([]*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := filepath.Join(s.basePath, "*", "*.json")
	if filter != nil && filter.WidgetKey != "" {
		if !safeSegment(filter.WidgetKey) {
			return []*Lead{}, nil
		}
		pattern = filepath.Join(s.basePath, filter.WidgetKey, "*.json")
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, apperrors.Storage("list leads", err)
	}

	leads := []*Lead{}
	for _, path := range paths {
		lead, err := readLead(path)
		if err != nil {
			// Skip unreadable files
			continue
		}
		if filter.matches(lead) {
			leads = append(leads, lead)
		}
	}

	sort.Slice(leads, func(i, j int) bool { return newestFirst(leads[i], leads[j]) })
	return filter.page(leads), nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath, err := s.locate(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		return apperrors.Storage("delete lead", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
