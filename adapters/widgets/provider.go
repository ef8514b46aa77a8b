// Package widgets provides widget configuration lookup by public key.
package widgets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"widget-estimate/core/widget"
	apperrors "widget-estimate/internal/errors"
)

// Provider resolves widget configurations
type Provider interface {
	// Get returns the public configuration for a widget key
	Get(ctx context.Context, key string) (*widget.Configuration, error)

	// List summarises the public widgets
	List(ctx context.Context) ([]Summary, error)
}

// Summary describes one available widget
type Summary struct {
	Key    string `json:"widget_key"`
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
	Steps  int    `json:"steps"`
}

func summarize(key string, cfg *widget.Configuration) Summary {
	return Summary{
		Key:    key,
		ID:     cfg.ID,
		Name:   cfg.Name,
		Status: cfg.Status,
		Steps:  len(cfg.Steps),
	}
}

// ValidKey reports whether key can name a widget document
func ValidKey(key string) bool {
	if key == "" || len(key) > 128 || key == "." || key == ".." {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

func notFound(key string) error {
	return apperrors.NotFound("widget configuration", key)
}

// extensions lists accepted document extensions in lookup order
var extensions = []string{".yaml", ".yml", ".json"}

// DirectoryProvider reads <dir>/<key>.yaml|.yml|.json documents
type DirectoryProvider struct {
	root *os.Root
}

// NewDirectoryProvider opens dir as the configuration root
func NewDirectoryProvider(dir string) (*DirectoryProvider, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, apperrors.Config("open widgets directory", err).WithContext("dir", dir)
	}
	return &DirectoryProvider{root: root}, nil
}

// Close releases the directory handle
func (p *DirectoryProvider) Close() error {
	return p.root.Close()
}

// Get loads and decodes the document for key
func (p *DirectoryProvider) Get(ctx context.Context, key string) (*widget.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ValidKey(key) {
		return nil, notFound(key)
	}

	for _, ext := range extensions {
		data, err := fs.ReadFile(p.root.FS(), key+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, apperrors.Internal("read widget configuration", err).WithContext("widget", key)
		}

		cfg, err := decode(ext, data)
		if err != nil {
			return nil, apperrors.Input(fmt.Sprintf("decode widget configuration %s%s", key, ext), err)
		}
		if !cfg.IsPublic() {
			return nil, notFound(key)
		}
		if cfg.Key == "" {
			cfg.Key = key
		}
		return cfg, nil
	}
	return nil, notFound(key)
}

// List decodes every document in the directory, skipping unreadable ones
func (p *DirectoryProvider) List(ctx context.Context) ([]Summary, error) {
	entries, err := fs.ReadDir(p.root.FS(), ".")
	if err != nil {
		return nil, apperrors.Internal("list widgets directory", err)
	}

	seen := make(map[string]bool)
	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		key := strings.TrimSuffix(entry.Name(), ext)
		if !isExtension(ext) || seen[key] {
			continue
		}
		seen[key] = true

		cfg, err := p.Get(ctx, key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			continue
		}
		out = append(out, summarize(key, cfg))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func isExtension(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func decode(ext string, data []byte) (*widget.Configuration, error) {
	if ext == ".json" {
		return widget.Parse(data)
	}
	return widget.ParseYAML(data)
}

// MemoryProvider serves configurations held in memory
type MemoryProvider struct {
	mu      sync.RWMutex
	widgets map[string]*widget.Configuration
}

// NewMemoryProvider creates an empty in-memory provider
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{widgets: make(map[string]*widget.Configuration)}
}

// Put registers cfg under key, replacing any previous entry
func (p *MemoryProvider) Put(key string, cfg *widget.Configuration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.widgets[key] = cfg
}

// Get returns the configuration for key when it is public
func (p *MemoryProvider) Get(ctx context.Context, key string) (*widget.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg, ok := p.widgets[key]
	if !ok || cfg == nil || !cfg.IsPublic() {
		return nil, notFound(key)
	}
	return cfg, nil
}

// List summarises the public configurations, sorted by key
func (p *MemoryProvider) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Summary, 0, len(p.widgets))
	for key, cfg := range p.widgets {
		if cfg != nil && cfg.IsPublic() {
			out = append(out, summarize(key, cfg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

var (
	_ Provider = (*DirectoryProvider)(nil)
	_ Provider = (*MemoryProvider)(nil)
)
