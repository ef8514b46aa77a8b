package storage

import (
	"io"
	"os"

	apperrors "widget-estimate/internal/errors"
)

// Options locates backend data
type Options struct {
	// Directory is the root for the file backend
	Directory string

	// DSN is the database path for the sqlite backend
	DSN string
}

// StoreFactory creates stores by backend type
func StoreFactory(backend Backend, opts Options) (Store, error) {
	switch backend {
	case BackendFile:
		path := opts.Directory
		if path == "" {
			path = ".widget-estimate/leads"
		}
		return NewFileStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		dsn := opts.DSN
		if dsn == "" {
			dsn = ".widget-estimate/leads.db"
		}
		return OpenSQLite(dsn)
	default:
		return nil, apperrors.Newf(apperrors.TypeConfig, "unsupported backend: %s", backend)
	}
}

func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Storage("create storage directory", err)
	}
	return nil
}

// Ensure interfaces are implemented
var (
	_ Store     = (*FileStore)(nil)
	_ Store     = (*MemoryStore)(nil)
	_ Store     = (*SQLiteStore)(nil)
	_ io.Closer = (*SQLiteStore)(nil)
)
