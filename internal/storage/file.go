package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
)

// File layout constants
const (
	FileSuffix      = ".json"
	BackupDir       = "backup"
	BackupSuffix    = ".backup"
	TmpSuffix       = ".tmp"
	FilePermissions = 0644
	DirPermissions  = 0755
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileKV stores every key as a file in a data directory
type FileKV struct {
	dir string
	log *zap.Logger
	mu  sync.Mutex
}

// NewFileKV creates the data directory if needed and returns a store rooted at it
func NewFileKV(dir string, log *zap.Logger) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("data directory is empty")
	}
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileKV{dir: dir, log: log}, nil
}

// Dir returns the data directory
func (f *FileKV) Dir() string {
	return f.dir
}

func (f *FileKV) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(f.dir, key+FileSuffix), nil
}

// Get implements KV
func (f *FileKV) Get(key string) ([]byte, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set implements KV. The previous value is kept as <key>.json.backup and the
// new value is written to a temp file first, then renamed into place.
func (f *FileKV) Set(key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(p); err == nil {
		if err := copyFile(p, p+BackupSuffix); err != nil {
			f.log.Warn("failed to create backup", zap.String("key", key), zap.Error(err))
		}
	}

	tmpFile := p + TmpSuffix
	if err := os.WriteFile(tmpFile, value, FilePermissions); err != nil {
		return err
	}

	return os.Rename(tmpFile, p)
}

// Snapshot copies every stored key into the backup directory as
// <unix>_<key>.json.backup and returns the created paths
func (f *FileKV) Snapshot(now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}

	backupDirPath := filepath.Join(f.dir, BackupDir)
	if err := os.MkdirAll(backupDirPath, DirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	var created []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != FileSuffix {
			continue
		}
		src := filepath.Join(f.dir, entry.Name())
		dst := filepath.Join(backupDirPath, fmt.Sprintf("%d_%s%s", now.Unix(), entry.Name(), BackupSuffix))
		if err := copyFile(src, dst); err != nil {
			return created, fmt.Errorf("failed to back up %s: %w", entry.Name(), err)
		}
		created = append(created, dst)
	}

	return created, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, FilePermissions)
}
