package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
)

const thumbsDirName = ".thumbs"

// Disk stores file bytes on the local filesystem under a single upload root.
// The layout is part of the durable on-disk contract:
//
//	root/{folderID}/{storedFilename}  for folder-scoped files
//	root/{storedFilename}             for root files
//
// Folder directories are addressed by folder id, never by name, so renaming a
// folder touches no paths.
type Disk struct {
	root string
	log  *logger.Logger
}

func NewDisk(cfg config.StorageConfig, log *logger.Logger) (*Disk, error) {
	if cfg.UploadRoot == "" {
		return nil, errors.New("upload root is not configured")
	}

	if err := os.MkdirAll(cfg.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed creating upload root %s: %w", cfg.UploadRoot, err)
	}

	return &Disk{root: cfg.UploadRoot, log: log}, nil
}

func (d *Disk) Root() string {
	return d.root
}

// FilePath resolves the contractual path for a stored filename, folder-scoped
// or root-level.
func (d *Disk) FilePath(folderID *uuid.UUID, storedFilename string) string {
	if folderID != nil {
		return filepath.Join(d.root, folderID.String(), storedFilename)
	}
	return filepath.Join(d.root, storedFilename)
}

func (d *Disk) DirPath(folderID uuid.UUID) string {
	return filepath.Join(d.root, folderID.String())
}

func (d *Disk) ThumbnailPath(fileID uuid.UUID) string {
	return filepath.Join(d.root, thumbsDirName, fileID.String()+".jpg")
}

func (d *Disk) CreateDir(folderID uuid.UUID) error {
	path := d.DirPath(folderID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		d.log.Error("storage_create_dir_failed", err, map[string]interface{}{
			"path": path,
		})
		return err
	}
	return nil
}

// RemoveDir deletes a folder's physical directory. A directory that never got
// created counts as already removed.
func (d *Disk) RemoveDir(folderID uuid.UUID) error {
	path := d.DirPath(folderID)
	err := os.RemoveAll(path)
	if err != nil {
		d.log.Error("storage_remove_dir_failed", err, map[string]interface{}{
			"path": path,
		})
	}
	return err
}

// Save writes the full reader contents to path, creating parent directories
// as needed. On a failed write the partial file is unlinked so no orphan
// bytes survive a detected error.
func (d *Disk) Save(path string, reader io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}

	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(dst, reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		d.log.Error("storage_write_failed", err, map[string]interface{}{
			"path":    path,
			"written": written,
		})
		return 0, err
	}

	return written, nil
}

func (d *Disk) Open(path string) (*os.File, error) {
	return os.Open(path)
}

// Remove unlinks path, tolerating files that are already gone. Disk and DB
// may diverge; a missing file must never block row deletion.
func (d *Disk) Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		d.log.Error("storage_remove_failed", err, map[string]interface{}{
			"path": path,
		})
		return err
	}
	if os.IsNotExist(err) {
		d.log.Warn("storage_remove_missing", map[string]interface{}{
			"path": path,
		})
	}
	return nil
}

func (d *Disk) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
