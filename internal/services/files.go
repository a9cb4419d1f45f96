package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/filedepot/backend/internal/cache"
	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/apperr"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileService owns file rows and their physical bytes. Bytes are written
// before the row is committed so a crash mid-upload never leaves a row
// pointing at nothing; the reverse divergence (bytes without a row) is
// tolerated and cleaned up best-effort.
type FileService struct {
	db     *gorm.DB
	disk   *storage.Disk
	cache  *cache.Service
	access *AccessService
	thumbs *ThumbnailService
	cfg    config.StorageConfig
	log    *logger.Logger
}

func NewFileService(db *gorm.DB, disk *storage.Disk, cacheService *cache.Service, access *AccessService, thumbs *ThumbnailService, cfg config.StorageConfig, log *logger.Logger) *FileService {
	return &FileService{db: db, disk: disk, cache: cacheService, access: access, thumbs: thumbs, cfg: cfg, log: log}
}

type UploadInput struct {
	Reader       io.Reader
	OriginalName string
	MimeType     string
	Size         int64
	FolderID     *uuid.UUID
	OwnerID      uuid.UUID
}

type DownloadInfo struct {
	Path     string
	MimeType string
	Filename string
}

// Upload validates type and size, writes the bytes to the contractual path,
// then commits the row. Thumbnail generation runs afterwards and can never
// fail the upload.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (*models.File, error) {
	originalName := filepath.Base(strings.TrimSpace(in.OriginalName))
	if originalName == "" || originalName == "." {
		return nil, apperr.New(apperr.CodeValidation, "invalid filename")
	}

	if !s.mimeAllowed(in.MimeType) {
		return nil, apperr.Newf(apperr.CodeUpload, "mime type %s is not allowed", in.MimeType)
	}
	if in.Size > s.cfg.MaxUploadSize {
		return nil, apperr.Newf(apperr.CodeUpload, "file exceeds maximum size of %d bytes", s.cfg.MaxUploadSize)
	}

	if in.FolderID != nil {
		var folder models.Folder
		if err := s.db.WithContext(ctx).First(&folder, "id = ?", *in.FolderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.New(apperr.CodeFolderNotFound, "destination folder not found")
			}
			return nil, apperr.Wrap(apperr.CodeDatabase, "failed loading destination folder", err)
		}
	}

	id := uuid.New()
	storedFilename := id.String() + strings.ToLower(filepath.Ext(originalName))
	path := s.disk.FilePath(in.FolderID, storedFilename)

	written, err := s.disk.Save(path, in.Reader)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpload, "failed writing file bytes", err)
	}

	file := models.File{
		StoredFilename: storedFilename,
		OriginalName:   originalName,
		Path:           path,
		Size:           written,
		MimeType:       in.MimeType,
		FolderID:       in.FolderID,
		OwnerID:        in.OwnerID,
		AccessType:     models.AccessTypePrivate,
	}
	file.ID = id

	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		_ = s.disk.Remove(path)
		s.log.Error("file_create_failed", err, map[string]interface{}{
			"file_name": originalName,
			"owner_id":  in.OwnerID.String(),
		})
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed creating file record", err)
	}

	s.invalidate(ctx, file.ID, in.OwnerID)

	s.log.InfoWithUser(in.OwnerID.String(), "file_uploaded", map[string]interface{}{
		"file_id":   file.ID.String(),
		"file_name": originalName,
		"file_size": written,
		"mime_type": in.MimeType,
		"path":      path,
	})

	s.thumbs.GenerateAsync(file)

	return &file, nil
}

// Download authorizes the requester and returns what the transport layer
// needs to stream the bytes.
func (s *FileService) Download(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) (*DownloadInfo, error) {
	file, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.access.CanReadFile(ctx, requesterID, file) {
		s.log.WarnWithUser(requesterID.String(), "file_download_denied", map[string]interface{}{
			"file_id": id.String(),
		})
		return nil, apperr.NewForbidden("no access to this file")
	}

	if !s.disk.Exists(file.Path) {
		return nil, apperr.New(apperr.CodeFileNotFound, "file bytes not found on disk")
	}

	return &DownloadInfo{
		Path:     file.Path,
		MimeType: file.MimeType,
		Filename: file.OriginalName,
	}, nil
}

// Rename is metadata-only and owner-only; the stored filename and path never
// change.
func (s *FileService) Rename(ctx context.Context, id uuid.UUID, newName string, requesterID uuid.UUID) (*models.File, error) {
	newName = filepath.Base(strings.TrimSpace(newName))
	if newName == "" || newName == "." {
		return nil, apperr.New(apperr.CodeValidation, "invalid filename")
	}

	file, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.access.CanModifyFile(ctx, requesterID, file) {
		return nil, apperr.NewForbidden("only the owner can rename this file")
	}

	file.OriginalName = newName
	if err := s.db.WithContext(ctx).Save(file).Error; err != nil {
		s.log.Error("file_rename_failed", err, map[string]interface{}{
			"file_id": id.String(),
		})
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed renaming file", err)
	}

	s.invalidate(ctx, file.ID, file.OwnerID)
	return file, nil
}

// Move re-parents files in a single best-effort batch: missing or foreign
// files are skipped, the batch never aborts, and only the confirmed count is
// returned. The move is logical; file bytes stay where upload put them and
// the Path column remains authoritative.
func (s *FileService) Move(ctx context.Context, ids []uuid.UUID, destFolderID *uuid.UUID, requesterID uuid.UUID) (int, error) {
	if destFolderID != nil {
		var folder models.Folder
		if err := s.db.WithContext(ctx).First(&folder, "id = ?", *destFolderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, apperr.New(apperr.CodeFolderNotFound, "destination folder not found")
			}
			return 0, apperr.Wrap(apperr.CodeDatabase, "failed loading destination folder", err)
		}
	}

	moved := 0
	for _, id := range ids {
		var file models.File
		err := s.db.WithContext(ctx).First(&file, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("file_move_skipped_missing", map[string]interface{}{
				"file_id": id.String(),
			})
			continue
		}
		if err != nil {
			s.log.Error("file_move_load_failed", err, map[string]interface{}{
				"file_id": id.String(),
			})
			continue
		}
		if !s.access.CanModifyFile(ctx, requesterID, &file) {
			s.log.WarnWithUser(requesterID.String(), "file_move_skipped_denied", map[string]interface{}{
				"file_id": id.String(),
			})
			continue
		}

		if err := s.db.WithContext(ctx).Model(&file).Update("folder_id", destFolderID).Error; err != nil {
			s.log.Error("file_move_failed", err, map[string]interface{}{
				"file_id": id.String(),
			})
			continue
		}

		s.invalidate(ctx, file.ID, file.OwnerID)
		moved++
	}

	return moved, nil
}

// Delete is owner-only. Bytes and thumbnail are unlinked first, tolerating
// files already gone from disk, then the row and its shares are removed.
// Disk divergence never blocks row deletion.
func (s *FileService) Delete(ctx context.Context, id uuid.UUID, requesterID uuid.UUID) error {
	file, err := s.byID(ctx, id)
	if err != nil {
		return err
	}
	if !s.access.CanModifyFile(ctx, requesterID, file) {
		return apperr.NewForbidden("only the owner can delete this file")
	}

	recipients := append(s.access.FileShareRecipients(ctx, id), file.OwnerID)

	if err := s.disk.Remove(file.Path); err != nil {
		s.log.Warn("file_delete_bytes_failed", map[string]interface{}{
			"file_id": id.String(),
			"path":    file.Path,
			"error":   err.Error(),
		})
	}
	if file.ThumbnailPath != nil {
		if err := s.disk.Remove(*file.ThumbnailPath); err != nil {
			s.log.Warn("file_delete_thumbnail_failed", map[string]interface{}{
				"file_id": id.String(),
				"path":    *file.ThumbnailPath,
				"error":   err.Error(),
			})
		}
	}

	if err := s.db.WithContext(ctx).Where("file_id = ?", id).Delete(&models.FileShare{}).Error; err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "failed removing file shares", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.File{}, "id = ?", id).Error; err != nil {
		s.log.Error("file_delete_failed", err, map[string]interface{}{
			"file_id": id.String(),
		})
		return apperr.Wrap(apperr.CodeDatabase, "failed deleting file", err)
	}

	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFile, recipients...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFileList, recipients...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFolderList, recipients...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityThumbnail, recipients...)

	s.log.InfoWithUser(file.OwnerID.String(), "file_deleted", map[string]interface{}{
		"file_id":   id.String(),
		"file_name": file.OriginalName,
	})
	return nil
}

// Search matches the query as a case-insensitive substring of the original
// name, scoped to files the requester can see: owned, shared with them, or
// public.
func (s *FileService) Search(ctx context.Context, query string, requesterID uuid.UUID) ([]models.File, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.CodeValidation, "search query is required")
	}

	scope := cache.UserScope(requesterID)
	cacheID := "search:" + strings.ToLower(query)

	var cached []models.File
	if s.cache.GetJSON(ctx, cache.EntityFileList, scope, cacheID, &cached) {
		return cached, nil
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var files []models.File
	if err := s.db.WithContext(ctx).
		Distinct("files.*").
		Joins("LEFT JOIN file_shares ON file_shares.file_id = files.id AND file_shares.shared_with_user_id = ?", requesterID).
		Where("LOWER(files.original_name) LIKE ?", pattern).
		Where("files.owner_id = ? OR files.access_type = ? OR file_shares.id IS NOT NULL", requesterID, models.AccessTypePublic).
		Order("files.created_at DESC").
		Find(&files).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed searching files", err)
	}

	s.cache.SetJSON(ctx, cache.EntityFileList, scope, cacheID, files)
	return files, nil
}

// ShareWithUsers grants read or write on a file to each target user,
// owner-only, one upserted row per (file, user). Target failures are skipped
// and only confirmed grants are returned.
func (s *FileService) ShareWithUsers(ctx context.Context, fileID uuid.UUID, requesterID uuid.UUID, userIDs []uuid.UUID, level models.AccessLevel) ([]models.FileShare, error) {
	if !models.IsValidAccessLevel(string(level)) {
		return nil, apperr.New(apperr.CodeValidation, "invalid access level")
	}

	file, err := s.byID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanModifyFile(ctx, requesterID, file) {
		return nil, apperr.NewForbidden("only the owner can share this file")
	}

	shares := make([]models.FileShare, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == requesterID {
			continue
		}

		share, err := s.upsertShare(ctx, fileID, requesterID, userID, level)
		if err != nil {
			s.log.Error("file_share_failed", err, map[string]interface{}{
				"file_id":        fileID.String(),
				"target_user_id": userID.String(),
			})
			continue
		}
		shares = append(shares, *share)
	}

	recipients := append(s.access.FileShareRecipients(ctx, fileID), file.OwnerID)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFile, recipients...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFileList, recipients...)

	return shares, nil
}

func (s *FileService) upsertShare(ctx context.Context, fileID, sharedBy, sharedWith uuid.UUID, level models.AccessLevel) (*models.FileShare, error) {
	var existing models.FileShare
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND shared_with_user_id = ?", fileID, sharedWith).
		First(&existing).Error
	if err == nil {
		existing.AccessLevel = level
		existing.SharedByUserID = sharedBy
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	share := models.FileShare{
		FileID:           fileID,
		SharedWithUserID: sharedWith,
		SharedByUserID:   sharedBy,
		AccessLevel:      level,
	}
	if err := s.db.WithContext(ctx).Create(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

// SharedWith lists the files shared with userID, with file and owner display
// info preloaded.
func (s *FileService) SharedWith(ctx context.Context, userID uuid.UUID) ([]models.FileShare, error) {
	scope := cache.UserScope(userID)

	var cached []models.FileShare
	if s.cache.GetJSON(ctx, cache.EntityFileList, scope, "shared-with-me", &cached) {
		return cached, nil
	}

	var shares []models.FileShare
	if err := s.db.WithContext(ctx).
		Preload("File").
		Preload("File.Owner").
		Preload("SharedByUser").
		Where("shared_with_user_id = ?", userID).
		Order("created_at DESC").
		Find(&shares).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed listing file shares", err)
	}

	s.cache.SetJSON(ctx, cache.EntityFileList, scope, "shared-with-me", shares)
	return shares, nil
}

func (s *FileService) byID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	var file models.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeFileNotFound, "file not found")
		}
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed loading file", err)
	}
	return &file, nil
}

func (s *FileService) mimeAllowed(mimeType string) bool {
	for _, allowed := range s.cfg.AllowedMimeTypes {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}

// invalidate clears file-scoped entries plus folder listings, since trees
// embed the files of every folder.
func (s *FileService) invalidate(ctx context.Context, fileID uuid.UUID, ownerID uuid.UUID) {
	affected := append(s.access.FileShareRecipients(ctx, fileID), ownerID)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFile, affected...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFileList, affected...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFolderList, affected...)
}
