package services

import (
	"context"
	"errors"
	"strings"

	"github.com/filedepot/backend/internal/cache"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/apperr"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxFolderNameLength = 255

// FolderService owns the folder hierarchy: rows in the folders table plus
// the physical directory mirror keyed by folder id.
type FolderService struct {
	db     *gorm.DB
	disk   *storage.Disk
	cache  *cache.Service
	access *AccessService
	log    *logger.Logger
}

func NewFolderService(db *gorm.DB, disk *storage.Disk, cacheService *cache.Service, access *AccessService, log *logger.Logger) *FolderService {
	return &FolderService{db: db, disk: disk, cache: cacheService, access: access, log: log}
}

// Create validates the name, resolves the optional parent, creates the
// physical directory keyed by the new id, then commits the row. A failed
// insert removes the directory again so disk and DB stay aligned.
func (s *FolderService) Create(ctx context.Context, name string, parentID *uuid.UUID, ownerID uuid.UUID) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeValidation, "folder name is required")
	}
	if len(name) > maxFolderNameLength {
		return nil, apperr.Newf(apperr.CodeValidation, "folder name exceeds %d characters", maxFolderNameLength)
	}

	if parentID != nil {
		if _, err := s.byID(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	folder := models.Folder{
		Name:     name,
		ParentID: parentID,
		OwnerID:  ownerID,
	}
	folder.ID = uuid.New()

	if err := s.disk.CreateDir(folder.ID); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "failed creating folder directory", err)
	}

	if err := s.db.WithContext(ctx).Create(&folder).Error; err != nil {
		_ = s.disk.RemoveDir(folder.ID)
		s.log.Error("folder_create_failed", err, map[string]interface{}{
			"folder_name": name,
			"owner_id":    ownerID.String(),
		})
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed creating folder", err)
	}

	s.invalidate(ctx, folder.ID, ownerID)

	s.log.InfoWithUser(ownerID.String(), "folder_created", map[string]interface{}{
		"folder_id":   folder.ID.String(),
		"folder_name": name,
	})
	return &folder, nil
}

// List returns the flat listing of folders under parentID (nil means root),
// unscoped by owner.
func (s *FolderService) List(ctx context.Context, parentID *uuid.UUID) ([]models.Folder, error) {
	cacheID := "parent:" + parentKey(parentID)

	var cached []models.Folder
	if s.cache.GetJSON(ctx, cache.EntityFolderList, cache.PublicScope, cacheID, &cached) {
		return cached, nil
	}

	var folders []models.Folder
	if err := scopeParent(s.db.WithContext(ctx), parentID).
		Order("created_at DESC").
		Find(&folders).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed listing folders", err)
	}

	s.cache.SetJSON(ctx, cache.EntityFolderList, cache.PublicScope, cacheID, folders)
	return folders, nil
}

// ListForOwner is List filtered to one owner.
func (s *FolderService) ListForOwner(ctx context.Context, parentID *uuid.UUID, ownerID uuid.UUID) ([]models.Folder, error) {
	cacheID := "parent:" + parentKey(parentID)
	scope := cache.UserScope(ownerID)

	var cached []models.Folder
	if s.cache.GetJSON(ctx, cache.EntityFolderList, scope, cacheID, &cached) {
		return cached, nil
	}

	var folders []models.Folder
	if err := scopeParent(s.db.WithContext(ctx), parentID).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&folders).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed listing folders", err)
	}

	s.cache.SetJSON(ctx, cache.EntityFolderList, scope, cacheID, folders)
	return folders, nil
}

// Tree assembles the nested folder/file view depth-first, starting under
// parentID. Recursion terminates because the parent chain is acyclic.
func (s *FolderService) Tree(ctx context.Context, parentID *uuid.UUID, ownerID uuid.UUID) ([]models.FolderWithFiles, error) {
	cacheID := "tree:" + parentKey(parentID)
	scope := cache.UserScope(ownerID)

	var cached []models.FolderWithFiles
	if s.cache.GetJSON(ctx, cache.EntityFolderList, scope, cacheID, &cached) {
		return cached, nil
	}

	tree, err := s.buildTree(ctx, parentID, ownerID)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, cache.EntityFolderList, scope, cacheID, tree)
	return tree, nil
}

func (s *FolderService) buildTree(ctx context.Context, parentID *uuid.UUID, ownerID uuid.UUID) ([]models.FolderWithFiles, error) {
	var folders []models.Folder
	if err := scopeParent(s.db.WithContext(ctx), parentID).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&folders).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed loading folder level", err)
	}

	tree := make([]models.FolderWithFiles, 0, len(folders))
	for _, folder := range folders {
		var files []models.File
		if err := s.db.WithContext(ctx).
			Where("folder_id = ?", folder.ID).
			Order("created_at DESC").
			Find(&files).Error; err != nil {
			return nil, apperr.Wrap(apperr.CodeDatabase, "failed loading folder files", err)
		}

		subtree, err := s.buildTree(ctx, &folder.ID, ownerID)
		if err != nil {
			return nil, err
		}

		tree = append(tree, models.FolderWithFiles{
			Folder:     folder,
			Files:      files,
			Subfolders: subtree,
		})
	}
	return tree, nil
}

// Rename changes folder metadata only. The physical directory is keyed by
// id, so no storage path moves.
func (s *FolderService) Rename(ctx context.Context, id uuid.UUID, name string) (*models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeValidation, "folder name is required")
	}
	if len(name) > maxFolderNameLength {
		return nil, apperr.Newf(apperr.CodeValidation, "folder name exceeds %d characters", maxFolderNameLength)
	}

	folder, err := s.byID(ctx, id)
	if err != nil {
		return nil, err
	}

	folder.Name = name
	if err := s.db.WithContext(ctx).Save(folder).Error; err != nil {
		s.log.Error("folder_rename_failed", err, map[string]interface{}{
			"folder_id": id.String(),
		})
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed renaming folder", err)
	}

	s.invalidate(ctx, folder.ID, folder.OwnerID)
	return folder, nil
}

// Delete refuses to remove a folder that still has child folders or files;
// an empty folder loses its physical directory first, then its row.
func (s *FolderService) Delete(ctx context.Context, id uuid.UUID) error {
	folder, err := s.byID(ctx, id)
	if err != nil {
		return err
	}

	var childFolders int64
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Where("parent_id = ?", id).Count(&childFolders).Error; err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "failed counting subfolders", err)
	}
	var childFiles int64
	if err := s.db.WithContext(ctx).Model(&models.File{}).Where("folder_id = ?", id).Count(&childFiles).Error; err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "failed counting folder files", err)
	}
	if childFolders > 0 || childFiles > 0 {
		return apperr.New(apperr.CodeValidation, "folder is not empty")
	}

	if err := s.disk.RemoveDir(id); err != nil {
		return apperr.Wrap(apperr.CodeInternal, "failed removing folder directory", err)
	}

	if err := s.db.WithContext(ctx).Where("folder_id = ?", id).Delete(&models.FolderShare{}).Error; err != nil {
		return apperr.Wrap(apperr.CodeDatabase, "failed removing folder shares", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Folder{}, "id = ?", id).Error; err != nil {
		s.log.Error("folder_delete_failed", err, map[string]interface{}{
			"folder_id": id.String(),
		})
		return apperr.Wrap(apperr.CodeDatabase, "failed deleting folder", err)
	}

	s.invalidate(ctx, id, folder.OwnerID)

	s.log.InfoWithUser(folder.OwnerID.String(), "folder_deleted", map[string]interface{}{
		"folder_id":   id.String(),
		"folder_name": folder.Name,
	})
	return nil
}

// ShareWithUsers grants read or write on a folder to each target user,
// owner-only. One grant per (folder, user): an existing row is updated in
// place. Individual target failures are skipped and only confirmed grants
// are returned.
func (s *FolderService) ShareWithUsers(ctx context.Context, folderID uuid.UUID, requesterID uuid.UUID, userIDs []uuid.UUID, level models.AccessLevel) ([]models.FolderShare, error) {
	if !models.IsValidAccessLevel(string(level)) {
		return nil, apperr.New(apperr.CodeValidation, "invalid access level")
	}

	folder, err := s.byID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanModifyFolder(ctx, requesterID, folder) {
		return nil, apperr.NewForbidden("only the owner can share this folder")
	}

	shares := make([]models.FolderShare, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == requesterID {
			continue
		}

		share, err := s.upsertShare(ctx, folderID, requesterID, userID, level)
		if err != nil {
			s.log.Error("folder_share_failed", err, map[string]interface{}{
				"folder_id":      folderID.String(),
				"target_user_id": userID.String(),
			})
			continue
		}
		shares = append(shares, *share)
	}

	recipients := append(s.access.FolderShareRecipients(ctx, folderID), folder.OwnerID)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFolder, recipients...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFolderList, recipients...)

	return shares, nil
}

func (s *FolderService) upsertShare(ctx context.Context, folderID, sharedBy, sharedWith uuid.UUID, level models.AccessLevel) (*models.FolderShare, error) {
	var existing models.FolderShare
	err := s.db.WithContext(ctx).
		Where("folder_id = ? AND shared_with_user_id = ?", folderID, sharedWith).
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

	share := models.FolderShare{
		FolderID:         folderID,
		SharedWithUserID: sharedWith,
		SharedByUserID:   sharedBy,
		AccessLevel:      level,
	}
	if err := s.db.WithContext(ctx).Create(&share).Error; err != nil {
		return nil, err
	}
	return &share, nil
}

// SharedWith lists the folders shared with userID, with folder and owner
// display info preloaded.
func (s *FolderService) SharedWith(ctx context.Context, userID uuid.UUID) ([]models.FolderShare, error) {
	scope := cache.UserScope(userID)

	var cached []models.FolderShare
	if s.cache.GetJSON(ctx, cache.EntityFolderList, scope, "shared-with-me", &cached) {
		return cached, nil
	}

	var shares []models.FolderShare
	if err := s.db.WithContext(ctx).
		Preload("Folder").
		Preload("Folder.Owner").
		Preload("SharedByUser").
		Where("shared_with_user_id = ?", userID).
		Order("created_at DESC").
		Find(&shares).Error; err != nil {
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed listing folder shares", err)
	}

	s.cache.SetJSON(ctx, cache.EntityFolderList, scope, "shared-with-me", shares)
	return shares, nil
}

func (s *FolderService) byID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	if err := s.db.WithContext(ctx).First(&folder, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeFolderNotFound, "folder not found")
		}
		return nil, apperr.Wrap(apperr.CodeDatabase, "failed loading folder", err)
	}
	return &folder, nil
}

// invalidate clears folder-scoped cache entries for the owner, every share
// recipient, and the public scope. Failures are advisory only.
func (s *FolderService) invalidate(ctx context.Context, folderID uuid.UUID, ownerID uuid.UUID) {
	affected := append(s.access.FolderShareRecipients(ctx, folderID), ownerID)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFolder, affected...)
	s.cache.InvalidateEntityForUsers(ctx, cache.EntityFolderList, affected...)
}

func scopeParent(db *gorm.DB, parentID *uuid.UUID) *gorm.DB {
	if parentID == nil {
		return db.Where("parent_id IS NULL")
	}
	return db.Where("parent_id = ?", *parentID)
}

func parentKey(parentID *uuid.UUID) string {
	if parentID == nil {
		return "root"
	}
	return parentID.String()
}
