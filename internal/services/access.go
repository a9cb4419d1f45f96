package services

import (
	"context"

	"github.com/filedepot/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessService answers ownership and sharing questions for files and
// folders. It never decides who the requester is; authentication and role
// evaluation happen upstream, this service only checks a given user id
// against a given resource.
type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// CanReadFile reports whether userID may read the file: the owner, a user
// holding an active share, or anyone when the file is public.
func (a *AccessService) CanReadFile(ctx context.Context, userID uuid.UUID, file *models.File) bool {
	if file.OwnerID == userID {
		return true
	}
	if file.IsPublic() {
		return true
	}

	var count int64
	err := a.DB.WithContext(ctx).
		Model(&models.FileShare{}).
		Where("file_id = ? AND shared_with_user_id = ?", file.ID, userID).
		Count(&count).Error
	return err == nil && count > 0
}

// CanModifyFile reports whether userID may rename, move, delete, or share
// the file. Mutation is owner-only; a write-level share grants the recipient
// no mutation rights.
func (a *AccessService) CanModifyFile(_ context.Context, userID uuid.UUID, file *models.File) bool {
	return file.OwnerID == userID
}

// CanReadFolder reports whether userID may see the folder: the owner or a
// user holding an active folder share.
func (a *AccessService) CanReadFolder(ctx context.Context, userID uuid.UUID, folder *models.Folder) bool {
	if folder.OwnerID == userID {
		return true
	}

	var count int64
	err := a.DB.WithContext(ctx).
		Model(&models.FolderShare{}).
		Where("folder_id = ? AND shared_with_user_id = ?", folder.ID, userID).
		Count(&count).Error
	return err == nil && count > 0
}

func (a *AccessService) CanModifyFolder(_ context.Context, userID uuid.UUID, folder *models.Folder) bool {
	return folder.OwnerID == userID
}

// FileShareRecipients lists the users holding a share on the file. Mutating
// operations use it to widen cache invalidation to every counterpart.
func (a *AccessService) FileShareRecipients(ctx context.Context, fileID uuid.UUID) []uuid.UUID {
	var recipients []uuid.UUID
	if err := a.DB.WithContext(ctx).
		Model(&models.FileShare{}).
		Where("file_id = ?", fileID).
		Pluck("shared_with_user_id", &recipients).Error; err != nil {
		return nil
	}
	return recipients
}

func (a *AccessService) FolderShareRecipients(ctx context.Context, folderID uuid.UUID) []uuid.UUID {
	var recipients []uuid.UUID
	if err := a.DB.WithContext(ctx).
		Model(&models.FolderShare{}).
		Where("folder_id = ?", folderID).
		Pluck("shared_with_user_id", &recipients).Error; err != nil {
		return nil
	}
	return recipients
}
