package models

import "github.com/google/uuid"

type AccessLevel string

const (
	AccessLevelRead  AccessLevel = "read"
	AccessLevelWrite AccessLevel = "write"
)

// FileShare grants a named user access to a single file. The composite unique
// index keeps at most one active grant per (file, user) pair; repeated shares
// are upserted onto the same row.
type FileShare struct {
	BaseModel
	FileID           uuid.UUID   `json:"fileID" gorm:"type:uuid;not null;uniqueIndex:idx_file_shares_file_user"`
	SharedWithUserID uuid.UUID   `json:"sharedWithUserID" gorm:"type:uuid;not null;uniqueIndex:idx_file_shares_file_user;index"`
	SharedByUserID   uuid.UUID   `json:"sharedByUserID" gorm:"type:uuid;not null;index"`
	AccessLevel      AccessLevel `json:"accessLevel" gorm:"type:varchar(20);not null;default:'read'"`

	File           File `json:"file,omitempty" gorm:"foreignKey:FileID;references:ID"`
	SharedWithUser User `json:"sharedWithUser,omitempty" gorm:"foreignKey:SharedWithUserID;references:ID"`
	SharedByUser   User `json:"sharedByUser,omitempty" gorm:"foreignKey:SharedByUserID;references:ID"`
}

func (FileShare) TableName() string {
	return "file_shares"
}

type FolderShare struct {
	BaseModel
	FolderID         uuid.UUID   `json:"folderID" gorm:"type:uuid;not null;uniqueIndex:idx_folder_shares_folder_user"`
	SharedWithUserID uuid.UUID   `json:"sharedWithUserID" gorm:"type:uuid;not null;uniqueIndex:idx_folder_shares_folder_user;index"`
	SharedByUserID   uuid.UUID   `json:"sharedByUserID" gorm:"type:uuid;not null;index"`
	AccessLevel      AccessLevel `json:"accessLevel" gorm:"type:varchar(20);not null;default:'read'"`

	Folder         Folder `json:"folder,omitempty" gorm:"foreignKey:FolderID;references:ID"`
	SharedWithUser User   `json:"sharedWithUser,omitempty" gorm:"foreignKey:SharedWithUserID;references:ID"`
	SharedByUser   User   `json:"sharedByUser,omitempty" gorm:"foreignKey:SharedByUserID;references:ID"`
}

func (FolderShare) TableName() string {
	return "folder_shares"
}

func IsValidAccessLevel(value string) bool {
	switch AccessLevel(value) {
	case AccessLevelRead, AccessLevelWrite:
		return true
	default:
		return false
	}
}
