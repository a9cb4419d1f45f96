package models

import "github.com/google/uuid"

type AccessType string

const (
	AccessTypePrivate AccessType = "private"
	AccessTypePublic  AccessType = "public"
)

type File struct {
	BaseModel
	StoredFilename string     `json:"storedFilename" gorm:"type:varchar(255);not null"`
	OriginalName   string     `json:"originalName" gorm:"type:varchar(255);not null"`
	Path           string     `json:"-" gorm:"type:text;not null"`
	ThumbnailPath  *string    `json:"-" gorm:"type:text"`
	Size           int64      `json:"size" gorm:"not null;default:0"`
	MimeType       string     `json:"mimeType" gorm:"type:varchar(255);not null"`
	FolderID       *uuid.UUID `json:"folderID,omitempty" gorm:"type:uuid;index"`
	OwnerID        uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index"`
	AccessType     AccessType `json:"accessType" gorm:"type:varchar(20);not null;default:'private';index"`

	Folder *Folder     `json:"folder,omitempty" gorm:"foreignKey:FolderID"`
	Owner  User        `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Shares []FileShare `json:"-" gorm:"foreignKey:FileID"`
}

// IsPublic reports whether the file carries no access restriction.
func (f *File) IsPublic() bool {
	return f.AccessType == AccessTypePublic
}
