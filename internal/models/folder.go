package models

import "github.com/google/uuid"

type Folder struct {
	BaseModel
	Name     string     `json:"name" gorm:"type:varchar(255);not null"`
	ParentID *uuid.UUID `json:"parentID,omitempty" gorm:"type:uuid;index"`
	OwnerID  uuid.UUID  `json:"ownerID" gorm:"type:uuid;not null;index"`

	Parent     *Folder       `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Subfolders []Folder      `json:"subfolders,omitempty" gorm:"foreignKey:ParentID"`
	Files      []File        `json:"files,omitempty" gorm:"foreignKey:FolderID"`
	Owner      User          `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Shares     []FolderShare `json:"-" gorm:"foreignKey:FolderID"`
}

// FolderWithFiles is the nested tree view assembled by GetFolderTree. It is
// never persisted.
type FolderWithFiles struct {
	Folder
	Files      []File            `json:"files"`
	Subfolders []FolderWithFiles `json:"subfolders"`
}
