package models

// User mirrors the account record managed by the identity service. The core
// only reads it to enrich shared-with-me listings with owner display info;
// credentials and roles live upstream.
type User struct {
	BaseModel
	Email     string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName string `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName  string `json:"lastName" gorm:"type:varchar(100);not null"`

	Folders []Folder `json:"-" gorm:"foreignKey:OwnerID"`
	Files   []File   `json:"-" gorm:"foreignKey:OwnerID"`
}
