package models

// ProfileImage stores an uploaded avatar as binary data in the database
// (longblob under MySQL) rather than on disk.
type ProfileImage struct {
	BaseModel
	UserID   string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	FileName string `gorm:"size:255;not null" json:"fileName"`
	FileType string `gorm:"size:100;not null" json:"fileType"` // MIME type
	FileData []byte `gorm:"type:longblob;not null" json:"-"`
}
