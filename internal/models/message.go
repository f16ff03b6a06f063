package models

import (
	"time"
)

// Message represents a direct message between two users. Deletion is a soft
// flag; the row is kept.
type Message struct {
	BaseModel
	SenderID    string     `gorm:"size:36;index" json:"senderId"`
	RecipientID string     `gorm:"size:36;index" json:"recipientId"`
	ReplyToID   string     `gorm:"size:36;index" json:"replyToId,omitempty"`
	Subject     string     `gorm:"size:255" json:"subject"`
	Content     string     `gorm:"type:text" json:"content"`
	IsRead      bool       `gorm:"default:false" json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	IsDeleted   bool       `gorm:"default:false" json:"-"`

	// Relations
	Sender    User `gorm:"foreignKey:SenderID" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}
