package models

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationAppointment  NotificationType = "appointment"
	NotificationPrescription NotificationType = "prescription"
	NotificationMessage      NotificationType = "message"
	NotificationSystem       NotificationType = "system"
)

// Notification is a per-user record polled by the client. There is no push
// delivery; rows are inserted synchronously by the operation that caused
// them.
type Notification struct {
	BaseModel
	UserID    string           `gorm:"size:36;index" json:"userId"`
	Type      NotificationType `gorm:"size:30;default:'system'" json:"type"`
	Title     string           `gorm:"size:255" json:"title"`
	Body      string           `gorm:"type:text" json:"body"`
	RelatedID string           `gorm:"size:36" json:"relatedId,omitempty"`
	IsRead    bool             `gorm:"default:false" json:"isRead"`
	IsDeleted bool             `gorm:"default:false" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
