package models

// UserSettings holds per-user preferences. A row is created with defaults on
// first read.
type UserSettings struct {
	BaseModel
	UserID               string `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	EmailNotifications   bool   `gorm:"default:true" json:"emailNotifications"`
	AppointmentReminders bool   `gorm:"default:true" json:"appointmentReminders"`
	MessageAlerts        bool   `gorm:"default:true" json:"messageAlerts"`
	Language             string `gorm:"size:10;default:'en'" json:"language"`
	Timezone             string `gorm:"size:50;default:'UTC'" json:"timezone"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
