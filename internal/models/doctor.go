package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DayWindow is one day's consultation window in a doctor's weekly schedule.
// Start and End are "HH:MM" strings in the clinic's local time.
type DayWindow struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	IsAvailable bool   `json:"isAvailable"`
}

// WeeklySchedule maps lowercase weekday names ("monday".."sunday") to the
// doctor's window for that day. Stored as a JSON column.
type WeeklySchedule map[string]DayWindow

// Value implements driver.Valuer so GORM can persist the schedule as JSON.
func (w WeeklySchedule) Value() (driver.Value, error) {
	if w == nil {
		return "{}", nil
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (w *WeeklySchedule) Scan(value interface{}) error {
	if value == nil {
		*w = WeeklySchedule{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for WeeklySchedule", value)
	}
	return json.Unmarshal(data, w)
}

// Doctor is the professional profile attached to a user with the doctor role.
type Doctor struct {
	BaseModel
	UserID            string         `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Specialty         string         `gorm:"size:100" json:"specialty"`
	LicenseNumber     string         `gorm:"size:100" json:"licenseNumber"`
	YearsOfExperience int            `json:"yearsOfExperience"`
	Biography         string         `gorm:"type:text" json:"biography"`
	ConsultationFee   float64        `json:"consultationFee"`
	Rating            float64        `gorm:"default:0" json:"rating"`
	TotalReviews      int            `gorm:"default:0" json:"totalReviews"`
	IsAvailable       bool           `gorm:"default:true" json:"isAvailable"`
	WeeklyAvailability WeeklySchedule `gorm:"type:json" json:"weeklyAvailability"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// DefaultWeeklySchedule is the schedule a new doctor profile starts with:
// weekdays 09:00-17:00, weekend off.
func DefaultWeeklySchedule() WeeklySchedule {
	sched := WeeklySchedule{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		sched[day] = DayWindow{Start: "09:00", End: "17:00", IsAvailable: true}
	}
	for _, day := range []string{"saturday", "sunday"} {
		sched[day] = DayWindow{Start: "", End: "", IsAvailable: false}
	}
	return sched
}
