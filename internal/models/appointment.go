package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentType distinguishes in-person visits from online consultations.
type AppointmentType string

const (
	TypeInPerson AppointmentType = "in-person"
	TypeOnline   AppointmentType = "online"
)

// statusTransitions is the legal transition table. Completed and cancelled
// are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to AppointmentStatus) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActiveStatus reports whether a status counts against slot availability.
func IsActiveStatus(s AppointmentStatus) bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment represents a scheduled consultation. Date is the calendar day;
// StartTime/EndTime are "HH:MM" strings in the clinic's local time. At most
// one pending or confirmed appointment may exist per
// (doctor, date, startTime) slot.
type Appointment struct {
	BaseModel
	PatientID    string            `gorm:"size:36;index" json:"patientId"`
	DoctorID     string            `gorm:"size:36;index:idx_doctor_slot" json:"doctorId"`
	Date         time.Time         `gorm:"index:idx_doctor_slot" json:"date"`
	StartTime    string            `gorm:"size:5;index:idx_doctor_slot" json:"startTime"`
	EndTime      string            `gorm:"size:5" json:"endTime"`
	Type         AppointmentType   `gorm:"size:20;default:'in-person'" json:"type"`
	Status       AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reason       string            `gorm:"size:255" json:"reason"`
	Notes        string            `gorm:"type:text" json:"notes"`
	Diagnosis    string            `gorm:"type:text" json:"diagnosis,omitempty"`
	Treatment    string            `gorm:"type:text" json:"treatment,omitempty"`
	FollowUpDate *time.Time        `json:"followUpDate,omitempty"`
	MeetingLink  string            `gorm:"size:255" json:"meetingLink,omitempty"`
	CancelledBy  string            `gorm:"size:36" json:"cancelledBy,omitempty"`
	CancelReason string            `gorm:"size:255" json:"cancelReason,omitempty"`
	CancelledAt  *time.Time        `json:"cancelledAt,omitempty"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"-"`
}
