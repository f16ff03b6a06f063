package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// MaxRefills is the hard cap on prescription refills.
const MaxRefills = 3

// Medication is a single entry on a prescription.
type Medication struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions"`
}

// MedicationList is a []Medication persisted as a JSON column.
type MedicationList []Medication

// Value implements driver.Valuer.
func (m MedicationList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *MedicationList) Scan(value interface{}) error {
	if value == nil {
		*m = MedicationList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for MedicationList", value)
	}
	return json.Unmarshal(data, m)
}

// Prescription is issued by a doctor for a patient, optionally tied to the
// appointment it came out of.
type Prescription struct {
	BaseModel
	PatientID     string         `gorm:"size:36;index" json:"patientId"`
	DoctorID      string         `gorm:"size:36;index" json:"doctorId"`
	AppointmentID string         `gorm:"size:36;index" json:"appointmentId,omitempty"`
	Medications   MedicationList `gorm:"type:json" json:"medications"`
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	IsDispensed   bool           `gorm:"default:false" json:"isDispensed"`
	DispensedBy   string         `gorm:"size:36" json:"dispensedBy,omitempty"`
	DispensedAt   *time.Time     `json:"dispensedAt,omitempty"`
	IsRefillable  bool           `gorm:"default:false" json:"isRefillable"`
	RefillCount   int            `gorm:"default:0" json:"refillCount"`
	ExpiryDate    *time.Time     `json:"expiryDate,omitempty"`

	// Relations
	Patient Patient `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID" json:"-"`
}
