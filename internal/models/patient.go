package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a []string persisted as a JSON column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	return json.Unmarshal(data, l)
}

// EmergencyContact is the person to call on a patient's behalf.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// Value implements driver.Valuer.
func (e EmergencyContact) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (e *EmergencyContact) Scan(value interface{}) error {
	if value == nil {
		*e = EmergencyContact{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for EmergencyContact", value)
	}
	return json.Unmarshal(data, e)
}

// InsuranceInfo holds a patient's coverage details.
type InsuranceInfo struct {
	Provider     string `json:"provider"`
	PolicyNumber string `json:"policyNumber"`
}

// Value implements driver.Valuer.
func (i InsuranceInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (i *InsuranceInfo) Scan(value interface{}) error {
	if value == nil {
		*i = InsuranceInfo{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for InsuranceInfo", value)
	}
	return json.Unmarshal(data, i)
}

// Patient is the medical profile attached to a user with the patient role.
type Patient struct {
	BaseModel
	UserID             string           `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	EmergencyContact   EmergencyContact `gorm:"type:json" json:"emergencyContact"`
	MedicalHistory     StringList       `gorm:"type:json" json:"medicalHistory"`
	Allergies          StringList       `gorm:"type:json" json:"allergies"`
	CurrentMedications StringList       `gorm:"type:json" json:"currentMedications"`
	Insurance          InsuranceInfo    `gorm:"type:json" json:"insurance"`
	PreferredLanguage  string           `gorm:"size:50" json:"preferredLanguage"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
