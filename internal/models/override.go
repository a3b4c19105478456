package models

import "time"

// OverrideType forces the qualified flag of a day.
type OverrideType string

const (
	OverrideQualified    OverrideType = "qualified"
	OverrideNotQualified OverrideType = "not_qualified"
)

// Valid returns true when the type is supported.
func (t OverrideType) Valid() bool {
	return t == OverrideQualified || t == OverrideNotQualified
}

// Override replaces the qualified flag and reason of the record whose calendar
// date matches. At most one override exists per (student, date).
type Override struct {
	ID           string       `db:"id" json:"id"`
	StudentID    string       `db:"student_id" json:"studentId"`
	Date         time.Time    `db:"override_date" json:"date"`
	DayNumber    int          `db:"day_number" json:"dayNumber"`
	OverrideType OverrideType `db:"override_type" json:"overrideType"`
	Reason       string       `db:"reason" json:"reason"`
	CreatedBy    string       `db:"created_by" json:"createdBy"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updatedAt"`
}
