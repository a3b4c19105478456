package models

import "time"

// RequestType enumerates student request categories.
type RequestType string

const (
	RequestAssignmentReplacement RequestType = "assignment_replacement"
	RequestQuizReplacement       RequestType = "quiz_replacement"
	RequestOverride              RequestType = "override_request"
	RequestExtraCredit           RequestType = "extra_credit"
	RequestDataCorrection        RequestType = "data_correction"
)

// Valid returns true when the type is supported.
func (t RequestType) Valid() bool {
	switch t {
	case RequestAssignmentReplacement, RequestQuizReplacement, RequestOverride, RequestExtraCredit, RequestDataCorrection:
		return true
	default:
		return false
	}
}

// IsRedemption reports whether the request spends coins.
func (t RequestType) IsRedemption() bool {
	return t == RequestAssignmentReplacement || t == RequestQuizReplacement
}

// RequestStatus captures workflow states. Approved and rejected are terminal.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusApproved || s == RequestStatusRejected
}

// StudentRequest is a request submitted by a student and processed by an administrator.
type StudentRequest struct {
	ID           string        `db:"id" json:"id"`
	StudentID    string        `db:"student_id" json:"studentId"`
	Period       string        `db:"period_key" json:"period"`
	Section      int           `db:"section_number" json:"sectionNumber"`
	Type         RequestType   `db:"type" json:"type"`
	Details      string        `db:"details" json:"details"`
	DayNumber    *int          `db:"day_number" json:"dayNumber,omitempty"`
	OverrideDate *time.Time    `db:"override_date" json:"overrideDate,omitempty"`
	Status       RequestStatus `db:"status" json:"status"`
	AdminNotes   *string       `db:"admin_notes" json:"adminNotes,omitempty"`
	ProcessedAt  *time.Time    `db:"processed_at" json:"processedAt,omitempty"`
	ProcessedBy  *string       `db:"processed_by" json:"processedBy,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	StudentID string
	Status    []RequestStatus
	Type      RequestType
	Limit     int
	Offset    int
}
