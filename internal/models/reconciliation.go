package models

// InconsistencyKind classifies a mismatch between adjustments and requests.
type InconsistencyKind string

const (
	// An adjustment references a request id with no request row.
	InconsistencyMissingRequest InconsistencyKind = "MISSING_REQUEST"
	// A rejected request still has an active deduction.
	InconsistencyRejectedActive InconsistencyKind = "REJECTED_WITH_ACTIVE_ADJUSTMENT"
	// A pending or approved redemption lost its deduction.
	InconsistencyLiveInactive InconsistencyKind = "LIVE_REQUEST_WITH_INACTIVE_ADJUSTMENT"
	// A pending or approved redemption has no linked adjustment at all.
	InconsistencyNoAdjustment InconsistencyKind = "REDEMPTION_WITHOUT_ADJUSTMENT"
)

// Repairable reports whether Repair may fix the finding automatically.
func (k InconsistencyKind) Repairable() bool {
	return k == InconsistencyMissingRequest || k == InconsistencyRejectedActive
}

// Inconsistency is a single reconciliation finding.
type Inconsistency struct {
	Kind           InconsistencyKind `db:"kind" json:"kind"`
	AdjustmentID   *string           `db:"adjustment_id" json:"adjustmentId,omitempty"`
	RequestID      string            `db:"request_id" json:"requestId"`
	StudentID      string            `db:"student_id" json:"studentId"`
	Amount         *int              `db:"amount" json:"amount,omitempty"`
	RequestStatus  *string           `db:"request_status" json:"requestStatus,omitempty"`
	AdjustmentLive *bool             `db:"adjustment_active" json:"adjustmentActive,omitempty"`
}
