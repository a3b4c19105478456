package models

import "time"

// GlobalPeriod marks an adjustment that applies to the aggregate balance only.
const GlobalPeriod = "GLOBAL"

// CoinAdjustment is a signed coin delta. Inactive adjustments are kept for the
// audit trail and ignored by every balance computation.
type CoinAdjustment struct {
	ID            string     `db:"id" json:"id"`
	StudentID     string     `db:"student_id" json:"studentId"`
	Period        string     `db:"period_key" json:"period"`
	Section       int        `db:"section_number" json:"sectionNumber"`
	Amount        int        `db:"amount" json:"amount"`
	Reason        string     `db:"reason" json:"reason"`
	CreatedBy     string     `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	IsActive      bool       `db:"is_active" json:"isActive"`
	RequestID     *string    `db:"request_id" json:"requestId,omitempty"`
	DeactivatedAt *time.Time `db:"deactivated_at" json:"deactivatedAt,omitempty"`
}

// IsGlobal reports whether the adjustment is cross-period.
func (a *CoinAdjustment) IsGlobal() bool {
	return a.Period == GlobalPeriod
}

// AdjustmentFilter constrains listing queries.
type AdjustmentFilter struct {
	StudentID       string
	Period          string
	IncludeInactive bool
}
