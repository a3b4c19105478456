package models

// Progress is the derived state of one (period, section) dataset.
type Progress struct {
	PercentComplete  float64 `json:"percentComplete"`
	Coins            int     `json:"coins"`
	ExemptDayCredits int     `json:"exemptDayCredits"`
	QualifiedWorking int     `json:"qualifiedWorking"`
	WorkingDays      int     `json:"workingDays"`
}

// DatasetProgress pairs a dataset with its derived progress and effective days.
type DatasetProgress struct {
	Dataset
	Progress
	Days []DailyRecord `json:"days,omitempty"`
}

// PeriodBalance is one line of a student's balance breakdown.
type PeriodBalance struct {
	Period     string `json:"period"`
	Section    int    `json:"sectionNumber"`
	Coins      int    `json:"coins"`
	Adjustment int    `json:"adjustment"`
	Total      int    `json:"total"`
}

// Balance is the aggregate coin balance of a student. Total is clamped at zero;
// Unclamped keeps the raw sum for diagnostics.
type Balance struct {
	StudentID        string          `json:"studentId"`
	Total            int             `json:"total"`
	Unclamped        int             `json:"unclamped"`
	GlobalAdjustment int             `json:"globalAdjustment"`
	PerPeriod        []PeriodBalance `json:"perPeriod"`
}
