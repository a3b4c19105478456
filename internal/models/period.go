package models

import "time"

// Period is a named grading window. Dates in ExcludedDates are exempt days:
// they do not count toward required progress but can still earn bonus coins.
type Period struct {
	Key           string      `db:"key" json:"key"`
	Name          string      `db:"name" json:"name"`
	StartDate     time.Time   `db:"start_date" json:"startDate"`
	EndDate       time.Time   `db:"end_date" json:"endDate"`
	ExcludedDates []time.Time `db:"-" json:"excludedDates"`
	CreatedAt     time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updatedAt"`
}

// IsExcluded reports whether date is one of the period's exempt days.
func (p *Period) IsExcluded(date time.Time) bool {
	key := DateKey(date)
	for _, d := range p.ExcludedDates {
		if DateKey(d) == key {
			return true
		}
	}
	return false
}

// Contains reports whether date falls inside [StartDate, EndDate].
func (p *Period) Contains(date time.Time) bool {
	day := TruncateDate(date)
	return !day.Before(TruncateDate(p.StartDate)) && !day.After(TruncateDate(p.EndDate))
}

// PeriodExcludedDate is a row of the period_excluded_dates table.
type PeriodExcludedDate struct {
	PeriodKey string    `db:"period_key"`
	Date      time.Time `db:"excluded_date"`
}
