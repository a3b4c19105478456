package models

import "time"

// DailyRecord is one ingested day of activity for a student within a
// (period, section) dataset. Qualified and Reason are the ingested values;
// overrides replace them at read time and never touch the stored row.
type DailyRecord struct {
	ID                 string    `db:"id" json:"id"`
	StudentID          string    `db:"student_id" json:"studentId"`
	PeriodKey          string    `db:"period_key" json:"period"`
	Section            int       `db:"section_number" json:"sectionNumber"`
	Day                int       `db:"day_number" json:"day"`
	Date               time.Time `db:"record_date" json:"date"`
	Qualified          bool      `db:"qualified" json:"qualified"`
	Minutes            int       `db:"minutes" json:"minutes"`
	Topics             int       `db:"topics" json:"topics"`
	Reason             string    `db:"reason" json:"reason"`
	IsExcluded         bool      `db:"is_excluded" json:"isExcluded"`
	WouldHaveQualified bool      `db:"would_have_qualified" json:"wouldHaveQualified"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
}

// Dataset identifies the (student, period, section) collection a record belongs to.
type Dataset struct {
	StudentID string `db:"student_id" json:"studentId"`
	PeriodKey string `db:"period_key" json:"period"`
	Section   int    `db:"section_number" json:"sectionNumber"`
}

// MinSection is the lowest section number a dataset can carry.
const MinSection = 1

// ValidSection reports whether n can name a dataset section.
func ValidSection(n int) bool { return n >= MinSection }
