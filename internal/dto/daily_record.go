package dto

// DailyRecordInput is one already-parsed day of activity.
type DailyRecordInput struct {
	Day                int    `json:"day" validate:"gte=1"`
	Date               string `json:"date" validate:"required"`
	Qualified          bool   `json:"qualified"`
	Minutes            int    `json:"minutes" validate:"gte=0"`
	Topics             int    `json:"topics" validate:"gte=0"`
	Reason             string `json:"reason"`
	WouldHaveQualified bool   `json:"wouldHaveQualified"`
}

// IngestRecordsRequest replaces the dataset of a (student, period, section).
type IngestRecordsRequest struct {
	Records []DailyRecordInput `json:"records" validate:"dive"`
}

// IngestRecordsResult summarises an ingestion.
type IngestRecordsResult struct {
	StudentID string `json:"studentId"`
	Period    string `json:"period"`
	Section   int    `json:"sectionNumber"`
	Stored    int    `json:"stored"`
	Exempt    int    `json:"exempt"`
}
