package dto

// UpsertPeriodRequest defines or redefines a grading period.
type UpsertPeriodRequest struct {
	Key           string   `json:"key" validate:"required,max=64"`
	Name          string   `json:"name" validate:"max=255"`
	StartDate     string   `json:"startDate" validate:"required"`
	EndDate       string   `json:"endDate" validate:"required"`
	ExcludedDates []string `json:"excludedDates"`
}
