package dto

import "github.com/noah-isme/sma-coins-api/internal/models"

// UpsertOverrideRequest forces the qualified flag of a date for a student.
type UpsertOverrideRequest struct {
	Date         string              `json:"date" validate:"required"`
	DayNumber    int                 `json:"dayNumber" validate:"gte=1"`
	OverrideType models.OverrideType `json:"overrideType" validate:"required"`
	Reason       string              `json:"reason" validate:"max=2000"`
}
