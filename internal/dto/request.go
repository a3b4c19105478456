package dto

import "github.com/noah-isme/sma-coins-api/internal/models"

// SubmitRequestInput is the payload a student posts to open a request.
// DayNumber and OverrideDate are required for override requests only.
type SubmitRequestInput struct {
	StudentID    string             `json:"studentId" validate:"required"`
	Period       string             `json:"period" validate:"required"`
	Section      int                `json:"sectionNumber" validate:"gte=1"`
	Type         models.RequestType `json:"type" validate:"required"`
	Details      string             `json:"details" validate:"required,max=2000"`
	DayNumber    *int               `json:"dayNumber,omitempty" validate:"omitempty,gte=1"`
	OverrideDate string             `json:"overrideDate,omitempty"`
}

// SubmitRequestResult is returned after a successful submission.
type SubmitRequestResult struct {
	RequestID    string               `json:"requestId"`
	Status       models.RequestStatus `json:"status"`
	CoinsDebited int                  `json:"coinsDebited"`
	AdjustmentID string               `json:"adjustmentId,omitempty"`
}

// ProcessRequestInput carries an administrator's decision.
type ProcessRequestInput struct {
	Decision models.RequestStatus `json:"decision" validate:"required"`
	Notes    string               `json:"notes" validate:"max=2000"`
}

// ProcessRequestResult reports the outcome of a transition.
type ProcessRequestResult struct {
	Request    *models.StudentRequest `json:"request"`
	OverrideID string                 `json:"overrideId,omitempty"`
	Refunded   int                    `json:"refunded,omitempty"`
}

// MagicApproveResult lists the requests approved and those left untouched.
type MagicApproveResult struct {
	Approved []string          `json:"approved"`
	Skipped  []string          `json:"skipped"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// RequestQuery mirrors supported listing filters.
type RequestQuery struct {
	StudentID string
	Status    []models.RequestStatus
	Type      models.RequestType
	Limit     int
	Offset    int
}
