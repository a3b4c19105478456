package dto

// CreateAdjustmentRequest records a manual coin correction. An empty or
// "GLOBAL" period creates a cross-period adjustment and ignores Section;
// period-scoped adjustments need a section of at least 1.
type CreateAdjustmentRequest struct {
	Period  string `json:"period"`
	Section int    `json:"sectionNumber" validate:"gte=0"`
	Amount  int    `json:"amount" validate:"required,ne=0"`
	Reason  string `json:"reason" validate:"required,max=2000"`
}
