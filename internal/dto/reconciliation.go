package dto

import "github.com/noah-isme/sma-coins-api/internal/models"

// RepairRequest selects which finding kinds to repair. Empty means every
// repairable kind.
type RepairRequest struct {
	Kinds []models.InconsistencyKind `json:"kinds"`
}

// RepairResult lists the adjustments deactivated by a repair run.
type RepairResult struct {
	Deactivated []string               `json:"deactivated"`
	Remaining   []models.Inconsistency `json:"remaining"`
}
