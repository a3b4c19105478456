package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-coins-api/internal/models"
)

var hundred = decimal.NewFromInt(100)

// ApplyOverrides returns a copy of records with qualified and reason replaced
// by the override sharing each record's calendar date. Records are matched by
// date, never by day number. Overrides without a matching record are ignored.
func ApplyOverrides(records []models.DailyRecord, overrides []models.Override) []models.DailyRecord {
	effective := make([]models.DailyRecord, len(records))
	copy(effective, records)
	if len(overrides) == 0 {
		return effective
	}

	byDate := make(map[string]models.Override, len(overrides))
	for _, o := range overrides {
		byDate[models.DateKey(o.Date)] = o
	}
	for i := range effective {
		o, ok := byDate[models.DateKey(effective[i].Date)]
		if !ok {
			continue
		}
		effective[i].Qualified = o.OverrideType == models.OverrideQualified
		effective[i].Reason = o.Reason
	}
	return effective
}

// DeriveProgress computes the progress of one dataset. It has no side effects
// and does not mutate its inputs.
//
// Exempt days never count toward the working-day denominator, but a student who
// would have qualified on one earns a bonus coin, so the percentage may exceed
// 100. It is not clamped.
func DeriveProgress(records []models.DailyRecord, overrides []models.Override) models.Progress {
	effective := ApplyOverrides(records, overrides)

	var working, qualifiedWorking, exemptCredits int
	for _, rec := range effective {
		if rec.IsExcluded {
			if rec.WouldHaveQualified {
				exemptCredits++
			}
			continue
		}
		working++
		if rec.Qualified {
			qualifiedWorking++
		}
	}

	progress := models.Progress{
		Coins:            qualifiedWorking + exemptCredits,
		ExemptDayCredits: exemptCredits,
		QualifiedWorking: qualifiedWorking,
		WorkingDays:      working,
	}
	if working > 0 {
		percent := decimal.NewFromInt(int64(qualifiedWorking + exemptCredits)).
			Mul(hundred).
			Div(decimal.NewFromInt(int64(working))).
			Round(1)
		progress.PercentComplete, _ = percent.Float64()
	}
	return progress
}
