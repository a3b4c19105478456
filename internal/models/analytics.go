package models

import "time"

// PeriodSummary aggregates derived progress across a (period, section).
type PeriodSummary struct {
	Period         string    `json:"period"`
	Section        int       `json:"sectionNumber"`
	Students       int       `json:"students"`
	AveragePercent float64   `json:"averagePercent"`
	TotalCoins     int       `json:"totalCoins"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

// LeaderboardEntry is one ranked student balance.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	StudentID string `json:"studentId"`
	Total     int    `json:"total"`
}

// SystemMetrics reports process-level instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
