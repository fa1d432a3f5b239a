package config

import (
	"os"
	"strconv"
)

// ReviewSettings holds the tunables of the peer-review engine. Values come
// from environment variables with the defaults used in production.
type ReviewSettings struct {
	QuotaPerReviewer     int     // assignments handed to each reviewer
	DeadlineDays         int     // days from assignment to deadline
	FinalistCount        int     // submissions promoted at phase end
	ReinstateThreshold   float64 // percent of reinstate votes needed to reinstate
	EliminateThreshold   float64 // percent of eliminate votes needed to confirm elimination
	MinorityPenaltyBelow float64 // minority share below which a dissenting review is penalized
	IntegrityFlagBelow   float64 // integrity score below which a reviewer is flagged for admin review
	QualifiedMinReviews  int64   // completed assignments required for qualified evaluator status
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// LoadReviewSettings reads the engine configuration from the environment.
func LoadReviewSettings() ReviewSettings {
	return ReviewSettings{
		QuotaPerReviewer:     envInt("REVIEW_QUOTA", 10),
		DeadlineDays:         envInt("REVIEW_DEADLINE_DAYS", 7),
		FinalistCount:        envInt("FINALIST_COUNT", 100),
		ReinstateThreshold:   envFloat("REINSTATE_THRESHOLD", 70),
		EliminateThreshold:   envFloat("ELIMINATE_THRESHOLD", 70),
		MinorityPenaltyBelow: envFloat("MINORITY_PENALTY_BELOW", 30),
		IntegrityFlagBelow:   envFloat("INTEGRITY_FLAG_THRESHOLD", -20),
		QualifiedMinReviews:  int64(envInt("QUALIFIED_MIN_COMPLETED", 3)),
	}
}
