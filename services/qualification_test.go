package services

import (
	"database/sql/driver"
	"regexp"
	"testing"

	"peer-review-api/config"
)

var userColumns = []string{"user_id", "integrity_score", "qualified_evaluator", "integrity_flagged", "is_banned"}

func qualificationSteps(score float64, qualified bool, completed int64, expectUpdate bool) []*queryStep {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM "users"`),
			columns: userColumns,
			rows:    [][]driver.Value{{int64(7), score, qualified, false, false}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT count\(\*\) FROM "assignments"`),
			columns: []string{"count"},
			rows:    [][]driver.Value{{completed}},
		},
	}
	if expectUpdate {
		steps = append(steps, &queryStep{
			kind:    kindExec,
			pattern: regexp.MustCompile(`UPDATE "users"`),
			result:  scriptedResult{rowsAffected: 1},
		})
	}
	return steps
}

func TestQualificationNeedsThreeCompleted(t *testing.T) {
	// Two completed assignments with a positive score: still unqualified,
	// nothing to persist.
	db, state, cleanup := newScriptedGormDB(t, qualificationSteps(10, false, 2, false))
	defer cleanup()

	service := NewIntegrityService(db, config.LoadReviewSettings())
	if err := service.RecalculateQualification(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestQualificationNeedsNonNegativeScore(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, qualificationSteps(-1, false, 3, false))
	defer cleanup()

	service := NewIntegrityService(db, config.LoadReviewSettings())
	if err := service.RecalculateQualification(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestQualificationGrantedAtZeroScore(t *testing.T) {
	// Three completed and score exactly 0: grant, persisted on change.
	db, state, cleanup := newScriptedGormDB(t, qualificationSteps(0, false, 3, true))
	defer cleanup()

	service := NewIntegrityService(db, config.LoadReviewSettings())
	if err := service.RecalculateQualification(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestQualificationRevokedWhenScoreDrops(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, qualificationSteps(-4, true, 5, true))
	defer cleanup()

	service := NewIntegrityService(db, config.LoadReviewSettings())
	if err := service.RecalculateQualification(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestQualificationFlagsDeepNegativeScore(t *testing.T) {
	// Below -20 the reviewer is flagged for manual admin review. Marker
	// only; no automatic ban.
	db, state, cleanup := newScriptedGormDB(t, qualificationSteps(-25, false, 5, true))
	defer cleanup()

	service := NewIntegrityService(db, config.LoadReviewSettings())
	if err := service.RecalculateQualification(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
