package services

import (
	"database/sql/driver"
	"regexp"
	"testing"

	"peer-review-api/config"
)

func TestEligibleSubmissionsContestNotFound(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM "contests"`),
			columns: []string{"contest_id"},
			rows:    [][]driver.Value{},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewEligibilityService(db)
	_, err := service.EligibleSubmissions(404)
	if err == nil || KindOf(err) != KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestEligibleSubmissionsEmptyIsNotAnError(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM "contests"`),
			columns: []string{"contest_id"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile(`SELECT .* FROM "submissions"`),
			columns: []string{"submission_id", "contest_id", "user_id", "status"},
			rows:    [][]driver.Value{},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	service := NewEligibilityService(db)
	submissions, err := service.EligibleSubmissions(1)
	if err != nil {
		t.Fatalf("empty set must not be an error, got %v", err)
	}
	if len(submissions) != 0 {
		t.Fatalf("expected no submissions, got %d", len(submissions))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestOverrideRequiresJustification(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	service := NewAdminService(db, config.LoadReviewSettings())
	_, err := service.Override(1, "REINSTATED", "too short", 9, "127.0.0.1")
	if err == nil || KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for short justification, got %v", err)
	}
}

func TestOverrideRejectsUnknownOutcome(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	service := NewAdminService(db, config.LoadReviewSettings())
	_, err := service.Override(1, "PROMOTED", "a justification that is long enough", 9, "127.0.0.1")
	if err == nil || KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for unknown outcome, got %v", err)
	}
}

func TestReassignRequiresJustification(t *testing.T) {
	db, _, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	service := NewAdminService(db, config.LoadReviewSettings())
	_, err := service.Reassign(1, 2, "   ", 9, "127.0.0.1")
	if err == nil || KindOf(err) != KindValidation {
		t.Fatalf("expected validation error for missing justification, got %v", err)
	}
}
