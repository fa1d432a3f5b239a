package services

import (
	"testing"

	"peer-review-api/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestRankFinalistsTieBreakAndDenseRank(t *testing.T) {
	candidates := []models.Submission{
		{SubmissionID: 3, UserID: 30, ScorePeer: floatPtr(8.0)},
		{SubmissionID: 2, UserID: 20, ScorePeer: floatPtr(9.1)},
		{SubmissionID: 1, UserID: 10, ScorePeer: floatPtr(9.1)},
	}

	picks := rankFinalists(candidates, 2)

	if len(picks) != 2 {
		t.Fatalf("expected 2 finalists, got %d", len(picks))
	}
	// Equal scores break by ascending submission id; ranks are dense 1..N.
	if picks[0].SubmissionID != 1 || picks[0].Rank != 1 {
		t.Fatalf("first pick = %+v", picks[0])
	}
	if picks[1].SubmissionID != 2 || picks[1].Rank != 2 {
		t.Fatalf("second pick = %+v", picks[1])
	}
}

func TestRankFinalistsSkipsUnscored(t *testing.T) {
	candidates := []models.Submission{
		{SubmissionID: 1, ScorePeer: nil},
		{SubmissionID: 2, ScorePeer: floatPtr(5.5)},
	}

	picks := rankFinalists(candidates, 10)

	if len(picks) != 1 || picks[0].SubmissionID != 2 {
		t.Fatalf("expected only scored submission, got %+v", picks)
	}
}

func TestRankFinalistsLimitLargerThanPool(t *testing.T) {
	candidates := []models.Submission{
		{SubmissionID: 1, ScorePeer: floatPtr(7.0)},
		{SubmissionID: 2, ScorePeer: floatPtr(6.0)},
	}

	picks := rankFinalists(candidates, 100)

	if len(picks) != 2 {
		t.Fatalf("expected 2 finalists, got %d", len(picks))
	}
	if picks[0].SubmissionID != 1 || picks[1].SubmissionID != 2 {
		t.Fatalf("unexpected order: %+v", picks)
	}
}

func TestRankFinalistsStableAcrossRuns(t *testing.T) {
	candidates := []models.Submission{
		{SubmissionID: 5, ScorePeer: floatPtr(4.2)},
		{SubmissionID: 4, ScorePeer: floatPtr(4.2)},
		{SubmissionID: 9, ScorePeer: floatPtr(4.2)},
	}

	first := rankFinalists(candidates, 3)
	second := rankFinalists(candidates, 3)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ranking diverged at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].SubmissionID != 4 || first[1].SubmissionID != 5 || first[2].SubmissionID != 9 {
		t.Fatalf("unexpected tie-break order: %+v", first)
	}
}
