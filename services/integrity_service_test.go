package services

import (
	"testing"

	"peer-review-api/config"
	"peer-review-api/models"
)

func TestMajorityDecision(t *testing.T) {
	if majorityDecision(80) != models.ReviewDecisionReinstate {
		t.Fatal("80% reinstate should be reinstate majority")
	}
	if majorityDecision(50) != models.ReviewDecisionEliminate {
		t.Fatal("an even split should count as eliminate majority")
	}
	// A 60% reinstate vote is a reinstate majority here even though the
	// verdict rule calls the same round AI_DECISION_UPHELD.
	if majorityDecision(60) != models.ReviewDecisionReinstate {
		t.Fatal("60% reinstate should be reinstate majority")
	}
}

func TestIntegrityDeltaControlItems(t *testing.T) {
	settings := config.LoadReviewSettings()
	failed := models.AIDecisionFailed
	passed := models.AIDecisionPassed

	// AI said FAILED, reviewer voted ELIMINATE: agreement with ground truth.
	got := integrityDelta(false, &failed, models.ReviewDecisionEliminate, 20, 80, settings)
	if got != 10 {
		t.Fatalf("delta = %v, want 10", got)
	}

	// AI said PASSED, reviewer voted ELIMINATE: contradiction.
	got = integrityDelta(false, &passed, models.ReviewDecisionEliminate, 20, 80, settings)
	if got != -5 {
		t.Fatalf("delta = %v, want -5", got)
	}

	// No ground truth recorded: no adjustment.
	got = integrityDelta(false, nil, models.ReviewDecisionEliminate, 20, 80, settings)
	if got != 0 {
		t.Fatalf("delta = %v, want 0", got)
	}
}

func TestIntegrityDeltaContestedItems(t *testing.T) {
	settings := config.LoadReviewSettings()

	// Majority reinstate at 80%, reviewer voted with it.
	got := integrityDelta(true, nil, models.ReviewDecisionReinstate, 80, 20, settings)
	if got != 5 {
		t.Fatalf("delta = %v, want 5", got)
	}

	// Reviewer in a 20% minority, below the 30% threshold: penalized.
	got = integrityDelta(true, nil, models.ReviewDecisionEliminate, 80, 20, settings)
	if got != -3 {
		t.Fatalf("delta = %v, want -3", got)
	}

	// Reviewer in a 35% minority: reasonable disagreement, no penalty.
	got = integrityDelta(true, nil, models.ReviewDecisionEliminate, 65, 35, settings)
	if got != 0 {
		t.Fatalf("delta = %v, want 0", got)
	}
}

func TestIntegrityDeltaMajorityMismatchWithVerdict(t *testing.T) {
	settings := config.LoadReviewSettings()

	// A 60/40 reinstate split upholds the AI decision as the verdict, yet
	// reinstate voters still earn the majority bonus. Preserved behavior.
	got := integrityDelta(true, nil, models.ReviewDecisionReinstate, 60, 40, settings)
	if got != 5 {
		t.Fatalf("delta = %v, want 5", got)
	}
	// The eliminate side sits at 40%, above the penalty threshold.
	got = integrityDelta(true, nil, models.ReviewDecisionEliminate, 60, 40, settings)
	if got != 0 {
		t.Fatalf("delta = %v, want 0", got)
	}
}
