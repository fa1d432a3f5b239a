package services

import (
	"testing"
)

func makeCandidates(owners ...uint) []reviewCandidate {
	candidates := make([]reviewCandidate, len(owners))
	for i, owner := range owners {
		candidates[i] = reviewCandidate{SubmissionID: uint(i + 1), OwnerID: owner}
	}
	return candidates
}

func TestBalanceAssignmentsNoSelfReview(t *testing.T) {
	reviewers := []uint{1, 2, 3}
	candidates := makeCandidates(1, 1, 2, 2, 3, 3)

	pairs := balanceAssignments(reviewers, candidates, 4, nil, nil)

	owner := map[uint]uint{}
	for _, candidate := range candidates {
		owner[candidate.SubmissionID] = candidate.OwnerID
	}
	for _, pair := range pairs {
		if owner[pair.SubmissionID] == pair.ReviewerID {
			t.Fatalf("reviewer %d assigned own submission %d", pair.ReviewerID, pair.SubmissionID)
		}
	}
}

func TestBalanceAssignmentsRespectsQuota(t *testing.T) {
	reviewers := []uint{1, 2, 3, 4, 5}
	owners := make([]uint, 40)
	for i := range owners {
		owners[i] = uint(i%5 + 1)
	}
	quota := 10

	pairs := balanceAssignments(reviewers, makeCandidates(owners...), quota, nil, nil)

	perReviewer := map[uint]int{}
	for _, pair := range pairs {
		perReviewer[pair.ReviewerID]++
	}
	for reviewer, count := range perReviewer {
		if count > quota {
			t.Fatalf("reviewer %d exceeded quota: %d", reviewer, count)
		}
	}
}

func TestBalanceAssignmentsBounded(t *testing.T) {
	// With ample supply the greedy balancer keeps per-submission counts
	// within a small spread.
	reviewers := []uint{1, 2, 3, 4, 5, 6}
	owners := make([]uint, 30)
	for i := range owners {
		owners[i] = uint(i%6 + 1)
	}
	quota := 10

	pairs := balanceAssignments(reviewers, makeCandidates(owners...), quota, nil, nil)

	perSubmission := map[uint]int{}
	for _, pair := range pairs {
		perSubmission[pair.SubmissionID]++
	}
	min, max := 1<<30, 0
	for i := 1; i <= len(owners); i++ {
		count := perSubmission[uint(i)]
		if count < min {
			min = count
		}
		if count > max {
			max = count
		}
	}
	if max-min > 2 {
		t.Fatalf("review counts spread too wide: min=%d max=%d", min, max)
	}
}

func TestBalanceAssignmentsShortSupply(t *testing.T) {
	// Two submissions, both owned by reviewer 1: reviewer 1 gets nothing,
	// reviewer 2 gets both. Short supply is a warning, not an error.
	reviewers := []uint{1, 2}
	candidates := makeCandidates(1, 1)

	pairs := balanceAssignments(reviewers, candidates, 10, nil, nil)

	perReviewer := map[uint]int{}
	for _, pair := range pairs {
		perReviewer[pair.ReviewerID]++
	}
	if perReviewer[1] != 0 {
		t.Fatalf("reviewer 1 should have no assignments, got %d", perReviewer[1])
	}
	if perReviewer[2] != 2 {
		t.Fatalf("reviewer 2 should review both submissions, got %d", perReviewer[2])
	}
}

func TestBalanceAssignmentsNoDuplicatePairs(t *testing.T) {
	reviewers := []uint{1, 2, 3}
	candidates := makeCandidates(1, 2, 3, 1, 2, 3)

	pairs := balanceAssignments(reviewers, candidates, 6, nil, nil)

	seen := map[assignmentPair]bool{}
	for _, pair := range pairs {
		if seen[pair] {
			t.Fatalf("duplicate pair %+v", pair)
		}
		seen[pair] = true
	}
}

func TestBalanceAssignmentsSkipsExistingActivePairs(t *testing.T) {
	reviewers := []uint{1}
	candidates := makeCandidates(2, 2)
	taken := map[assignmentPair]bool{
		{ReviewerID: 1, SubmissionID: 1}: true,
	}

	pairs := balanceAssignments(reviewers, candidates, 10, map[uint]int{1: 1}, taken)

	if len(pairs) != 1 || pairs[0].SubmissionID != 2 {
		t.Fatalf("expected only submission 2 assigned, got %+v", pairs)
	}
}

func TestBalanceAssignmentsDeterministicTieBreak(t *testing.T) {
	reviewers := []uint{9}
	candidates := makeCandidates(2, 2, 2, 2)

	first := balanceAssignments(reviewers, candidates, 2, nil, nil)
	second := balanceAssignments(reviewers, candidates, 2, nil, nil)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 pairs, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-deterministic pick at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	// Ties break by ascending submission id.
	if first[0].SubmissionID != 1 || first[1].SubmissionID != 2 {
		t.Fatalf("unexpected tie-break order: %+v", first)
	}
}
