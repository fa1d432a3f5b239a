package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

// joinColumns resolves a declared relation and returns the two endpoints
// GORM will join on, as "Struct.column" strings.
func joinColumns(t *testing.T, model interface{}, relation string) map[string]bool {
	t.Helper()
	parsed, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("failed to parse schema: %v", err)
	}
	rel, ok := parsed.Relationships.Relations[relation]
	if !ok {
		t.Fatalf("relation %s not declared on %s", relation, parsed.Name)
	}
	if len(rel.References) != 1 {
		t.Fatalf("relation %s: expected 1 reference, got %d", relation, len(rel.References))
	}
	ref := rel.References[0]
	return map[string]bool{
		ref.PrimaryKey.Schema.Name + "." + ref.PrimaryKey.DBName: true,
		ref.ForeignKey.Schema.Name + "." + ref.ForeignKey.DBName: true,
	}
}

// A foreignKey tag naming a field that doubles as the related struct's
// primary key needs an explicit references tag, otherwise GORM joins the
// relation on the owner's primary key and every Preload loads garbage.
func TestRelationJoinKeys(t *testing.T) {
	tests := []struct {
		name     string
		model    interface{}
		relation string
		endA     string
		endB     string
	}{
		{"assignment submission", &ReviewAssignment{}, "Submission", "ReviewAssignment.submission_id", "Submission.submission_id"},
		{"assignment reviewer", &ReviewAssignment{}, "Reviewer", "ReviewAssignment.reviewer_user_id", "User.user_id"},
		{"review assignment", &PeerReview{}, "Assignment", "PeerReview.assignment_id", "ReviewAssignment.assignment_id"},
		{"submission owner", &Submission{}, "User", "Submission.user_id", "User.user_id"},
		{"submission result", &Submission{}, "Result", "Submission.submission_id", "PeerReviewResult.submission_id"},
		{"user role", &User{}, "Role", "User.role_id", "Role.role_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			join := joinColumns(t, tt.model, tt.relation)
			if !join[tt.endA] || !join[tt.endB] {
				t.Errorf("relation %s joins on %v, want %s = %s", tt.relation, join, tt.endA, tt.endB)
			}
		})
	}
}
