package identity

import (
	"testing"
	"time"

	"github.com/novanataka/registration/internal/model"
)

func submission(team, email string) model.Registration {
	return model.Registration{
		TeamName:  team,
		LeadEmail: email,
		Members: [model.MaxMembers]model.Member{
			{Name: "Ann", Phone: "12345", College: "NIT", Dept: "CSE", Year: "3"},
		},
	}
}

func TestResolve_NewRegistration(t *testing.T) {
	reg, isNew := Resolve(nil, submission("Orion", "a@x.com"))

	if !isNew {
		t.Error("Resolve(nil, ...) isNew = false, want true")
	}
	if reg.ID == "" {
		t.Error("new registration has no ID")
	}
	if reg.CreatedAt.IsZero() {
		t.Error("new registration has zero CreatedAt")
	}
	if reg.Edited() {
		t.Errorf("new registration UpdatedAt = %v, want zero", reg.UpdatedAt)
	}
}

func TestResolve_NewRegistrationsGetDistinctIDs(t *testing.T) {
	first, _ := Resolve(nil, submission("Orion", "a@x.com"))
	second, _ := Resolve(nil, submission("Vega", "b@x.com"))

	if first.ID == second.ID {
		t.Errorf("two new registrations share ID %q", first.ID)
	}
}

func TestResolve_EditPreservesIdentity(t *testing.T) {
	created := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	existing := &model.Registration{
		ID:        "cv37rs3pp9olc6atsptg",
		TeamName:  "Orion",
		LeadEmail: "a@x.com",
		CreatedAt: created,
	}

	resubmission := submission("Orion Prime", "a@x.com")
	resubmission.Members[1] = model.Member{Name: "Ben", Phone: "9", College: "NIT", Dept: "ECE", Year: "2"}

	merged, isNew := Resolve(existing, resubmission)

	if isNew {
		t.Error("Resolve(existing, ...) isNew = true, want false")
	}
	if merged.ID != existing.ID {
		t.Errorf("ID = %q, want preserved %q", merged.ID, existing.ID)
	}
	if !merged.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want preserved %v", merged.CreatedAt, created)
	}
	if !merged.Edited() {
		t.Error("edit did not stamp UpdatedAt")
	}

	// Every other field comes from the resubmission.
	if merged.TeamName != "Orion Prime" {
		t.Errorf("TeamName = %q, want %q", merged.TeamName, "Orion Prime")
	}
	if merged.Members[1].Name != "Ben" {
		t.Errorf("Members[1].Name = %q, want %q", merged.Members[1].Name, "Ben")
	}
	if merged.MemberCount() != 2 {
		t.Errorf("MemberCount() = %d, want 2", merged.MemberCount())
	}
}

func TestResolve_EditOverwritesAllMutableFields(t *testing.T) {
	existing := &model.Registration{
		ID:        "cv37rs3pp9olc6atsptg",
		TeamName:  "Orion",
		LeadEmail: "a@x.com",
		CreatedAt: time.Now().Add(-time.Hour),
		Members: [model.MaxMembers]model.Member{
			{Name: "Ann"},
			{Name: "Ben"},
			{Name: "Cara"},
		},
	}

	// The resubmission drops members two and three entirely.
	merged, _ := Resolve(existing, submission("Orion", "a@x.com"))

	if merged.Members[1].Present() || merged.Members[2].Present() {
		t.Error("dropped member slots survived the merge")
	}
	if merged.MemberCount() != 1 {
		t.Errorf("MemberCount() = %d, want 1", merged.MemberCount())
	}
}
