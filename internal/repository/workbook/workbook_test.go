package workbook

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/novanataka/registration/internal/apperror"
	"github.com/novanataka/registration/internal/export"
	"github.com/novanataka/registration/internal/identity"
	"github.com/novanataka/registration/internal/model"
)

// Each test gets its own file under t.TempDir(), which the test framework
// removes automatically.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "registrations.xlsx"))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return s
}

func submission(team, email string) model.Registration {
	return model.Registration{
		TeamName:  team,
		LeadEmail: model.NormalizeEmail(email),
		Members: [model.MaxMembers]model.Member{
			{Name: "Lead of " + team, Phone: "12345", College: "NIT", Dept: "CSE", Year: "3"},
		},
	}
}

func register(t *testing.T, s *Store, team, email string) model.Registration {
	t.Helper()
	ctx := context.Background()

	var existing *model.Registration
	if found, err := s.FindByEmail(ctx, model.NormalizeEmail(email)); err == nil {
		existing = found
	} else if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("FindByEmail() error = %v", err)
	}

	reg, isNew := identity.Resolve(existing, submission(team, email))
	if err := s.Upsert(ctx, &reg, isNew); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	return reg
}

func TestEmptyFileReadsAsEmptyRegistry(t *testing.T) {
	s := newTestStore(t)

	regs, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(regs) != 0 {
		t.Errorf("ListAll() on a fresh store returned %d records, want 0", len(regs))
	}
}

func TestUpsert_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registrations.xlsx")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	created := register(t, s, "Orion", "A@X.com ")

	// A second store over the same file sees the write; the file is the
	// whole state.
	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New() on existing file error = %v", err)
	}
	got, err := reopened.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.TeamName != "Orion" {
		t.Errorf("TeamName = %q, want %q", got.TeamName, "Orion")
	}
	if !got.CreatedAt.Equal(created.CreatedAt.Truncate(0)) && got.CreatedAt.Unix() != created.CreatedAt.Unix() {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestUpsert_SameEmailRewritesInPlace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := register(t, s, "Orion", "a@x.com")
	register(t, s, "Aquila", "b@x.com")
	register(t, s, "Orion Prime", "A@X.com") // edit of the first row

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll() returned %d records, want 2", len(all))
	}
	// The edited record kept its row position (and therefore its rank).
	if all[0].ID != first.ID {
		t.Errorf("first row ID = %q, want %q", all[0].ID, first.ID)
	}
	if all[0].TeamName != "Orion Prime" {
		t.Errorf("first row TeamName = %q, want %q", all[0].TeamName, "Orion Prime")
	}
	if !all[0].Edited() {
		t.Error("edited row has no Last Updated timestamp")
	}
	if all[1].Edited() {
		t.Error("untouched row gained a Last Updated timestamp")
	}
}

func TestDelete_RenumbersDensely(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	register(t, s, "One", "a@x.com")
	register(t, s, "Two", "b@x.com")
	register(t, s, "Three", "c@x.com")

	deleted, err := s.Delete(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Fatal("Delete() = false, want true")
	}

	// Inspect the file itself: Team IDs must read Team 1, Team 2 with the
	// survivors in their prior relative order.
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	if len(rows) != 3 { // header + 2 records
		t.Fatalf("sheet has %d rows, want 3", len(rows))
	}
	if rows[1][0] != "Team 1" || rows[2][0] != "Team 2" {
		t.Errorf("Team IDs after delete = [%s, %s], want [Team 1, Team 2]", rows[1][0], rows[2][0])
	}
	if rows[1][3] != "One" || rows[2][3] != "Three" {
		t.Errorf("team order after delete = [%s, %s], want [One, Three]", rows[1][3], rows[2][3])
	}
}

func TestDelete_MissingEmailIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	register(t, s, "Orion", "a@x.com")

	deleted, err := s.Delete(ctx, "ghost@x.com")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted {
		t.Error("Delete() = true for a missing email, want false")
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("store size changed on a no-op delete: %d records", len(all))
	}
}

func TestAbsentMembersRoundTripAsEmptyStrings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	reg := submission("Orion", "a@x.com")
	reg.Members[1] = model.Member{Name: "Ben", Phone: "222", College: "IIT", Dept: "ECE", Year: "2"}
	resolved, isNew := identity.Resolve(nil, reg)
	if err := s.Upsert(ctx, &resolved, isNew); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// In the file, the empty third slot is the explicit absence marker.
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	rows, err := f.GetRows(export.SheetName)
	f.Close()
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	if got := rows[1][16]; got != export.AbsentMarker {
		t.Errorf("Member 3 Name cell = %q, want %q", got, export.AbsentMarker)
	}

	// Through the store API, the same slot reads back as empty strings.
	got, err := s.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if got.Members[2] != (model.Member{}) {
		t.Errorf("member 3 = %+v, want zero value", got.Members[2])
	}
	if got.Members[1].Name != "Ben" {
		t.Errorf("member 2 name = %q, want %q", got.Members[1].Name, "Ben")
	}
	if got.MemberCount() != 2 {
		t.Errorf("MemberCount() = %d, want 2", got.MemberCount())
	}
}
