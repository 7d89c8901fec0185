// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
)

// MaxMembers is the number of member slots on a registration.
// Slot 0 is the team lead and is always filled; slots 1 and 2 are optional.
const MaxMembers = 3

// Member is one person on a team. A slot is "absent" when Name is blank;
// the other fields of an absent slot are ignored.
type Member struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	College string `json:"college"`
	Dept    string `json:"dept"`
	Year    string `json:"year"`
}

// Present reports whether this member slot is filled.
func (m Member) Present() bool {
	return strings.TrimSpace(m.Name) != ""
}

// Registration is one team's entry in the registry.
//
// ID is an xid assigned once at creation and never reused; it is the stable
// identifier. The human-facing "Team N" label is NOT stored here: it is a
// display rank derived from creation order, so deleting one registration
// never requires rewriting the identities of the others.
//
// LeadEmail is stored normalized (trimmed, lower-cased) and is the
// deduplication key: at most one Registration exists per lead email.
type Registration struct {
	ID        string             `json:"id"`
	TeamName  string             `json:"teamName"`
	LeadEmail string             `json:"leadEmail"`
	Members   [MaxMembers]Member `json:"members"`
	CreatedAt time.Time          `json:"createdAt"`
	// UpdatedAt stays zero until the first edit. CreatedAt never changes.
	UpdatedAt time.Time `json:"updatedAt"`
}

// Lead returns the mandatory first member.
func (r *Registration) Lead() Member {
	return r.Members[0]
}

// MemberCount derives the team size from the filled member slots:
// 1 for the lead plus 1 for each optional slot with a non-blank name.
func (r *Registration) MemberCount() int {
	count := 1
	for _, m := range r.Members[1:] {
		if m.Present() {
			count++
		}
	}
	return count
}

// Edited reports whether the registration has been modified since creation.
func (r *Registration) Edited() bool {
	return !r.UpdatedAt.IsZero()
}

// NormalizeEmail canonicalizes an email address for matching and for storage.
// Matching is case-insensitive and whitespace-insensitive, so "  A@X.com "
// and "a@x.com" identify the same registration.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
