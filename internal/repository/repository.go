// Package repository declares the storage contract for the registration
// registry. Two interchangeable backends implement it: an embedded SQL
// database (repository/sqlite) and an xlsx workbook file
// (repository/workbook). The service layer programs against this interface
// and never learns which backend is wired in.
package repository

import (
	"context"

	"github.com/novanataka/registration/internal/model"
)

// RegistrationStore is the ordered collection of registrations, addressable
// by normalized lead email.
type RegistrationStore interface {
	// ListAll returns every registration in creation order (oldest first,
	// ID as the tiebreak). Display ranks ("Team 1", "Team 2", ...) are the
	// 1-based positions in this sequence.
	ListAll(ctx context.Context) ([]model.Registration, error)

	// FindByEmail returns the registration whose lead email equals the
	// given normalized email, or apperror.NotFound.
	FindByEmail(ctx context.Context, normalizedEmail string) (*model.Registration, error)

	// Upsert persists a record produced by identity.Resolve. The write is
	// one logical unit: on failure the store keeps its pre-call state.
	// isNew is advisory; a backend with an atomic insert-or-update
	// primitive may ignore it.
	Upsert(ctx context.Context, reg *model.Registration, isNew bool) error

	// Delete removes the registration with the given normalized lead email.
	// Returns false (and no error) when nothing matched. Remaining records
	// keep their relative order, so display ranks stay dense 1..N-1.
	Delete(ctx context.Context, normalizedEmail string) (bool, error)

	Close() error
}
