// Package identity decides whether a submitted registration is a brand-new
// team or an edit of an existing one, keyed by the normalized lead email.
//
// The resolver is pure computation over in-memory values: it never touches
// storage or the network. The caller looks up the existing record (or nil)
// and hands both to Resolve; the store persists whatever comes back.
package identity

import (
	"time"

	"github.com/rs/xid"

	"github.com/novanataka/registration/internal/model"
)

// Resolve merges a submitted registration against the existing record for
// the same lead email, if any.
//
// existing == nil: a new record is produced with a fresh xid, CreatedAt set
// to now and UpdatedAt left zero. Returns isNew = true.
//
// existing != nil: every submitted field replaces the old value except ID
// and CreatedAt, which are preserved, and UpdatedAt is stamped with the
// edit time. Returns isNew = false. Last write wins per email.
//
// submitted.LeadEmail must already be normalized and non-blank; request
// validation enforces that before this is reached.
func Resolve(existing *model.Registration, submitted model.Registration) (model.Registration, bool) {
	now := time.Now()

	if existing == nil {
		submitted.ID = xid.New().String()
		submitted.CreatedAt = now
		submitted.UpdatedAt = time.Time{}
		return submitted, true
	}

	merged := submitted
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = now
	return merged, false
}
