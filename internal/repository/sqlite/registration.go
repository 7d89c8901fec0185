package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/novanataka/registration/internal/apperror"
	"github.com/novanataka/registration/internal/model"
	"github.com/novanataka/registration/internal/repository"
)

// Compile-time check that *DB satisfies the store contract.
var _ repository.RegistrationStore = (*DB)(nil)

const registrationColumns = `id, lead_email, team_name,
	m1_name, m1_phone, m1_college, m1_dept, m1_year,
	m2_name, m2_phone, m2_college, m2_dept, m2_year,
	m3_name, m3_phone, m3_college, m3_dept, m3_year,
	created_at, updated_at`

// Upsert inserts the registration, or, when a row with the same lead email
// already exists, overwrites every mutable field of that row in place.
//
// ON CONFLICT(lead_email) DO UPDATE is the atomic insert-or-update keyed on
// the normalized email: id and created_at are deliberately missing from the
// SET list, so even if two submissions for one email race past FindByEmail
// and both arrive here "new", the second lands as an edit of the first and
// the original identity survives.
func (db *DB) Upsert(ctx context.Context, reg *model.Registration, _ bool) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lead_email) DO UPDATE SET
			team_name  = excluded.team_name,
			m1_name    = excluded.m1_name,
			m1_phone   = excluded.m1_phone,
			m1_college = excluded.m1_college,
			m1_dept    = excluded.m1_dept,
			m1_year    = excluded.m1_year,
			m2_name    = excluded.m2_name,
			m2_phone   = excluded.m2_phone,
			m2_college = excluded.m2_college,
			m2_dept    = excluded.m2_dept,
			m2_year    = excluded.m2_year,
			m3_name    = excluded.m3_name,
			m3_phone   = excluded.m3_phone,
			m3_college = excluded.m3_college,
			m3_dept    = excluded.m3_dept,
			m3_year    = excluded.m3_year,
			updated_at = excluded.updated_at`,
		reg.ID, reg.LeadEmail, reg.TeamName,
		reg.Members[0].Name, reg.Members[0].Phone, reg.Members[0].College, reg.Members[0].Dept, reg.Members[0].Year,
		reg.Members[1].Name, reg.Members[1].Phone, reg.Members[1].College, reg.Members[1].Dept, reg.Members[1].Year,
		reg.Members[2].Name, reg.Members[2].Phone, reg.Members[2].College, reg.Members[2].Dept, reg.Members[2].Year,
		reg.CreatedAt, nullableTime(reg.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting registration %s: %w", reg.LeadEmail, err)
	}
	return nil
}

// FindByEmail fetches the single registration for a normalized lead email.
func (db *DB) FindByEmail(ctx context.Context, normalizedEmail string) (*model.Registration, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 WHERE lead_email = ?`,
		normalizedEmail,
	)

	reg, err := scanRegistration(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("registration", normalizedEmail)
		}
		return nil, fmt.Errorf("sqlite: getting registration %s: %w", normalizedEmail, err)
	}
	return reg, nil
}

// ListAll returns every registration oldest-first. The 1-based position in
// this slice is the record's "Team N" display rank.
func (db *DB) ListAll(ctx context.Context) ([]model.Registration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations
		 ORDER BY created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing registrations: %w", err)
	}
	defer rows.Close()

	regs := []model.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning registration row: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating registrations: %w", err)
	}

	return regs, nil
}

// Delete removes the row for the normalized lead email. No renumbering is
// needed here: ranks are derived from creation order on read, so the
// remaining records are already dense 1..N-1.
func (db *DB) Delete(ctx context.Context, normalizedEmail string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM registrations WHERE lead_email = ?`,
		normalizedEmail,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting registration %s: %w", normalizedEmail, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return affected > 0, nil
}

// scanRegistration reads one row regardless of whether it came from
// QueryRow or a Rows iterator; both expose the same Scan signature.
func scanRegistration(scan func(...any) error) (*model.Registration, error) {
	var (
		reg       model.Registration
		updatedAt sql.NullTime
	)
	err := scan(
		&reg.ID, &reg.LeadEmail, &reg.TeamName,
		&reg.Members[0].Name, &reg.Members[0].Phone, &reg.Members[0].College, &reg.Members[0].Dept, &reg.Members[0].Year,
		&reg.Members[1].Name, &reg.Members[1].Phone, &reg.Members[1].College, &reg.Members[1].Dept, &reg.Members[1].Year,
		&reg.Members[2].Name, &reg.Members[2].Phone, &reg.Members[2].College, &reg.Members[2].Dept, &reg.Members[2].Year,
		&reg.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		reg.UpdatedAt = updatedAt.Time
	}
	return &reg, nil
}

// nullableTime maps the zero time to SQL NULL. UpdatedAt is NULL at rest
// until the first edit.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
