// Package workbook implements the RegistrationStore on a single xlsx file:
// the registry IS the spreadsheet the organizers open in Excel.
//
// Every mutation is a read-modify-write of the whole file. That keeps the
// file humanly consistent (dense "Team N" labels, one sheet, no tombstones)
// but is only safe with a single writing process: a mutex serializes writes
// inside this process, and the documented deployment assumption is that no
// second server instance shares the file. A spreadsheet program holding the
// file open surfaces as apperror.ErrBusy with an actionable message rather
// than a generic I/O failure.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/novanataka/registration/internal/apperror"
	"github.com/novanataka/registration/internal/export"
	"github.com/novanataka/registration/internal/model"
	"github.com/novanataka/registration/internal/repository"
)

var _ repository.RegistrationStore = (*Store)(nil)

// busyMessage is shown to the client on a locked file. It must stay
// user-actionable; this is the one 500 whose text matters.
const busyMessage = "the registration file is currently open in another program. Close it so the server can save changes"

// Store is the workbook-backed registry.
type Store struct {
	path string

	// mu serializes every operation. The whole-file write cycle would
	// otherwise lose updates between two in-flight requests.
	mu sync.Mutex
}

// New creates a store over the xlsx file at path. The file is created lazily
// on the first write; a missing file reads as an empty registry.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("workbook: file path is required")
	}
	s := &Store{path: path}

	// Reject an unreadable or corrupt file now instead of on the first request.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close is a no-op: the file is opened and closed per operation.
func (s *Store) Close() error {
	return nil
}

// ListAll returns the registrations in sheet order, which is creation order:
// rows are only ever appended or rewritten in place.
func (s *Store) ListAll(ctx context.Context) ([]model.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// FindByEmail scans the sheet for the normalized lead email.
func (s *Store) FindByEmail(ctx context.Context, normalizedEmail string) (*model.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	regs, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range regs {
		if regs[i].LeadEmail == normalizedEmail {
			reg := regs[i]
			return &reg, nil
		}
	}
	return nil, apperror.NotFound("registration", normalizedEmail)
}

// Upsert replaces the matching row in place (isNew = false) or appends a new
// one, then rewrites the whole file. A replaced row keeps its position, so
// its "Team N" label is unchanged; an appended row takes the next rank.
func (s *Store) Upsert(ctx context.Context, reg *model.Registration, isNew bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	regs, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range regs {
		if regs[i].LeadEmail == reg.LeadEmail {
			regs[i] = *reg
			replaced = true
			break
		}
	}
	if !replaced {
		// A stale isNew (the record vanished between resolve and persist)
		// still lands safely as an append.
		regs = append(regs, *reg)
	}
	_ = isNew

	return s.save(regs)
}

// Delete filters out the matching row and rewrites the file; export.Build
// restamps the remaining rows "Team 1..N-1" in their prior order.
func (s *Store) Delete(ctx context.Context, normalizedEmail string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	regs, err := s.load()
	if err != nil {
		return false, err
	}

	kept := regs[:0]
	for _, reg := range regs {
		if reg.LeadEmail != normalizedEmail {
			kept = append(kept, reg)
		}
	}
	if len(kept) == len(regs) {
		return false, nil
	}

	if err := s.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

// load reads the whole sheet. Callers must hold mu (or be New).
func (s *Store) load() ([]model.Registration, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Registration{}, nil
		}
		return nil, classify("opening", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		var sheetErr excelize.ErrSheetNotExist
		if errors.As(err, &sheetErr) {
			return []model.Registration{}, nil
		}
		return nil, fmt.Errorf("workbook: reading sheet: %w", err)
	}

	regs := make([]model.Registration, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		reg, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("workbook: row %d: %w", i+1, err)
		}
		if reg.LeadEmail == "" {
			continue // blank or hand-mangled row; skip rather than fail the registry
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// save rewrites the file from scratch via a temp file and rename, so a
// failed write leaves the previous state untouched.
func (s *Store) save(regs []model.Registration) error {
	f, err := export.Build(regs)
	if err != nil {
		return fmt.Errorf("workbook: building sheet: %w", err)
	}

	// The temp name must keep an .xlsx extension: excelize.SaveAs rejects
	// unrecognized extensions with ErrWorkbookFileFormat.
	tmp := s.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return classify("writing", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return classify("replacing", s.path, err)
	}
	return nil
}

// classify maps file-lock conditions to the distinct busy error; everything
// else stays a generic wrapped I/O error.
func classify(op, path string, err error) error {
	if isFileLocked(err) {
		return apperror.Busy(busyMessage)
	}
	return fmt.Errorf("workbook: %s %s: %w", op, path, err)
}

func isFileLocked(err error) bool {
	if errors.Is(err, syscall.EBUSY) || errors.Is(err, os.ErrPermission) {
		return true
	}
	// Windows reports a file opened in Excel as a sharing violation whose
	// text is the only portable signal.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "used by another process") ||
		strings.Contains(msg, "sharing violation")
}

func parseRow(row []string) (model.Registration, error) {
	// Column positions follow export.Headers.
	const (
		colID = 1 + iota
		colCreatedAt
		colTeamName
		colTotalMembers
		colLeadName
		colLeadEmail
		colLeadPhone
		colLeadCollege
		colLeadDept
		colLeadYear
		colM2Name
		colM2Phone
		colM2College
		colM2Dept
		colM2Year
		colM3Name
		colM3Phone
		colM3College
		colM3Dept
		colM3Year
		colUpdatedAt
	)

	reg := model.Registration{
		ID:        cell(row, colID),
		TeamName:  cell(row, colTeamName),
		LeadEmail: model.NormalizeEmail(cell(row, colLeadEmail)),
	}
	reg.Members[0] = model.Member{
		Name:    cell(row, colLeadName),
		Phone:   cell(row, colLeadPhone),
		College: cell(row, colLeadCollege),
		Dept:    cell(row, colLeadDept),
		Year:    cell(row, colLeadYear),
	}
	reg.Members[1] = optionalMember(row, colM2Name)
	reg.Members[2] = optionalMember(row, colM3Name)

	if raw := cell(row, colCreatedAt); raw != "" {
		created, err := time.Parse(export.TimeLayout, raw)
		if err != nil {
			return model.Registration{}, fmt.Errorf("parsing registration date %q: %w", raw, err)
		}
		reg.CreatedAt = created
	}
	if raw := cell(row, colUpdatedAt); raw != "" && raw != export.NeverEditedAt {
		updated, err := time.Parse(export.TimeLayout, raw)
		if err != nil {
			return model.Registration{}, fmt.Errorf("parsing last updated %q: %w", raw, err)
		}
		reg.UpdatedAt = updated
	}
	return reg, nil
}

// optionalMember reads a five-column member block, mapping the absence
// marker back to empty strings.
func optionalMember(row []string, start int) model.Member {
	return model.Member{
		Name:    unmark(cell(row, start)),
		Phone:   unmark(cell(row, start+1)),
		College: unmark(cell(row, start+2)),
		Dept:    unmark(cell(row, start+3)),
		Year:    unmark(cell(row, start+4)),
	}
}

// cell tolerates short rows: excelize trims trailing empty cells.
func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func unmark(s string) string {
	if s == export.AbsentMarker {
		return ""
	}
	return s
}
