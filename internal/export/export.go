// Package export renders the registry in its spreadsheet form: the sheet
// layout the organizers see, whether they open the workbook-backed store's
// file directly or hit /admin/download on the database-backed variant.
//
// This package owns the column schema. The workbook store writes and parses
// files with exactly this layout, so the two stay in lockstep.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/novanataka/registration/internal/model"
)

// SheetName is the single sheet holding all registrations.
const SheetName = "Registrations"

// TimeLayout is how timestamps are written into cells. RFC 3339 keeps the
// file parseable when it is read back in as the store.
const TimeLayout = time.RFC3339

// Cell sentinels carried over from the legacy registry files: organizers
// filter on these, so they are part of the format.
const (
	AbsentMarker  = "N/A"   // unset optional member field
	NeverEditedAt = "Never" // Last Updated before the first edit
)

// Headers is the column order, row 1 of the sheet.
var Headers = []string{
	"Team ID",
	"Registration ID",
	"Registration Date",
	"Team Name",
	"Total Members",
	"Lead Name (M1)",
	"Lead Email (M1)",
	"Lead Phone (M1)",
	"Lead College (M1)",
	"Lead Dept (M1)",
	"Lead Year (M1)",
	"Member 2 Name",
	"Member 2 Phone",
	"Member 2 College",
	"Member 2 Dept",
	"Member 2 Year",
	"Member 3 Name",
	"Member 3 Phone",
	"Member 3 College",
	"Member 3 Dept",
	"Member 3 Year",
	"Last Updated",
}

// Row renders one registration as a sheet row. rank is the 1-based display
// position ("Team N") of the record in creation order.
func Row(reg model.Registration, rank int) []string {
	row := []string{
		fmt.Sprintf("Team %d", rank),
		reg.ID,
		reg.CreatedAt.Format(TimeLayout),
		reg.TeamName,
		strconv.Itoa(reg.MemberCount()),
	}
	row = append(row, memberCells(reg.Lead(), reg.LeadEmail)...)
	for _, m := range reg.Members[1:] {
		row = append(row, optionalMemberCells(m)...)
	}
	if reg.Edited() {
		row = append(row, reg.UpdatedAt.Format(TimeLayout))
	} else {
		row = append(row, NeverEditedAt)
	}
	return row
}

// Build assembles a complete workbook from registrations already in
// creation order. The caller decides whether to SaveAs (the workbook store)
// or stream it out (the admin download).
func Build(regs []model.Registration) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("export: naming sheet: %w", err)
	}

	if err := writeRow(f, 1, Headers); err != nil {
		return nil, err
	}
	for i, reg := range regs {
		if err := writeRow(f, i+2, Row(reg, i+1)); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	ref, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("export: cell reference for row %d: %w", rowNum, err)
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	if err := f.SetSheetRow(SheetName, ref, &values); err != nil {
		return fmt.Errorf("export: writing row %d: %w", rowNum, err)
	}
	return nil
}

func memberCells(m model.Member, email string) []string {
	return []string{m.Name, email, m.Phone, m.College, m.Dept, m.Year}
}

// optionalMemberCells writes AbsentMarker into every field of an empty slot.
func optionalMemberCells(m model.Member) []string {
	if !m.Present() {
		return []string{AbsentMarker, AbsentMarker, AbsentMarker, AbsentMarker, AbsentMarker}
	}
	return []string{m.Name, orAbsent(m.Phone), orAbsent(m.College), orAbsent(m.Dept), orAbsent(m.Year)}
}

func orAbsent(s string) string {
	if s == "" {
		return AbsentMarker
	}
	return s
}
