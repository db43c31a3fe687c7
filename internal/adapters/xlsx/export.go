// Package xlsx writes the registration roster as a spreadsheet for organizers.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/minnehack/registration-api/internal/domain"
)

const SheetName = "Registrations"

var Headers = []string{
	"Code", "Name", "Email", "Phone", "Gender", "Age", "Country", "School", "Level of Study",
	"T-Shirt", "Driving", "Discord", "Reimbursement", "Reimbursement Amount", "Reimbursement Description",
	"Reimbursement Strict", "Accommodations", "Dietary Restrictions", "Resume", "Checked In",
	"Checked In At", "Created At",
}

// Write renders regs, one row per registration in the given order, and writes the workbook to w.
func Write(w io.Writer, regs []domain.Registration) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, h := range Headers {
		if err := f.SetCellValue(SheetName, cell(i, 1), h); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetName, "A", lastCol, 18)

	for r, reg := range regs {
		row := r + 2
		for i, v := range rowValues(reg) {
			if err := f.SetCellValue(SheetName, cell(i, row), v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowValues(r domain.Registration) []any {
	return []any{
		r.Code.String(),
		r.Name,
		r.Email,
		r.Phone,
		r.Gender,
		r.Age,
		r.Country,
		r.School,
		string(r.LevelOfStudy),
		string(r.TShirt),
		yesNo(r.Driving),
		deref(r.DiscordTag),
		yesNo(r.Reimbursement),
		derefInt(r.ReimbursementAmount),
		deref(r.ReimbursementDesc),
		yesNo(r.ReimbursementStrict),
		r.Accommodations,
		r.DietaryRestrictions,
		deref(r.ResumeFilename),
		yesNo(r.CheckedIn),
		formatTime(r.CheckedInAt),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func cell(colIdx, row int) string {
	name, _ := excelize.CoordinatesToCellName(colIdx+1, row)
	return name
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func derefInt(p *int) any {
	if p == nil {
		return ""
	}
	return *p
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
