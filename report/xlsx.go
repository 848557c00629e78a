package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/eykalynet/k12-schooling-fertility/lopo"
	"github.com/eykalynet/k12-schooling-fertility/regress"
)

// WorkbookLOPO writes the leave-one-out results to an xlsx workbook
// with a detail sheet and a summary sheet.
func WorkbookLOPO(path string, res *lopo.Result) error {

	f := excelize.NewFile()
	defer f.Close()

	const detail = "Sheet1"

	set := func(sheet string, col, row int, v interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	// Detail sheet: one row per excluded province.
	if err := set(detail, 1, 1, "excluded_province"); err != nil {
		return err
	}
	for j, out := range res.Outcomes {
		set(detail, 2+3*j, 1, out+"_coef")
		set(detail, 3+3*j, 1, out+"_se")
		set(detail, 4+3*j, 1, out+"_p")
	}

	writeCells := func(row int, name string, cells []lopo.Cell) {
		set(detail, 1, row, name)
		for j, c := range cells {
			if !c.Valid {
				set(detail, 2+3*j, row, unavailable)
				set(detail, 3+3*j, row, unavailable)
				set(detail, 4+3*j, row, unavailable)
				continue
			}
			set(detail, 2+3*j, row, c.Coef)
			set(detail, 3+3*j, row, c.SE)
			set(detail, 4+3*j, row, c.P)
		}
	}

	writeCells(2, "none (baseline)", res.Baseline)
	for i, row := range res.Rows {
		writeCells(3+i, row.Name, row.Cells)
	}

	// Summary sheet.
	const summary = "Summary"
	if _, err := f.NewSheet(summary); err != nil {
		return err
	}
	hdr := []string{"outcome", "baseline", "stars", "mean", "sd",
		"min", "min_province", "max", "max_province", "fits"}
	for j, h := range hdr {
		set(summary, 1+j, 1, h)
	}
	for i, s := range res.Summaries {
		row := 2 + i
		set(summary, 1, row, s.Outcome)
		if s.Baseline.Valid {
			set(summary, 2, row, s.Baseline.Coef)
			set(summary, 3, row, regress.Stars(s.Baseline.P))
		} else {
			set(summary, 2, row, unavailable)
		}
		set(summary, 4, row, s.Mean)
		set(summary, 5, row, s.SD)
		set(summary, 6, row, s.Min)
		set(summary, 7, row, s.MinGroup)
		set(summary, 8, row, s.Max)
		set(summary, 9, row, s.MaxGroup)
		set(summary, 10, row, s.NValid)
	}

	set(summary, 1, 3+len(res.Summaries), fmt.Sprintf("run %s", res.RunID))

	return f.SaveAs(path)
}
