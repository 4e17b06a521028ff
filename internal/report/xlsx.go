package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Fill colours of month-over-month changes.
const (
	fillUp      = "FFC8C8"
	fillDown    = "C8FFC8"
	fillFlat    = "FFFFC8"
	fillMissing = "F0F0F0"
)

// WriteHistoryXLSX writes the table as a workbook with one sheet named after
// the currency. Rising cells are red, falling cells green, missing cells grey.
func WriteHistoryXLSX(w io.Writer, table *HistoryTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table.Currency
	if sheet == "" {
		sheet = "History"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newHistoryStyles(f)
	if err != nil {
		return err
	}

	header := []interface{}{"Category", "Indicator"}
	for _, m := range table.Months {
		header = append(header, m)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := styleRow(f, sheet, 1, len(header), styles.header); err != nil {
		return err
	}

	row := 2
	for _, section := range table.Sections {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, section.Category); err != nil {
			return err
		}
		if err := styleRow(f, sheet, row, len(header), styles.category); err != nil {
			return err
		}
		row++

		for _, r := range section.Rows {
			cell, _ := excelize.CoordinatesToCellName(2, row)
			if err := f.SetCellValue(sheet, cell, r.Tag); err != nil {
				return err
			}
			for i, c := range r.Cells {
				cell, _ := excelize.CoordinatesToCellName(3+i, row)
				var value interface{} = c.Text
				if c.Value.Valid {
					value = c.Value.Float
				}
				if err := f.SetCellValue(sheet, cell, value); err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, cell, cell, styles.forCell(c)); err != nil {
					return err
				}
			}
			row++
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 28); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 2, YSplit: 1, TopLeftCell: "C2", ActivePane: "bottomRight"}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type historyStyles struct {
	header, category        int
	up, down, flat, missing int
	plain                   int
}

func (s historyStyles) forCell(c HistoryCell) int {
	if c.Value.IsMissing() {
		return s.missing
	}
	switch c.Direction {
	case DirectionUp:
		return s.up
	case DirectionDown:
		return s.down
	case DirectionFlat:
		return s.flat
	default:
		return s.plain
	}
}

func newHistoryStyles(f *excelize.File) (historyStyles, error) {
	var s historyStyles
	var err error

	numFmt := "0.00"
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	if s.category, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Italic: true}}); err != nil {
		return s, err
	}
	if s.plain, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return s, err
	}
	fills := []struct {
		dst   *int
		color string
	}{
		{&s.up, fillUp}, {&s.down, fillDown}, {&s.flat, fillFlat}, {&s.missing, fillMissing},
	}
	for _, fl := range fills {
		*fl.dst, err = f.NewStyle(&excelize.Style{
			Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fl.color}},
			CustomNumFmt: &numFmt,
		})
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, first, last, style)
}
