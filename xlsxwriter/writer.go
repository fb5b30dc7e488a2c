// Package xlsxwriter turns a batch of composite rows into a formatted
// spreadsheet. The engine does not guarantee a uniform key schema across
// rows, so the writer unions the schemas itself and fills missing keys with
// blank cells.
package xlsxwriter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/varlaud/dexa-extract/logging"
	"github.com/varlaud/dexa-extract/reportparser"
	"github.com/varlaud/dexa-extract/reportparser/entities"
)

// SheetName is the single worksheet the batch is written to.
const SheetName = "Composition"

const sourceColumn = "Source"

// BuildHeaders returns the column headers for a batch: the source file, the
// nine patient columns, then six metric columns for every region that appears
// in at least one row, in catalog order.
func BuildHeaders(rows []entities.CompositeRow) []string {
	headers := make([]string, 0, 1+len(entities.PatientColumns))
	headers = append(headers, sourceColumn)
	headers = append(headers, entities.PatientColumns...)

	for _, region := range reportparser.Regions {
		present := false
		for _, row := range rows {
			if row.HasRegion(region) {
				present = true
				break
			}
		}
		if present {
			headers = append(headers, entities.RegionColumns(region)...)
		}
	}

	return headers
}

// Write generates the workbook and saves it at path.
func Write(rows []entities.CompositeRow, path string) error {
	f, err := build(rows)
	if err != nil {
		return err
	}
	defer closeFile(f)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteTo generates the workbook and streams it to w. Used by the export
// endpoint.
func WriteTo(rows []entities.CompositeRow, w io.Writer) error {
	f, err := build(rows)
	if err != nil {
		return err
	}
	defer closeFile(f)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func closeFile(f *excelize.File) {
	if err := f.Close(); err != nil {
		logging.Warn("Failed to close workbook", "error", err)
	}
}

// build assembles the in-memory workbook: one sheet, a styled frozen header
// row, one row per document.
func build(rows []entities.CompositeRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name worksheet: %w", err)
	}

	headers := BuildHeaders(rows)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("invalid header coordinate: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header %q: %w", header, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		lastCell, cellErr := excelize.CoordinatesToCellName(len(headers), 1)
		if cellErr == nil {
			if styleErr := f.SetCellStyle(SheetName, "A1", lastCell, headerStyle); styleErr != nil {
				logging.Warn("Failed to style header row", "error", styleErr)
			}
		}
	}

	for i, row := range rows {
		flat := row.Flatten()
		flat[sourceColumn] = row.Source

		for col, header := range headers {
			value, ok := flat[header]
			if !ok {
				// Missing key: the writer owns blank-cell alignment.
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("invalid cell coordinate: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		logging.Warn("Failed to freeze header pane", "error", err)
	}

	if err := f.SetColWidth(SheetName, "A", "B", 18); err != nil {
		logging.Warn("Failed to set column widths", "error", err)
	}

	return f, nil
}
