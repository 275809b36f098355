package scanner

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"scanner-registry/internal/metrics"
	"scanner-registry/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	exportSheet   = "Scanner Records"
	exportPerPage = 500
)

var exportHeader = []string{
	"ID",
	"Office Type",
	"Branch Code",
	"Branch Name",
	"Serial Number",
	"Model",
	"Status",
	"Remarks",
}

var exportColumnWidths = []float64{8, 15, 15, 30, 22, 22, 14, 40}

// Export renders every record matching search as an xlsx workbook, walking
// the listing page by page.
func (c *Catalog) Export(ctx context.Context, search string) ([]byte, error) {
	start := time.Now()
	data, rows, err := c.export(ctx, search)
	metrics.ObserveExport(err, rows, time.Since(start))
	return data, err
}

func (c *Catalog) export(ctx context.Context, search string) ([]byte, int, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, 0, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, 0, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(exportHeader))
	if err != nil {
		return nil, 0, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, 0, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range exportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, 0, err
		}
		if err := f.SetColWidth(exportSheet, col, col, w); err != nil {
			return nil, 0, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	row := 2
	q := ListQuery{Search: search, PerPage: exportPerPage}
	for {
		page, err := c.List(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		for i := range page.Data {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, 0, err
			}
			values := exportRow(&page.Data[i])
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return nil, 0, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
		if page.NextCursor == nil {
			break
		}
		q.Cursor = *page.NextCursor
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), row - 2, nil
}

func exportRow(rec *models.ScannerRecord) []interface{} {
	var code, name string
	if rec.Branch != nil {
		code = rec.Branch.BranchCode
		name = rec.Branch.BranchName
	}
	return []interface{}{
		rec.ID,
		string(rec.OfficeType),
		code,
		name,
		rec.SerialNumber,
		rec.Model,
		string(rec.Status),
		rec.Remarks,
	}
}
