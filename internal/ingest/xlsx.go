package ingest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"meter-route-planner/internal/models"
)

// ErrEmptyWorkbook is returned when the first sheet has no data rows
var ErrEmptyWorkbook = errors.New("workbook has no data rows")

// ReadWorkbook reads the first sheet of an xlsx workbook. The first row is
// the header; the final row is an informational footer and is dropped.
func ReadWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(grid) < 2 {
		return nil, ErrEmptyWorkbook
	}

	header := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		header[i] = strings.TrimSpace(h)
	}

	data := grid[1 : len(grid)-1]
	rows := make([]Row, 0, len(data))
	for i, record := range data {
		cells := make(map[string]any, len(header))
		for col, value := range record {
			if col >= len(header) || header[col] == "" || strings.TrimSpace(value) == "" {
				continue
			}
			cells[header[col]] = value
		}
		rows = append(rows, Row{Index: i, Cells: cells})
	}

	log.Printf("[GEOCODING] Workbook read: sheet=%s rows=%d", sheets[0], len(rows))
	return rows, nil
}

var exportHeader = []any{"Order", "Meter", "Address", "Service", "Latitude", "Longitude", "Status"}

// ExportRoute writes the route as a single-sheet workbook in visiting order
func ExportRoute(w io.Writer, route *models.Route) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, s := range route.Stops {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{s.DisplayIndex, s.MeterNumber, s.Address, s.ServiceType, s.Coords().Lat, s.Coords().Lng, string(s.Status)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write stop %s: %w", s.ID, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
