package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{"ID", "Name", "Category", "Price", "Stock", "Image", "CreatedAt", "UpdatedAt"}

// ExportXLSX writes the whole catalog as a single-sheet workbook.
func (s *service) ExportXLSX(ctx context.Context, w io.Writer) error {
	medicines, err := s.ListMedicines(ctx)
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Medicines")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, m := range medicines {
		row := sheet.AddRow()
		row.AddCell().SetInt64(m.ID)
		row.AddCell().SetString(m.Name)
		row.AddCell().SetString(m.Category)
		row.AddCell().SetString(m.Price.StringFixed(2))
		row.AddCell().SetInt(m.Stock)
		image := ""
		if m.Image != nil {
			image = *m.Image
		}
		row.AddCell().SetString(image)
		row.AddCell().SetString(m.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(m.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
