// Package statement renders the comparative statement: the side-by-side
// vendor price/terms comparison required before quotation approval.
package statement

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/arjunv/procure-flow/internal/models"
)

const sheetName = "Comparative Statement"

var headers = []string{
	"Item Code", "Item Name", "Quantity", "Vendor Code", "Vendor Name",
	"Price", "Delivery Time", "Terms", "Lead Time", "Best Quote",
}

// Writer builds comparative statement workbooks.
type Writer struct {
	logger *zap.Logger
}

// NewWriter creates a statement writer.
func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Generate renders one row per item and vendor into a new workbook.
func (w *Writer) Generate(flowID string, payload *models.Payload) (*excelize.File, error) {
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("flow %s has no items to compare", flowID)
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		w.logger.Warn("Failed to remove default sheet", zap.Error(err))
	}

	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		w.setCell(f, cell, h)
	}

	bestStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	row := 2
	for _, item := range payload.Items {
		for _, v := range item.Vendors {
			values := []interface{}{
				item.ItemCode, item.Name, item.Quantity,
				v.VendorCode, v.VendorName, v.Price,
				v.DeliveryTime, v.Terms, v.LeadTime,
			}
			for col, val := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				w.setCell(f, cell, val)
			}
			bestCell, _ := excelize.CoordinatesToCellName(len(headers), row)
			if v.Best {
				w.setCell(f, bestCell, "YES")
				start, _ := excelize.CoordinatesToCellName(1, row)
				if err := f.SetCellStyle(sheetName, start, bestCell, bestStyle); err != nil {
					w.logger.Warn("Failed to style best-quote row", zap.Error(err))
				}
			}
			row++
		}
	}

	w.logger.Info("Comparative statement generated",
		zap.String("flow_id", flowID),
		zap.Int("rows", row-2))
	return f, nil
}

// Bytes renders the workbook for download.
func (w *Writer) Bytes(flowID string, payload *models.Payload) ([]byte, error) {
	f, err := w.Generate(flowID, payload)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTo writes the workbook to disk.
func (w *Writer) SaveTo(flowID string, payload *models.Payload, path string) error {
	f, err := w.Generate(flowID, payload)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("Comparative statement saved", zap.String("path", path))
	return nil
}

func (w *Writer) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(sheetName, cell, value); err != nil {
		w.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
