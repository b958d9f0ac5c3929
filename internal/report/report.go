// Package report exports site data as Excel workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"highrise/internal/models"
)

const (
	InquiriesSheet = "Inquiries"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout     = "2006-01-02 15:04"
)

var inquiryHeader = []any{"Received", "Name", "Email", "Company", "Topic", "Message"}

// WriteInquiries writes a workbook with one row per inquiry under a bold,
// frozen header row.
func WriteInquiries(w io.Writer, inquiries []models.Inquiry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", InquiriesSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(InquiriesSheet, "A1", &inquiryHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(InquiriesSheet, "A1", "F1", bold); err != nil {
		return err
	}

	for i, in := range inquiries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{in.CreatedAt.Format(timeLayout), in.Name, in.Email, in.Company, in.Topic, in.Message}
		if err := f.SetSheetRow(InquiriesSheet, cell, &row); err != nil {
			return fmt.Errorf("inquiry %s: %w", in.ID, err)
		}
	}

	widths := map[string]float64{"A": 18, "B": 24, "C": 30, "D": 24, "E": 16, "F": 80}
	for col, width := range widths {
		if err := f.SetColWidth(InquiriesSheet, col, col, width); err != nil {
			return err
		}
	}
	if err := f.SetPanes(InquiriesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	return f.Write(w)
}
