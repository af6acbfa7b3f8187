package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fidoogle/process-label/internal/async"
)

// Service produces XLSX bytes summarizing a batch run, one row per image.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var headers = []string{
	"File",
	"Tracking Number",
	"Generated",
	"Sender",
	"Recipient",
	"Service",
	"Weight",
	"Company",
	"Address",
	"City",
	"State",
	"Zip",
	"Error",
}

// BuildWorkbook renders batch results into an XLSX workbook.
func (s *Service) BuildWorkbook(results []async.Result) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Labels"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	if defIndex, _ := f.GetSheetIndex("Sheet1"); defIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, res := range results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, res.Path)
		if res.Record != nil {
			write(2, res.Record.TrackingNumber)
			if res.Record.TrackingGenerated {
				write(3, "yes")
			}
			write(4, res.Record.SenderName)
			write(5, res.Record.RecipientName)
			write(6, res.Record.ServiceType)
			write(7, res.Record.Weight)
			write(8, res.Record.CompanyName)
			write(9, res.Record.AddressLine)
			write(10, res.Record.City)
			write(11, res.Record.State)
			write(12, res.Record.Zip)
		}
		if res.Err != nil {
			write(13, res.Err.Error())
		}
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.ok",
		"rows", len(results),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
