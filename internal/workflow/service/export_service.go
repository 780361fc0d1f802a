package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Lennart897/ProPlan-sub001/internal/workflow/entity"
	"github.com/Lennart897/ProPlan-sub001/internal/workflow/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService renders the archive partition as an xlsx workbook.
type ExportService struct {
	projects *repository.ProjectRepository
}

func NewExportService(projects *repository.ProjectRepository) *ExportService {
	return &ExportService{projects: projects}
}

var archiveExportHeaders = []string{
	"Nummer", "Kunde", "Artikel", "Gesamtmenge", "Status",
	"Erster Liefertermin", "Letzter Liefertermin",
	"Erstellt von", "Archiviert am", "Ablehnungsgrund",
}

// ExportArchive writes every archived project into one sheet. Each production
// site gets its own quantity column after the fixed headers.
func (s *ExportService) ExportArchive(ctx context.Context, precededBy int) (*excelize.File, string, error) {
	filters := repository.ProjectFilters{Archived: true}
	if precededBy != 0 {
		filters.Statuses = []int{precededBy}
	}
	items, _, err := s.projects.FindAll(ctx, filters, 1, 100000)
	if err != nil {
		return nil, "", fmt.Errorf("list archive: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Archiv"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	headers := make([]string, 0, len(archiveExportHeaders)+len(entity.Locations))
	headers = append(headers, archiveExportHeaders...)
	for _, loc := range entity.Locations {
		headers = append(headers, loc.Name)
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx := range items {
		p := &items[rowIdx]
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.Number)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Customer)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Article)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.TotalQuantity)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), entity.StatusLabel(p.Status))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), formatDate(p.FirstDeliveryDate))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), formatDate(p.LastDeliveryDate))
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), p.CreatorName)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), formatDate(p.ArchivedAt))
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), p.RejectionReason)

		for i, loc := range entity.Locations {
			col, _ := excelize.ColumnNumberToName(len(archiveExportHeaders) + i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), loc.Quantity(p.Distribution))
		}
	}

	filename := fmt.Sprintf("projektarchiv_%s.xlsx", time.Now().Format("2006-01-02"))
	return f, filename, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02.01.2006")
}
