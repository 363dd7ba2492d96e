package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"tariff-rag/internal/models"
)

// The office formats carry no outline or page structure worth segmenting;
// they degrade to one section per document (or per sheet for spreadsheets,
// with the 1-based sheet index standing in for the page).

func parseDOCX(filePath string) ([]models.Section, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := strings.TrimSpace(r.Editable().GetContent())
	if content == "" {
		return nil, nil
	}
	return []models.Section{{
		Title:     filepath.Base(filePath),
		PageStart: defaultPageNumber,
		PageEnd:   defaultPageNumber,
		Text:      content,
	}}, nil
}

func parseXLSX(filePath string) ([]models.Section, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var sections []models.Section
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		content := strings.TrimSpace(text.String())
		if content == "" {
			continue
		}
		page := sheetNum + 1
		sections = append(sections, models.Section{
			Title:     fmt.Sprintf("Sheet: %s", sheet.Name),
			PageStart: page,
			PageEnd:   page,
			Text:      content,
		})
	}
	return sections, nil
}

func parseODS(filePath string) ([]models.Section, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sections []models.Section
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		content := strings.TrimSpace(text.String())
		if content == "" {
			continue
		}
		page := sheetNum + 1
		sections = append(sections, models.Section{
			Title:     fmt.Sprintf("Sheet: %s", sheetName),
			PageStart: page,
			PageEnd:   page,
			Text:      content,
		})
	}
	return sections, nil
}

func parseText(filePath string) ([]models.Section, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}
	return []models.Section{{
		Title:     filepath.Base(filePath),
		PageStart: defaultPageNumber,
		PageEnd:   defaultPageNumber,
		Text:      content,
	}}, nil
}
