// Package parser turns source documents into ordered, page-addressed
// sections. PDF documents go through a chain of segmentation strategies;
// other supported formats degrade to simpler cuts.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"tariff-rag/internal/models"
)

// defaultPageNumber is used for formats that have no page concept.
const defaultPageNumber = 1

// ParseSections reads a document from disk and splits it into sections.
func ParseSections(filePath string) ([]models.Section, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return parsePDF(filePath)
	case ".md", ".markdown":
		return parseMarkdown(filePath)
	case ".docx":
		return parseDOCX(filePath)
	case ".xlsx":
		return parseXLSX(filePath)
	case ".ods":
		return parseODS(filePath)
	case ".txt":
		return parseText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}
