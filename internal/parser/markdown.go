package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"tariff-rag/internal/models"
)

// parseMarkdown cuts a Markdown file into sections at its headings, reusing
// the clause-number extraction used for PDF outlines. Markdown has no pages,
// so every section spans page 1.
func parseMarkdown(filePath string) ([]models.Section, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(source))

	type cut struct {
		offset int
		label  string
		title  string
	}
	var cuts []cut
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Lines().Len() == 0 {
			continue
		}
		title := strings.TrimSpace(string(heading.Text(source)))
		// Back the cut up to the start of the heading line so the section
		// text keeps its own heading.
		offset := heading.Lines().At(0).Start
		for offset > 0 && source[offset-1] != '\n' {
			offset--
		}
		cuts = append(cuts, cut{offset: offset, label: sectionLabel(title), title: title})
	}

	if len(cuts) == 0 {
		content := strings.TrimSpace(string(source))
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

	sections := make([]models.Section, 0, len(cuts))
	for i, c := range cuts {
		end := len(source)
		if i+1 < len(cuts) {
			end = cuts[i+1].offset
		}
		body := strings.TrimSpace(string(source[c.offset:end]))
		if body == "" {
			continue
		}
		sections = append(sections, models.Section{
			Label:     c.label,
			Title:     c.title,
			PageStart: defaultPageNumber,
			PageEnd:   defaultPageNumber,
			Text:      body,
		})
	}
	return sections, nil
}
