package parser

import (
	"regexp"
	"strings"

	"tariff-rag/internal/models"
)

// Document is a page-addressable view of a source file. Pages are 1-indexed.
// Outline returns nil when the document exposes no navigable outline or the
// outline cannot be resolved to pages.
type Document interface {
	PageCount() int
	PageText(page int) string
	Outline() []OutlineEntry
}

// OutlineEntry is one entry of a document outline.
type OutlineEntry struct {
	Level int
	Title string
	Page  int // 1-indexed start page
}

// Heading patterns in priority order; the first match wins for a line.
var headingPatterns = []*regexp.Regexp{
	// "Section 3.3.1  Title"
	regexp.MustCompile(`(?i)^\s*(section)\s+(\d+(?:\.\d+)+)\s*[:\-–]?\s*(.*\S)?\s*$`),
	// "3.3.1  Title" with a capitalized title
	regexp.MustCompile(`^\s*(\d+(?:\.\d+){1,6})\s+([A-Z][^\n]{0,120})?\s*$`),
	// deep clause numbers, e.g. "6.1.1.1.5 Distribution System Charge (DSC)"
	regexp.MustCompile(`^\s*(\d+(?:\.\d+){2,7})\s+([A-Za-z][^\n]{0,160})\s*$`),
}

// sectionLabelRe pulls a clause-number token out of free-form title text.
var sectionLabelRe = regexp.MustCompile(`(?i)(?:section\s+)?(\d+(?:\.\d+)+)`)

// DetectHeading reports the section label and title when the line looks like
// a clause heading. The title may be empty even when a label matches.
func DetectHeading(line string) (label, title string, ok bool) {
	for _, pat := range headingPatterns {
		m := pat.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.EqualFold(m[1], "section") {
			return m[2], strings.TrimSpace(m[3]), true
		}
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// sectionLabel extracts a clause number from a title, "" when none is found.
func sectionLabel(title string) string {
	if m := sectionLabelRe.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}

// A segmenter is one strategy for cutting a document into sections. It
// returns nil when it finds no cut points, letting the next strategy try.
type segmenter func(doc Document, name string) []models.Section

// Strategy chain, tried strictly in order: outline cut, heading-regex scan,
// whole-document fallback.
var segmenters = []segmenter{segmentByOutline, segmentByHeadings, segmentWhole}

// Segment cuts a document into ordered sections using the first strategy
// that yields anything. The final fallback always emits one section, so the
// result is never empty.
func Segment(doc Document, name string) []models.Section {
	for _, seg := range segmenters {
		if sections := seg(doc, name); len(sections) > 0 {
			return sections
		}
	}
	return nil
}

// segmentByOutline cuts at outline entries: each entry spans from its start
// page to one page before the next entry's start (the last entry extends to
// the document end).
func segmentByOutline(doc Document, name string) []models.Section {
	toc := doc.Outline()
	if len(toc) == 0 {
		return nil
	}

	sections := make([]models.Section, 0, len(toc))
	for i, entry := range toc {
		start := entry.Page
		if start < 1 {
			start = 1
		}
		end := doc.PageCount()
		if i+1 < len(toc) && toc[i+1].Page-1 < end {
			end = toc[i+1].Page - 1
		}
		if end < start {
			// Several outline entries on one page collapse to that page.
			end = start
		}
		title := strings.TrimSpace(entry.Title)
		sections = append(sections, models.Section{
			Label:     sectionLabel(title),
			Title:     title,
			PageStart: start,
			PageEnd:   end,
			Text:      pageRangeText(doc, start, end),
		})
	}
	return sections
}

type headingMark struct {
	page  int
	label string
	title string
}

// segmentByHeadings scans every text line of every page for clause headings
// and uses them as cut points, in document order.
func segmentByHeadings(doc Document, name string) []models.Section {
	var marks []headingMark
	for p := 1; p <= doc.PageCount(); p++ {
		for _, raw := range strings.Split(doc.PageText(p), "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			if label, title, ok := DetectHeading(line); ok {
				marks = append(marks, headingMark{page: p, label: label, title: title})
			}
		}
	}
	if len(marks) == 0 {
		return nil
	}

	sections := make([]models.Section, 0, len(marks))
	for i, mark := range marks {
		start := mark.page
		end := doc.PageCount()
		if i+1 < len(marks) && marks[i+1].page-1 < end {
			end = marks[i+1].page - 1
		}
		if end < start {
			end = start
		}
		sections = append(sections, models.Section{
			Label:     mark.label,
			Title:     mark.title,
			PageStart: start,
			PageEnd:   end,
			Text:      pageRangeText(doc, start, end),
		})
	}
	return sections
}

// segmentWhole is the degenerate fallback: one section spanning the whole
// document, titled after the file.
func segmentWhole(doc Document, name string) []models.Section {
	count := doc.PageCount()
	if count < 1 {
		count = 1
	}
	return []models.Section{{
		Title:     name,
		PageStart: 1,
		PageEnd:   count,
		Text:      pageRangeText(doc, 1, count),
	}}
}

func pageRangeText(doc Document, start, end int) string {
	var b strings.Builder
	for p := start; p <= end; p++ {
		if p > start {
			b.WriteString("\n")
		}
		b.WriteString(doc.PageText(p))
	}
	return strings.TrimSpace(b.String())
}
