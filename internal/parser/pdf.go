package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"tariff-rag/internal/models"
)

// pdfDocument adapts a ledongthuc/pdf reader to the Document interface.
type pdfDocument struct {
	reader  *pdf.Reader
	outline []OutlineEntry
}

func parsePDF(filePath string) ([]models.Section, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	doc := &pdfDocument{reader: reader}
	doc.outline = readOutline(reader)

	name := filepath.Base(filePath)
	log.Debug().Str("file", name).Int("pages", doc.PageCount()).
		Int("outline_entries", len(doc.outline)).Msg("segmenting PDF")

	return Segment(doc, name), nil
}

func (d *pdfDocument) PageCount() int { return d.reader.NumPage() }

func (d *pdfDocument) PageText(page int) string {
	if page < 1 || page > d.reader.NumPage() {
		return ""
	}
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		// A broken page shouldn't fail the whole document; segmentation
		// degrades through the strategy chain instead.
		log.Warn().Err(err).Int("page", page).Msg("failed to extract page text")
		return ""
	}
	return text
}

func (d *pdfDocument) Outline() []OutlineEntry { return d.outline }

// readOutline walks the PDF outline tree and resolves every entry to a
// 1-indexed start page. An entry whose destination cannot be resolved makes
// the outline unusable for page cuts, so the whole result is discarded and
// segmentation falls through to the heading scan.
func readOutline(r *pdf.Reader) (entries []OutlineEntry) {
	defer func() {
		// Malformed outline trees show up often enough in scanned tariffs;
		// treat them as no outline at all.
		if rec := recover(); rec != nil {
			log.Warn().Interface("panic", rec).Msg("outline walk failed")
			entries = nil
		}
	}()

	outlines := r.Trailer().Key("Root").Key("Outlines")
	if outlines.IsNull() {
		return nil
	}

	pages := pageNumbersByFingerprint(r)

	var walk func(item pdf.Value, level int) bool
	walk = func(item pdf.Value, level int) bool {
		for ; !item.IsNull(); item = item.Key("Next") {
			page, ok := resolveDestPage(item, pages)
			if !ok {
				return false
			}
			if title := strings.TrimSpace(item.Key("Title").Text()); title != "" {
				entries = append(entries, OutlineEntry{Level: level, Title: title, Page: page})
			}
			if child := item.Key("First"); !child.IsNull() {
				if !walk(child, level+1) {
					return false
				}
			}
		}
		return true
	}

	if !walk(outlines.Key("First"), 1) {
		return nil
	}
	return entries
}

// resolveDestPage maps an outline item's destination to a 1-indexed page.
func resolveDestPage(item pdf.Value, pages map[string]int) (int, bool) {
	dest := item.Key("Dest")
	if dest.IsNull() {
		if action := item.Key("A"); action.Key("S").Name() == "GoTo" {
			dest = action.Key("D")
		}
	}
	if dest.Kind() != pdf.Array || dest.Len() == 0 {
		return 0, false
	}

	target := dest.Index(0)
	switch target.Kind() {
	case pdf.Integer:
		// Some producers store the 0-indexed page number directly.
		return int(target.Int64()) + 1, true
	case pdf.Dict:
		if page, ok := pages[target.String()]; ok {
			return page, true
		}
	}
	return 0, false
}

// pageNumbersByFingerprint indexes page dictionaries by their formatted
// value, so destinations resolving to the same dictionaries map back to page
// numbers.
func pageNumbersByFingerprint(r *pdf.Reader) map[string]int {
	pages := make(map[string]int, r.NumPage())
	for p := 1; p <= r.NumPage(); p++ {
		if v := r.Page(p).V; !v.IsNull() {
			pages[v.String()] = p
		}
	}
	return pages
}
