package scraper

import (
	"context"
	"fmt"
	"io"

	"guildexp/internal/exp"
	"guildexp/lib/htmlutil"
	"guildexp/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const headerMatchThreshold = 0.9

// Layout describes where the member name and yesterday's experience live in
// a listing table. Columns are 1-based positions among the cells of a row.
type Layout struct {
	NameColumn int `json:"name_column"`
	ExpColumn  int `json:"exp_column"`
	// ExpHeader, when set, selects the experience column by the text of the
	// closest header cell instead of ExpColumn.
	ExpHeader string `json:"exp_header"`
}

func DefaultLayout() Layout {
	return Layout{NameColumn: 2, ExpColumn: 12}
}

func (l Layout) withDefaults() Layout {
	defaults := DefaultLayout()
	if l.NameColumn <= 0 {
		l.NameColumn = defaults.NameColumn
	}
	if l.ExpColumn <= 0 {
		l.ExpColumn = defaults.ExpColumn
	}
	return l
}

// dataCell returns the text of the nth (1-based) cell of a row, header
// cells never count as data.
func dataCell(row *goquery.Selection, n int) string {
	cell := row.ChildrenFiltered("td, th").Eq(n - 1)
	if cell.Length() == 0 || goquery.NodeName(cell) != "td" {
		return ""
	}
	return htmlutil.CleanText(htmlutil.GetText(cell.Get(0)))
}

func (l Layout) resolveExpColumn(doc *goquery.Document) int {
	if l.ExpHeader == "" {
		return l.ExpColumn
	}

	column := l.ExpColumn
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.ChildrenFiltered("th").Length() == 0 {
			return true
		}
		idx, similarity := textutil.BestMatch(l.ExpHeader, htmlutil.CellTexts(row))
		if idx >= 0 && similarity >= headerMatchThreshold {
			column = idx + 1
		}
		return false
	})
	return column
}

// Extract reads every table row of a listing and returns one item per row
// with a non-empty name, in row order. The experience text is stripped down
// to digits and signs, an unparseable value becomes 0.
func Extract(ctx context.Context, r io.Reader, layout Layout) ([]exp.Item, error) {
	_, span := tracer.Start(ctx, "scraper:extract")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	layout = layout.withDefaults()
	expColumn := layout.resolveExpColumn(doc)

	items := []exp.Item{}
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		name := dataCell(row, layout.NameColumn)
		if name == "" {
			return
		}
		value, _ := ParseExpText(dataCell(row, expColumn))
		items = append(items, exp.Item{
			Name:              name,
			ExpYesterdaySnake: value,
		})
	})

	span.SetAttributes(
		attribute.Int("rows", len(items)),
		attribute.Int("exp_column", expColumn),
	)
	return items, nil
}

// ParseExpText parses the experience cell of a listing ("+1,234,567").
func ParseExpText(text string) (int64, bool) {
	return exp.ParseStripped(text)
}
