package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	return strings.Map(func(c rune) rune {
		if unicode.IsSpace(c) {
			return ' '
		}
		if !unicode.IsPrint(c) {
			return -1
		}
		return c
	}, s)
}

// CleanText normalizes the text of a rendered cell: any whitespace (including
// non-breaking spaces) becomes a plain space, non-printable runes are dropped,
// runs of spaces collapse and the ends are trimmed.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CellTexts returns the cleaned text of every td/th directly under a row.
func CellTexts(row *goquery.Selection) []string {
	cells := row.ChildrenFiltered("td, th")
	out := make([]string, 0, cells.Length())
	for _, n := range cells.Nodes {
		out = append(out, CleanText(GetText(n)))
	}
	return out
}
