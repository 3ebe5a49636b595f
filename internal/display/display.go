// Package display renders retrieved record text for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"

	"github.com/aykhuss/inspire/internal/inspire"
)

const (
	// Formatter is the chroma formatter used for terminal output.
	Formatter = "terminal256"
	// Style is the chroma style used for terminal output.
	Style = "monokai"
)

// LexerFor returns the chroma lexer name for a display format.
func LexerFor(format string) string {
	switch {
	case strings.HasPrefix(format, "latex"):
		return "tex"
	case format == inspire.FormatBibTeX:
		return "bibtex"
	case format == inspire.FormatCV:
		return "html"
	case format == inspire.FormatJSON, format == inspire.FormatCitations:
		return "json"
	}
	return "text"
}

// Write prints text in the given display format. With color set the text
// is syntax highlighted; if highlighting fails the plain text is written.
func Write(w io.Writer, text, format string, color bool) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if color {
		var buf strings.Builder
		if err := quick.Highlight(&buf, text, LexerFor(format), Formatter, Style); err == nil {
			_, err := io.WriteString(w, buf.String())
			return err
		}
	}
	_, err := io.WriteString(w, text)
	return err
}

// Label renders a one-line summary of a record for selection lists:
// all texkeys (canonical first), earliest date, arXiv identifier, authors
// (truncated to maxAuthors) and title.
func Label(rec inspire.Record, maxAuthors int) string {
	var b strings.Builder
	b.WriteString(strings.Join(rec.Keys, ", "))
	if rec.EarliestDate != "" {
		fmt.Fprintf(&b, " (%s)", rec.EarliestDate)
	}
	if len(rec.Eprints) > 0 {
		fmt.Fprintf(&b, " [%s]", rec.Eprints[0].Value)
	}
	if authors := Authors(rec, maxAuthors); authors != "" {
		b.WriteString(" ")
		b.WriteString(authors)
	}
	if rec.Title != "" {
		fmt.Fprintf(&b, ": %q", rec.Title)
	}
	return b.String()
}

// Authors joins up to maxAuthors names, adding "et al." when the record
// has more.
func Authors(rec inspire.Record, maxAuthors int) string {
	names := rec.Authors
	if maxAuthors > 0 && len(names) > maxAuthors {
		names = names[:maxAuthors]
	}
	s := strings.Join(names, ", ")
	if rec.AuthorCount > len(names) && len(names) > 0 {
		s += " et al."
	}
	return s
}
