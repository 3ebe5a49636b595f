// Package inspire provides a client for the INSPIRE-HEP literature API.
package inspire

import (
	"fmt"

	"github.com/aykhuss/inspire/internal/arxiv"
)

// Sort is the ordering of search results.
type Sort string

const (
	SortMostRecent Sort = "mostrecent"
	SortMostCited  Sort = "mostcited"
)

// ValidSorts lists the accepted sort orders.
var ValidSorts = []Sort{SortMostRecent, SortMostCited}

// ParseSort validates a sort order string. Empty selects SortMostRecent.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return SortMostRecent, nil
	}
	for _, v := range ValidSorts {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q (valid: %v)", s, ValidSorts)
}

// Display formats a record can be retrieved in.
const (
	FormatBibTeX    = "bibtex"
	FormatLaTeXEU   = "latex-eu"
	FormatLaTeXUS   = "latex-us"
	FormatJSON      = "json"
	FormatCV        = "cv"
	FormatCitations = "citations"
)

// ValidFormats lists the supported display formats.
var ValidFormats = []string{FormatBibTeX, FormatLaTeXEU, FormatLaTeXUS, FormatJSON, FormatCV, FormatCitations}

// ValidateFormat checks that format is a supported display format.
func ValidateFormat(format string) error {
	for _, v := range ValidFormats {
		if v == format {
			return nil
		}
	}
	return fmt.Errorf("invalid display format %q (valid: %v)", format, ValidFormats)
}

// Record is one literature record. Records are not modified after decoding.
type Record struct {
	ID           string            `json:"id"`
	Keys         []string          `json:"texkeys"`
	Eprints      []arxiv.Eprint    `json:"arxiv_eprints,omitempty"`
	Title        string            `json:"title,omitempty"`
	Authors      []string          `json:"authors,omitempty"`
	AuthorCount  int               `json:"author_count,omitempty"`
	EarliestDate string            `json:"earliest_date,omitempty"`
	Links        map[string]string `json:"links,omitempty"`
}

// Key returns the canonical citation key (the first texkey).
func (r Record) Key() string {
	if len(r.Keys) == 0 {
		return ""
	}
	return r.Keys[0]
}

// HasKey reports whether key is one of the record's citation keys.
func (r Record) HasKey(key string) bool {
	for _, k := range r.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Result is one page of search results.
type Result struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"` // Total matches reported by the server
}

// literatureResponse mirrors the JSON returned by /literature.
type literatureResponse struct {
	Hits struct {
		Hits  []hit `json:"hits"`
		Total int   `json:"total"`
	} `json:"hits"`
}

type hit struct {
	ID       string            `json:"id"`
	Links    map[string]string `json:"links"`
	Metadata struct {
		ControlNumber int            `json:"control_number"`
		TexKeys       []string       `json:"texkeys"`
		ArxivEprints  []arxiv.Eprint `json:"arxiv_eprints"`
		Titles        []struct {
			Title string `json:"title"`
		} `json:"titles"`
		Authors []struct {
			FullName string `json:"full_name"`
		} `json:"authors"`
		AuthorCount  int    `json:"author_count"`
		EarliestDate string `json:"earliest_date"`
	} `json:"metadata"`
}

// toRecord converts a search hit to a Record.
func (h hit) toRecord() Record {
	rec := Record{
		ID:           h.ID,
		Keys:         h.Metadata.TexKeys,
		Eprints:      h.Metadata.ArxivEprints,
		AuthorCount:  h.Metadata.AuthorCount,
		EarliestDate: h.Metadata.EarliestDate,
		Links:        h.Links,
	}
	if rec.ID == "" && h.Metadata.ControlNumber != 0 {
		rec.ID = fmt.Sprintf("%d", h.Metadata.ControlNumber)
	}
	if len(h.Metadata.Titles) > 0 {
		rec.Title = h.Metadata.Titles[0].Title
	}
	for _, a := range h.Metadata.Authors {
		rec.Authors = append(rec.Authors, a.FullName)
	}
	if rec.AuthorCount == 0 {
		rec.AuthorCount = len(rec.Authors)
	}
	return rec
}
