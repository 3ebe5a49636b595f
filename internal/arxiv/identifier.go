// Package arxiv normalizes arXiv preprint identifiers and builds PDF URLs.
//
// Two identifier schemes exist:
//   - new style: YYMM.NNNN or YYMM.NNNNN, optionally with a version (2107.12345v2)
//   - old style: a bare number whose archive is given separately (hep-ph + 9912001)
//
// See https://info.arxiv.org/help/arxiv_identifier_for_services.html
package arxiv

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultPDFBase is the URL prefix for PDF downloads.
const DefaultPDFBase = "https://arxiv.org/pdf/"

// ErrUnresolvableIdentifier indicates a record carries no usable arXiv identifier.
var ErrUnresolvableIdentifier = errors.New("no usable arXiv identifier")

// modernPattern matches a new-style identifier in full.
var modernPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

// Eprint is an arXiv identifier as reported by a record source.
type Eprint struct {
	Value      string   `json:"value"`
	Categories []string `json:"categories,omitempty"`
}

// PrimaryCategory returns the first category, or "" if there is none.
func (e Eprint) PrimaryCategory() string {
	if len(e.Categories) == 0 {
		return ""
	}
	return e.Categories[0]
}

// IsModern reports whether value is a new-style identifier.
func IsModern(value string) bool {
	return modernPattern.MatchString(strings.TrimSpace(value))
}

// Canonical returns the identifier used for artifact lookup.
// New-style values are returned unchanged. Old-style values are prefixed
// with their primary category, unless they already carry an archive prefix.
func Canonical(value string, categories []string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrUnresolvableIdentifier
	}
	if modernPattern.MatchString(value) {
		return value, nil
	}
	if strings.Contains(value, "/") {
		return value, nil
	}
	if len(categories) == 0 || strings.TrimSpace(categories[0]) == "" {
		return "", fmt.Errorf("%w: old-style identifier %q has no category", ErrUnresolvableIdentifier, value)
	}
	return strings.TrimSpace(categories[0]) + "/" + value, nil
}

// Resolve returns the canonical identifier of the first eprint.
func Resolve(eprints []Eprint) (string, error) {
	if len(eprints) == 0 {
		return "", ErrUnresolvableIdentifier
	}
	return Canonical(eprints[0].Value, eprints[0].Categories)
}

// PDFURL returns the download URL for a canonical identifier.
// An empty base selects DefaultPDFBase.
func PDFURL(base, id string) string {
	if base == "" {
		base = DefaultPDFBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + id + ".pdf"
}
