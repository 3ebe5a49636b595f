// Package bibtex scans bibliography text for citation entries.
//
// The scanner recognises entries of the form
//
//	@type{key, fields...}
//
// where field values may contain at most one level of nested braces.
// Deeper nesting is a known limitation: such entries are reported as
// skipped fragments instead of being parsed.
package bibtex

import (
	"os"
	"strings"
)

// MaxDepth is the deepest brace nesting accepted inside an entry,
// counting the entry's own braces as depth 1.
const MaxDepth = 2

// Entry is one well-formed entry found in the text.
type Entry struct {
	Type   string // Entry type without the @ marker (article, misc, ...)
	Key    string // Citation key
	Text   string // Raw text from the @ marker through the closing brace
	Offset int    // Byte offset of the @ marker
}

// Fragment is a structurally invalid entry candidate that was skipped.
type Fragment struct {
	Offset int    `json:"offset"`
	Key    string `json:"key,omitempty"` // Set when the key itself was readable
	Reason string `json:"reason"`
}

// Skip reasons reported in Fragment.Reason.
const (
	ReasonNoType      = "missing entry type"
	ReasonNoOpen      = "missing opening brace"
	ReasonNoKey       = "missing citation key"
	ReasonNoSeparator = "missing comma after key"
	ReasonTooDeep     = "brace nesting deeper than one level"
	ReasonUnclosed    = "unterminated entry"
)

// Result holds the outcome of scanning a text.
type Result struct {
	Entries []Entry
	Skipped []Fragment
}

// Keys returns the citation keys of all entries in order of appearance.
func (r *Result) Keys() []string {
	keys := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Parse scans text and returns every well-formed entry in order.
// Duplicated keys are kept; collapsing them is up to the caller.
// Malformed candidates never stop the scan: scanning resumes right after
// the offending @ marker.
func Parse(text string) *Result {
	res := &Result{}
	pos := 0
	for {
		at := strings.IndexByte(text[pos:], '@')
		if at < 0 {
			return res
		}
		start := pos + at
		entry, end, reason := scanEntry(text, start)
		if reason != "" {
			res.Skipped = append(res.Skipped, Fragment{Offset: start, Key: entry.Key, Reason: reason})
			pos = start + 1
			continue
		}
		res.Entries = append(res.Entries, entry)
		pos = end
	}
}

// ExtractKeys returns the citation keys found in text, in order of appearance.
func ExtractKeys(text string) []string {
	return Parse(text).Keys()
}

// ParseFile scans the file at path.
// A missing file yields an empty result.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Result{}, nil
		}
		return nil, err
	}
	return Parse(string(data)), nil
}

// scanEntry scans one entry whose @ marker is at start. It returns the
// entry and the offset just past its closing brace, or a non-empty reason.
// On failure the returned entry carries only the key, if one was read.
func scanEntry(text string, start int) (Entry, int, string) {
	i := start + 1

	typeStart := i
	for i < len(text) && isWordByte(text[i]) {
		i++
	}
	if i == typeStart {
		return Entry{}, 0, ReasonNoType
	}
	entryType := text[typeStart:i]

	if i >= len(text) || text[i] != '{' {
		return Entry{}, 0, ReasonNoOpen
	}
	i++
	i = skipSpace(text, i)

	keyStart := i
	for i < len(text) && isKeyByte(text[i]) {
		i++
	}
	if i == keyStart {
		return Entry{}, 0, ReasonNoKey
	}
	key := text[keyStart:i]

	i = skipSpace(text, i)
	if i >= len(text) || text[i] != ',' {
		return Entry{Key: key}, 0, ReasonNoSeparator
	}
	i++

	depth := 1
	for ; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			if depth > MaxDepth {
				return Entry{Key: key}, 0, ReasonTooDeep
			}
		case '}':
			depth--
			if depth == 0 {
				end := i + 1
				return Entry{
					Type:   entryType,
					Key:    key,
					Text:   text[start:end],
					Offset: start,
				}, end, ""
			}
		}
	}
	return Entry{Key: key}, 0, ReasonUnclosed
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// isKeyByte reports whether c may appear in a citation key.
func isKeyByte(c byte) bool {
	return isWordByte(c) || c == '-' || c == '.' || c == ':'
}
