package bibtex

import "strings"

// Field returns the value of the named field with delimiters and inner
// braces removed and whitespace collapsed. Names match case-insensitively.
// A missing field yields "".
func (e Entry) Field(name string) string {
	text := e.Text
	lower := strings.ToLower(text)
	name = strings.ToLower(name)

	// skip past the key so it is never mistaken for a field
	start := strings.IndexByte(text, ',')
	if start < 0 {
		return ""
	}

	for i := start; i < len(lower); {
		j := strings.Index(lower[i:], name)
		if j < 0 {
			return ""
		}
		j += i
		i = j + len(name)
		if j > 0 && isWordByte(lower[j-1]) {
			continue
		}
		k := skipSpace(text, i)
		if k >= len(text) || text[k] != '=' {
			continue
		}
		return clean(fieldValue(text, skipSpace(text, k+1)))
	}
	return ""
}

// fieldValue reads a braced, quoted or bare value starting at i.
func fieldValue(text string, i int) string {
	if i >= len(text) {
		return ""
	}
	switch text[i] {
	case '{':
		depth := 0
		for j := i; j < len(text); j++ {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[i+1 : j]
				}
			}
		}
		return text[i+1:]
	case '"':
		depth := 0
		for j := i + 1; j < len(text); j++ {
			switch text[j] {
			case '{':
				depth++
			case '}':
				depth--
			case '"':
				if depth == 0 && text[j-1] != '\\' {
					return text[i+1 : j]
				}
			}
		}
		return text[i+1:]
	}
	j := i
	for j < len(text) && text[j] != ',' && text[j] != '}' && text[j] != '\n' {
		j++
	}
	return text[i:j]
}

func clean(v string) string {
	v = strings.NewReplacer("{", "", "}", "").Replace(v)
	return strings.Join(strings.Fields(v), " ")
}
