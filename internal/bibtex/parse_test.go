package bibtex

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleBib = `# updated by inspire on 2024-05-01 10:00:00

@article{Huss:2020abc,
    author = "Huss, Alexander and {Gehrmann}, T.",
    title = "{NNLO QCD corrections to jet production}",
    eprint = "2002.01234",
    year = "2020"
}

@misc{hep-ph/9912001,
    title = {Legacy {preprint}},
}
`

func TestExtractKeys_Basic(t *testing.T) {
	got := ExtractKeys(sampleBib)
	// '/' is not a key character, so the legacy-style key is rejected
	want := []string{"Huss:2020abc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeys() = %v, want %v", got, want)
	}
}

func TestExtractKeys_KeyCharacters(t *testing.T) {
	text := `@article{a_b-c.d:e2020, title={x}}`
	got := ExtractKeys(text)
	if len(got) != 1 || got[0] != "a_b-c.d:e2020" {
		t.Errorf("ExtractKeys() = %v, want [a_b-c.d:e2020]", got)
	}
}

func TestExtractKeys_WhitespaceAroundKey(t *testing.T) {
	text := "@book{  Smith:2001x \n , title = {T}}"
	got := ExtractKeys(text)
	if len(got) != 1 || got[0] != "Smith:2001x" {
		t.Errorf("ExtractKeys() = %v, want [Smith:2001x]", got)
	}
}

func TestExtractKeys_DuplicatesSurface(t *testing.T) {
	text := "@article{A:1, x={1}}\n\n@article{B:2, x={2}}\n\n@article{A:1, x={3}}\n"
	got := ExtractKeys(text)
	want := []string{"A:1", "B:2", "A:1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeys() = %v, want %v", got, want)
	}
}

func TestParse_SkipsMalformed(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantKeys   []string
		wantReason string
		wantKey    string // key recorded on the fragment
	}{
		{
			name:       "missing comma",
			text:       "@article{A:1 title={x}}\n@article{B:2, y={z}}",
			wantKeys:   []string{"B:2"},
			wantReason: ReasonNoSeparator,
			wantKey:    "A:1",
		},
		{
			name:       "too deep",
			text:       "@article{A:1, title={a {b {c}} d}}\n@article{B:2, y={z}}",
			wantKeys:   []string{"B:2"},
			wantReason: ReasonTooDeep,
			wantKey:    "A:1",
		},
		{
			name:       "unterminated trailing fragment",
			text:       "@article{A:1, y={z}}\n@article{B:2, title={never closed}",
			wantKeys:   []string{"A:1"},
			wantReason: ReasonUnclosed,
			wantKey:    "B:2",
		},
		{
			name:       "missing key",
			text:       "@article{, y={z}}\n@article{C:3, y={z}}",
			wantKeys:   []string{"C:3"},
			wantReason: ReasonNoKey,
		},
		{
			name:       "bare marker",
			text:       "contact me @ home\n@article{D:4, y={z}}",
			wantKeys:   []string{"D:4"},
			wantReason: ReasonNoType,
		},
		{
			name:       "missing brace",
			text:       "@article(E:5, y={z})\n@article{F:6, y={z}}",
			wantKeys:   []string{"F:6"},
			wantReason: ReasonNoOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text)
			if got := res.Keys(); !reflect.DeepEqual(got, tt.wantKeys) {
				t.Errorf("Keys() = %v, want %v", got, tt.wantKeys)
			}
			if len(res.Skipped) == 0 {
				t.Fatalf("Skipped is empty, want reason %q", tt.wantReason)
			}
			if res.Skipped[0].Reason != tt.wantReason {
				t.Errorf("Skipped[0].Reason = %q, want %q", res.Skipped[0].Reason, tt.wantReason)
			}
			if res.Skipped[0].Key != tt.wantKey {
				t.Errorf("Skipped[0].Key = %q, want %q", res.Skipped[0].Key, tt.wantKey)
			}
		})
	}
}

func TestParse_EntryText(t *testing.T) {
	text := "header\n@article{A:1,\n  title = {One {Nested}}\n}\ntrailer"
	res := Parse(text)
	if len(res.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(res.Entries))
	}
	e := res.Entries[0]
	if e.Type != "article" {
		t.Errorf("Type = %q, want article", e.Type)
	}
	if e.Offset != strings.Index(text, "@") {
		t.Errorf("Offset = %d, want %d", e.Offset, strings.Index(text, "@"))
	}
	if !strings.HasPrefix(e.Text, "@article{A:1,") || !strings.HasSuffix(e.Text, "}\n}") {
		t.Errorf("Text = %q", e.Text)
	}
}

func TestParse_AtSignInsideEntryIsIgnored(t *testing.T) {
	text := "@misc{A:1, note = {mail me@x.org}}"
	res := Parse(text)
	if got := res.Keys(); !reflect.DeepEqual(got, []string{"A:1"}) {
		t.Errorf("Keys() = %v, want [A:1]", got)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", res.Skipped)
	}
}

func TestExtractKeys_Deterministic(t *testing.T) {
	first := ExtractKeys(sampleBib)
	second := ExtractKeys(sampleBib)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("ExtractKeys not deterministic: %v vs %v", first, second)
	}
}

func TestExtractKeys_Compositional(t *testing.T) {
	a := "@article{A:1, t={x}}\n\n@article{B:2, t={y {z}}}\n"
	b := "\n@inproceedings{C:3,\n t = \"w\"\n}\n"

	got := ExtractKeys(a + b)
	want := append(ExtractKeys(a), ExtractKeys(b)...)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractKeys(a+b) = %v, want %v", got, want)
	}
}

func TestExtractKeys_Empty(t *testing.T) {
	if got := ExtractKeys(""); len(got) != 0 {
		t.Errorf("ExtractKeys(\"\") = %v, want empty", got)
	}
	if got := ExtractKeys("# created by inspire on now \n"); len(got) != 0 {
		t.Errorf("ExtractKeys(header) = %v, want empty", got)
	}
}

func TestParseFile_NonExistent(t *testing.T) {
	res, err := ParseFile(filepath.Join(t.TempDir(), "missing.bib"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if len(res.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(res.Entries))
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.bib")
	if err := os.WriteFile(path, []byte(sampleBib), 0644); err != nil {
		t.Fatal(err)
	}
	res, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if got := res.Keys(); len(got) != 1 || got[0] != "Huss:2020abc" {
		t.Errorf("Keys() = %v, want [Huss:2020abc]", got)
	}
}
