package bibsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/aykhuss/inspire/internal/arxiv"
	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/inspire"
)

func TestAdd_AppendsNewAndReportsExisting(t *testing.T) {
	store, src := setup(t, originalBib)
	a := src.add("new A", "A:2020a")
	c := src.add("new C", "C:2022c")

	report, err := New(store, src).Add(context.Background(), []inspire.Record{a, c}, AddOptions{})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	want := []AddItem{
		{Key: "A:2020a", Entry: EntryExists, PDF: PDFSkipped},
		{Key: "C:2022c", Entry: EntryAdded, PDF: PDFSkipped},
	}
	if !reflect.DeepEqual(report.Items, want) {
		t.Errorf("Items = %+v, want %+v", report.Items, want)
	}

	got := readFile(t, store.Path())
	if !strings.HasPrefix(got, originalBib) {
		t.Error("existing content changed")
	}
	if !strings.HasSuffix(got, "\n@article{C:2022c,\n    title = \"{new C}\"\n}\n") {
		t.Errorf("file tail = %q", got[len(originalBib):])
	}
	if strings.Contains(got, "new A") {
		t.Error("existing entry was appended again")
	}
}

func TestAdd_RetrieveErrorAborts(t *testing.T) {
	store, src := setup(t, originalBib)
	rec := inspire.Record{Keys: []string{"Z:1"}}

	_, err := New(store, src).Add(context.Background(), []inspire.Record{rec}, AddOptions{})
	if !errors.Is(err, inspire.ErrFormatUnavailable) {
		t.Fatalf("Add() error = %v, want ErrFormatUnavailable", err)
	}
	if got := readFile(t, store.Path()); got != originalBib {
		t.Error("file modified")
	}
}

func TestAdd_RecoversPendingBackup(t *testing.T) {
	store, src := setup(t, originalBib)
	if err := store.BeginRewrite(); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteHeader("# partial"); err != nil {
		t.Fatal(err)
	}
	c := src.add("new C", "C:2022c")

	report, err := New(store, src).Add(context.Background(), []inspire.Record{c}, AddOptions{})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if report.Recovery.Action != bibstore.RecoveryRestored {
		t.Errorf("Recovery = %+v, want restored", report.Recovery)
	}
	keys, _ := store.ListKeys()
	if !reflect.DeepEqual(keys, []string{"A:2020a", "B:2021b", "C:2022c"}) {
		t.Errorf("keys = %v", keys)
	}
}

func TestAdd_FetchesArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		existing bool
		confirm  ConfirmFunc
		wantPDF  string
		wantCall []string
	}{
		{
			name:     "new file",
			wantPDF:  PDFDownloaded,
			wantCall: []string{"C:2022c:false"},
		},
		{
			name:     "existing declined",
			existing: true,
			confirm:  func(string) bool { return false },
			wantPDF:  PDFKept,
		},
		{
			name:     "existing no prompt",
			existing: true,
			wantPDF:  PDFKept,
		},
		{
			name:     "existing confirmed",
			existing: true,
			confirm:  func(string) bool { return true },
			wantPDF:  PDFDownloaded,
			wantCall: []string{"C:2022c:true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, src := setup(t, originalBib)
			c := src.add("new C", "C:2022c")
			pdfDir := t.TempDir()
			if tt.existing {
				if err := os.WriteFile(filepath.Join(pdfDir, "C:2022c.pdf"), []byte("old"), 0644); err != nil {
					t.Fatal(err)
				}
			}
			fetcher := &fakeFetcher{}

			e := New(store, src, WithFetcher(fetcher, pdfDir))
			report, err := e.Add(context.Background(), []inspire.Record{c}, AddOptions{
				FetchArtifacts: true,
				Confirm:        tt.confirm,
			})
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			item := report.Items[0]
			if item.PDF != tt.wantPDF {
				t.Errorf("PDF = %q, want %q", item.PDF, tt.wantPDF)
			}
			if item.PDFPath != filepath.Join(pdfDir, "C:2022c.pdf") {
				t.Errorf("PDFPath = %q", item.PDFPath)
			}
			if !reflect.DeepEqual(fetcher.fetched, tt.wantCall) {
				t.Errorf("fetched = %v, want %v", fetcher.fetched, tt.wantCall)
			}
		})
	}
}

func TestAdd_ArtifactFailureIsWarning(t *testing.T) {
	store, src := setup(t, originalBib)
	c := src.add("new C", "C:2022c")
	fetcher := &fakeFetcher{fail: map[string]error{"C:2022c": arxiv.ErrUnresolvableIdentifier}}

	report, err := New(store, src, WithFetcher(fetcher, t.TempDir())).
		Add(context.Background(), []inspire.Record{c}, AddOptions{FetchArtifacts: true})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if report.Items[0].Entry != EntryAdded || report.Items[0].PDF != PDFFailed {
		t.Errorf("item = %+v", report.Items[0])
	}
	if len(report.Warnings) != 1 || !errors.Is(report.Warnings[0].Err, arxiv.ErrUnresolvableIdentifier) {
		t.Errorf("Warnings = %+v", report.Warnings)
	}
}

func TestAdd_FetchWithoutFetcher(t *testing.T) {
	store, src := setup(t, originalBib)
	_, err := New(store, src).Add(context.Background(), nil, AddOptions{FetchArtifacts: true})
	if !errors.Is(err, ErrNoFetcher) {
		t.Errorf("Add() error = %v, want ErrNoFetcher", err)
	}
}

func TestSelect(t *testing.T) {
	recs := []inspire.Record{
		{Keys: []string{"a"}},
		{Keys: []string{"b"}},
		{Keys: []string{"c"}},
	}
	keysOf := func(rs []inspire.Record) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Key())
		}
		return out
	}

	t.Run("subset in pick order", func(t *testing.T) {
		got, err := Select(recs, func([]inspire.Record) ([]int, error) { return []int{2, 0, 2}, nil })
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"c", "a"}; !reflect.DeepEqual(keysOf(got), want) {
			t.Errorf("Select() = %v, want %v", keysOf(got), want)
		}
	})

	t.Run("single record skips picker", func(t *testing.T) {
		called := false
		got, err := Select(recs[:1], func([]inspire.Record) ([]int, error) { called = true; return nil, nil })
		if err != nil || called || len(got) != 1 {
			t.Errorf("Select() = %v, %v (picker called: %v)", got, err, called)
		}
	})

	t.Run("nil picker selects all", func(t *testing.T) {
		got, _ := Select(recs, nil)
		if len(got) != 3 {
			t.Errorf("len = %d, want 3", len(got))
		}
	})

	t.Run("out of range", func(t *testing.T) {
		if _, err := Select(recs, func([]inspire.Record) ([]int, error) { return []int{3}, nil }); err == nil {
			t.Error("Select() expected error")
		}
	})

	t.Run("picker error", func(t *testing.T) {
		boom := errors.New("cancelled")
		if _, err := Select(recs, func([]inspire.Record) ([]int, error) { return nil, boom }); !errors.Is(err, boom) {
			t.Errorf("Select() error = %v", err)
		}
	})
}
