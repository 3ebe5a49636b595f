package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points the config at a temp XDG_CONFIG_HOME and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	ResetCache()
	t.Cleanup(ResetCache)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(EnvBibFile, "")
	t.Setenv(EnvPDFDir, "")
	t.Setenv(EnvAPIURL, "")
	return dir
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, Dir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, Dir, File), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/inspire/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "inspire", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoad_NotFound(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Size != 10 || cfg.MaxNumAuthors != 5 || cfg.PageSize != 5 || cfg.Display != "latex-eu" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if strings.HasPrefix(cfg.BibFile, "~") {
		t.Errorf("BibFile = %q, want tilde expanded", cfg.BibFile)
	}
}

func TestLoad_Valid(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "size: 25\ndisplay: bibtex\nbib_file: /tmp/refs.bib\npdf_dir: /tmp/pdfs\n")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Size != 25 {
		t.Errorf("Size = %d, want 25", cfg.Size)
	}
	if cfg.Display != "bibtex" {
		t.Errorf("Display = %q, want bibtex", cfg.Display)
	}
	if cfg.BibFile != "/tmp/refs.bib" || cfg.PDFDir != "/tmp/pdfs" {
		t.Errorf("paths = %q, %q", cfg.BibFile, cfg.PDFDir)
	}
	// unset keys keep defaults
	if cfg.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", cfg.PageSize)
	}
}

func TestLoad_Cached(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "size: 3\n")

	first, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	writeConfig(t, dir, "size: 4\n")
	second, _ := Load()
	if first != second || second.Size != 3 {
		t.Errorf("Load() not cached: size = %d", second.Size)
	}

	ResetCache()
	third, _ := Load()
	if third.Size != 4 {
		t.Errorf("after ResetCache size = %d, want 4", third.Size)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "bib_file: /tmp/refs.bib\n")
	t.Setenv(EnvBibFile, "/override/refs.bib")
	t.Setenv(EnvPDFDir, "/override/pdfs")
	t.Setenv(EnvAPIURL, "http://localhost:9999/api")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BibFile != "/override/refs.bib" || cfg.PDFDir != "/override/pdfs" || cfg.APIURL != "http://localhost:9999/api" {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "size: [\n"},
		{"zero size", "size: 0\n"},
		{"bad display", "display: html\n"},
		{"zero page size", "page_size: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeConfig(t, dir, tt.content)
			if _, err := Load(); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("size", "20"); err != nil {
		t.Fatalf("Set(size) error = %v", err)
	}
	if got, _ := cfg.Get("size"); got != "20" {
		t.Errorf("Get(size) = %q, want 20", got)
	}

	if err := cfg.Set("size", "abc"); err == nil {
		t.Error("Set(size, abc) expected error")
	}
	if err := cfg.Set("display", "html"); err == nil {
		t.Error("Set(display, html) expected error")
	}
	if cfg.Display != "latex-eu" {
		t.Errorf("failed Set changed Display to %q", cfg.Display)
	}
	if err := cfg.Set("pdf_reader", "acrobat"); err == nil {
		t.Error("Set(pdf_reader, acrobat) expected error")
	}
	if err := cfg.Set("pdf_reader", "zathura"); err != nil {
		t.Errorf("Set(pdf_reader, zathura) error = %v", err)
	}
	if err := cfg.Set("nope", "1"); err == nil {
		t.Error("Set(nope) expected error")
	}
	if _, err := cfg.Get("nope"); err == nil {
		t.Error("Get(nope) expected error")
	}

	for _, k := range Keys {
		if _, err := cfg.Get(k); err != nil {
			t.Errorf("Get(%q) error = %v", k, err)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.BibFile = "/tmp/x.bib"
	cfg.Size = 7
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size != 7 || loaded.BibFile != "/tmp/x.bib" {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestSave_KeepsEnvironmentOverridesOut(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "bib_file: ~/refs.bib\n")
	t.Setenv(EnvBibFile, "/tmp/scratch.bib")

	effective, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if effective.BibFile != "/tmp/scratch.bib" {
		t.Errorf("Load().BibFile = %q, want override", effective.BibFile)
	}

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if err := cfg.Set("size", "20"); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(Path())
	if err != nil {
		t.Fatal(err)
	}
	saved := string(data)
	if strings.Contains(saved, "scratch") {
		t.Errorf("saved config contains the override:\n%s", saved)
	}
	if !strings.Contains(saved, "~/refs.bib") || !strings.Contains(saved, "size: 20") {
		t.Errorf("saved config =\n%s", saved)
	}
}

func TestInit(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	cfg := Default()
	cfg.BibFile = filepath.Join(root, "lit", "references.bib")
	cfg.PDFDir = filepath.Join(root, "pdfs")
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	res, err := cfg.Init("inspire", now)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !res.BibCreated || !res.PDFDirCreated || res.ConfigExisted {
		t.Errorf("Init() = %+v", res)
	}

	data, err := os.ReadFile(cfg.BibFile)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "# created by inspire on 2024-03-01 12:30:00\n"; got != want {
		t.Errorf("bib = %q, want %q", got, want)
	}
	if info, err := os.Stat(cfg.PDFDir); err != nil || !info.IsDir() {
		t.Errorf("PDF dir not created: %v", err)
	}
	if _, err := os.Stat(Path()); err != nil {
		t.Errorf("config not written: %v", err)
	}

	// second init keeps the existing bibliography
	if err := os.WriteFile(cfg.BibFile, []byte("@article{a,}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	res, err = cfg.Init("inspire", now)
	if err != nil {
		t.Fatal(err)
	}
	if res.BibCreated || res.PDFDirCreated || !res.ConfigExisted {
		t.Errorf("second Init() = %+v", res)
	}
	data, _ = os.ReadFile(cfg.BibFile)
	if string(data) != "@article{a,}\n" {
		t.Error("existing bibliography overwritten")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/abs/path", "/abs/path"},
		{"~/refs.bib", filepath.Join(home, "refs.bib")},
		{"rel/path", "rel/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
