// Package config handles the global inspire configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aykhuss/inspire/internal/inspire"
)

// Config represents configuration stored in ~/.config/inspire/config.yml.
type Config struct {
	Size          int    `yaml:"size"`            // Records requested per search
	MaxNumAuthors int    `yaml:"max_num_authors"` // Authors shown before "et al."
	PageSize      int    `yaml:"page_size"`       // Records per selector page
	Display       string `yaml:"display"`         // Default display format
	BibFile       string `yaml:"bib_file"`
	PDFDir        string `yaml:"pdf_dir"`
	PDFReader     string `yaml:"pdf_reader,omitempty"` // Viewer used by pdf --open
	CacheDir      string `yaml:"cache_dir,omitempty"`
	APIURL        string `yaml:"api_url,omitempty"`
}

const (
	// Dir is the directory name under XDG_CONFIG_HOME.
	Dir = "inspire"
	// File is the config file name.
	File = "config.yml"
)

// Environment variables overriding file values.
const (
	EnvBibFile = "INSPIRE_BIB_FILE"
	EnvPDFDir  = "INSPIRE_PDF_DIR"
	EnvAPIURL  = "INSPIRE_API_URL"
)

// Keys lists the settable configuration keys in display order.
var Keys = []string{"size", "max_num_authors", "page_size", "display", "bib_file", "pdf_dir", "pdf_reader", "cache_dir", "api_url"}

// PDFReaders lists the accepted pdf_reader values.
var PDFReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// cache holds the loaded config.
var cache *Config

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Size:          10,
		MaxNumAuthors: 5,
		PageSize:      5,
		Display:       inspire.FormatLaTeXEU,
		BibFile:       "~/references.bib",
		PDFDir:        "~/references",
		PDFReader:     "system",
		APIURL:        inspire.BaseURL,
	}
}

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/inspire/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, Dir, File)
}

// Load returns the effective configuration: the file over the defaults,
// then environment overrides, with ~ expanded. A missing file is not an
// error. The result is cached and must not be saved; use LoadFile to edit
// the file.
func Load() (*Config, error) {
	if cache != nil {
		return cache, nil
	}

	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.BibFile = ExpandPath(cfg.BibFile)
	cfg.PDFDir = ExpandPath(cfg.PDFDir)
	cfg.CacheDir = ExpandPath(cfg.CacheDir)

	cache = cfg
	return cfg, nil
}

// LoadFile reads only the config file over the defaults, leaving values as
// written. It is the config to modify and Save.
func LoadFile() (*Config, error) {
	cfg := Default()
	if path := Path(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	cache = nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBibFile); v != "" {
		c.BibFile = v
	}
	if v := os.Getenv(EnvPDFDir); v != "" {
		c.PDFDir = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
}

// Validate checks value ranges and the display format.
func (c *Config) Validate() error {
	if c.Size < 1 {
		return fmt.Errorf("invalid size: %d (must be positive)", c.Size)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page_size: %d (must be positive)", c.PageSize)
	}
	if c.MaxNumAuthors < 1 {
		return fmt.Errorf("invalid max_num_authors: %d (must be positive)", c.MaxNumAuthors)
	}
	if err := inspire.ValidateFormat(c.Display); err != nil {
		return fmt.Errorf("invalid display: %w", err)
	}
	if c.BibFile == "" {
		return fmt.Errorf("bib_file not configured")
	}
	if c.PDFReader != "" && !slices.Contains(PDFReaders, c.PDFReader) {
		return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", c.PDFReader, PDFReaders)
	}
	return nil
}

// Get returns the value of a configuration key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "size":
		return strconv.Itoa(c.Size), nil
	case "max_num_authors":
		return strconv.Itoa(c.MaxNumAuthors), nil
	case "page_size":
		return strconv.Itoa(c.PageSize), nil
	case "display":
		return c.Display, nil
	case "bib_file":
		return c.BibFile, nil
	case "pdf_dir":
		return c.PDFDir, nil
	case "pdf_reader":
		return c.PDFReader, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "api_url":
		return c.APIURL, nil
	}
	return "", fmt.Errorf("unknown config key: %s (valid: %v)", key, Keys)
}

// Set assigns a configuration key from its string form and validates the result.
func (c *Config) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "size":
		next.Size, err = strconv.Atoi(value)
	case "max_num_authors":
		next.MaxNumAuthors, err = strconv.Atoi(value)
	case "page_size":
		next.PageSize, err = strconv.Atoi(value)
	case "display":
		next.Display = value
	case "bib_file":
		next.BibFile = value
	case "pdf_dir":
		next.PDFDir = value
	case "pdf_reader":
		next.PDFReader = value
	case "cache_dir":
		next.CacheDir = value
	case "api_url":
		next.APIURL = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: %v)", key, Keys)
	}
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Save writes the configuration to the config file, creating its directory.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	ResetCache()
	return nil
}

// InitResult reports what Init created.
type InitResult struct {
	ConfigPath    string `json:"config_path"`
	ConfigExisted bool   `json:"config_existed"`
	BibFile       string `json:"bib_file"`
	BibCreated    bool   `json:"bib_created"`
	PDFDir        string `json:"pdf_dir"`
	PDFDirCreated bool   `json:"pdf_dir_created"`
}

// Init writes the config file and creates the bibliography and PDF
// directory if they are missing. An existing bibliography is never touched.
func (c *Config) Init(tool string, now time.Time) (*InitResult, error) {
	res := &InitResult{
		ConfigPath: Path(),
		BibFile:    ExpandPath(c.BibFile),
		PDFDir:     ExpandPath(c.PDFDir),
	}
	if _, err := os.Stat(res.ConfigPath); err == nil {
		res.ConfigExisted = true
	}
	if err := c.Save(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(res.BibFile); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(res.BibFile), 0755); err != nil {
			return nil, fmt.Errorf("creating bibliography directory: %w", err)
		}
		header := fmt.Sprintf("# created by %s on %s\n", tool, now.Format("2006-01-02 15:04:05"))
		if err := os.WriteFile(res.BibFile, []byte(header), 0644); err != nil {
			return nil, fmt.Errorf("creating bibliography: %w", err)
		}
		res.BibCreated = true
	} else if err != nil {
		return nil, fmt.Errorf("checking bibliography: %w", err)
	}

	if res.PDFDir != "" {
		if _, err := os.Stat(res.PDFDir); os.IsNotExist(err) {
			if err := os.MkdirAll(res.PDFDir, 0755); err != nil {
				return nil, fmt.Errorf("creating PDF directory: %w", err)
			}
			res.PDFDirCreated = true
		}
	}
	return res, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
