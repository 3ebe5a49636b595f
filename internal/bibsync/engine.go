// Package bibsync reconciles a local bibliography with INSPIRE.
//
// Run rebuilds the whole file from the remote source under the bibstore
// backup protocol. Add appends user-selected records and fetches their PDFs.
package bibsync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aykhuss/inspire/internal/artifact"
	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/inspire"
)

// DefaultToolName is written into the bibliography header.
const DefaultToolName = "inspire"

// HeaderTimeFormat is the timestamp layout of the header line.
const HeaderTimeFormat = "2006-01-02 15:04:05"

// Source is the remote record authority.
type Source interface {
	Query(ctx context.Context, query string, sort inspire.Sort, size int) (*inspire.Result, error)
	Retrieve(ctx context.Context, rec inspire.Record, format string) (string, error)
}

// Fetcher downloads the PDF of a record.
type Fetcher interface {
	Fetch(ctx context.Context, rec inspire.Record, dest string, overwrite bool) (*artifact.Download, error)
}

// ProgressFunc is called after each key is processed.
type ProgressFunc func(done, total int, key string)

// Engine drives updates of one bibliography file. It holds no mutable
// state between calls; all paths and tunables are fixed at construction.
type Engine struct {
	store    *bibstore.Store
	source   Source
	fetcher  Fetcher
	pdfDir   string
	logger   *slog.Logger
	now      func() time.Time
	tool     string
	progress ProgressFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithFetcher enables PDF downloads into dir.
func WithFetcher(f Fetcher, dir string) Option {
	return func(e *Engine) {
		e.fetcher = f
		e.pdfDir = dir
	}
}

// WithLogger sets the logger for per-key warnings.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithClock sets the time source for the header line.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithToolName sets the tool identity written into the header line.
func WithToolName(name string) Option {
	return func(e *Engine) {
		e.tool = name
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// New creates an Engine for store backed by source.
func New(store *bibstore.Store, source Source, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		source: source,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		tool:   DefaultToolName,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ArtifactPath returns where the PDF for key is stored.
func (e *Engine) ArtifactPath(key string) string {
	return filepath.Join(e.pdfDir, key+".pdf")
}

// Warning is a per-key problem that did not abort the batch.
type Warning struct {
	Key     string `json:"key"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Engine) warn(warnings *[]Warning, key, msg string, err error) {
	e.logger.Warn(msg, "key", key, "error", err)
	*warnings = append(*warnings, Warning{Key: key, Message: fmt.Sprintf("%s: %v", msg, err), Err: err})
}

func (e *Engine) report(done, total int, key string) {
	if e.progress != nil {
		e.progress(done, total, key)
	}
}
