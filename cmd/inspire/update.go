package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/bibstore"
	"github.com/aykhuss/inspire/internal/bibsync"
	"github.com/aykhuss/inspire/internal/config"
)

var (
	updateBib         string
	updatePDF         bool
	updateDropSkipped bool
)

func init() {
	updateCmd.Flags().StringVarP(&updateBib, "bib", "b", "", "Bibliography file to update (default from config)")
	updateCmd.Flags().BoolVar(&updatePDF, "pdf", false, "Re-download the PDF of every entry")
	updateCmd.Flags().BoolVar(&updateDropSkipped, "drop-skipped", false, "Rewrite even if some entries cannot be parsed (they are lost)")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh every entry of the bibliography from INSPIRE",
	Long: `Rebuild the bibliography so every entry matches its INSPIRE record.

The file is copied to <file>.bak, truncated to a header line and refilled
entry by entry in the original key order. If a key does not resolve to
exactly one record the update stops and the backup is left in place; the
next run restores it before starting over.

Entries the scanner cannot parse (for example braces nested more than one
level inside a field) would be lost by the rewrite, so the update refuses
to start while any exist. Fix them (see 'inspire check') or pass
--drop-skipped.

Examples:
  inspire update
  inspire update -b ~/paper/refs.bib --pdf`,
	Args: cobra.NoArgs,
	Run:  runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bibPath := cfg.BibFile
	if updateBib != "" {
		bibPath = config.ExpandPath(updateBib)
	}
	if updatePDF && cfg.PDFDir == "" {
		exitWithError(ExitConfigError, "--pdf requires pdf_dir in %s", config.Path())
	}

	var opts []bibsync.Option
	bar := newProgressBar()
	if bar != nil {
		opts = append(opts, bibsync.WithProgress(bar.report))
	}
	engine := newEngine(cfg, bibPath, opts...)

	report, err := engine.Run(ctx, bibsync.UpdateOptions{
		RefreshArtifacts: updatePDF,
		DropSkipped:      updateDropSkipped,
	})
	bar.finish()
	if err != nil {
		var amb *bibsync.AmbiguityError
		if errors.As(err, &amb) {
			if jsonOutput {
				outputJSON(report)
			}
			exitWithError(ExitDataError, "%v\nbackup kept at %s%s; the next update restores it",
				err, bibPath, bibstore.BackupSuffix)
		}
		if errors.Is(err, bibsync.ErrSkippedEntries) {
			if jsonOutput {
				outputJSON(report)
			} else {
				for _, f := range report.Skipped {
					fmt.Fprintf(os.Stderr, "unparsable entry %s at byte %d: %s\n", f.Key, f.Offset, f.Reason)
				}
			}
			exitWithError(ExitDataError, "%v\nnothing was changed; fix the entries or pass --drop-skipped", err)
		}
		exitWithErr(err, "updating %s", bibPath)
	}

	if jsonOutput {
		outputJSON(report)
		return
	}
	if report.Recovery.Action != bibstore.RecoveryNone {
		outputHuman("recovered leftover backup (%s)\n", report.Recovery.Action)
	}
	outputHuman("updated %d of %d entries in %s\n", len(report.Updated), report.Keys, bibPath)
	if updatePDF {
		outputHuman("refreshed %d PDFs\n", len(report.Artifacts))
	}
	for _, k := range report.Duplicates {
		fmt.Fprintf(os.Stderr, "warning: %s: duplicate entry dropped\n", k)
	}
	printWarnings(report.Warnings)
}

// progressBar draws update progress on stderr.
type progressBar struct {
	model progress.Model
}

// newProgressBar returns nil when stderr is not a terminal or output is JSON.
func newProgressBar() *progressBar {
	if jsonOutput || verbose || !isInteractive() {
		return nil
	}
	return &progressBar{model: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))}
}

func (p *progressBar) report(done, total int, key string) {
	percent := 1.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%s %d/%d %s", p.model.ViewAs(percent), done, total, truncateString(key, StatusTitleMaxLen))
}

func (p *progressBar) finish() {
	if p == nil {
		return
	}
	fmt.Fprint(os.Stderr, "\r\033[K")
}
