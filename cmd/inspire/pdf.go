package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/artifact"
	"github.com/aykhuss/inspire/internal/config"
)

var (
	pdfForce bool
	pdfOpen  bool
)

func init() {
	pdfCmd.Flags().BoolVarP(&pdfForce, "force", "f", false, "Overwrite an existing PDF")
	pdfCmd.Flags().BoolVarP(&pdfOpen, "open", "o", false, "Open the PDF with pdf_reader afterwards")
	rootCmd.AddCommand(pdfCmd)
}

var pdfCmd = &cobra.Command{
	Use:   "pdf <key>",
	Short: "Download the arXiv PDF for a citation key",
	Long: `Look the citation key up on INSPIRE and save the arXiv PDF of the record
as <pdf_dir>/<key>.pdf. With --open an existing PDF is opened without
downloading it again.

Examples:
  inspire pdf Huss:2020abc
  inspire pdf --force Huss:2020abc
  inspire pdf -o Huss:2020abc`,
	Args: cobra.ExactArgs(1),
	Run:  runPDF,
}

func runPDF(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	if cfg.PDFDir == "" {
		exitWithError(ExitConfigError, "pdf_dir not configured in %s", config.Path())
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	key := args[0]
	engine := newEngine(cfg, cfg.BibFile)
	viewer := artifact.NewViewer(cfg.PDFReader)

	if path := engine.ArtifactPath(key); pdfOpen && !pdfForce {
		if _, err := os.Stat(path); err == nil {
			if err := viewer.Open(path); err != nil {
				exitWithError(ExitError, "%v", err)
			}
			return
		}
	}

	dl, err := engine.FetchArtifact(ctx, key, pdfForce)
	if err != nil {
		if errors.Is(err, artifact.ErrArtifactExists) {
			exitWithError(ExitDataError, "%v (use --force to re-download)", err)
		}
		exitWithErr(err, "downloading PDF for %q", key)
	}

	if jsonOutput {
		outputJSON(dl)
	} else {
		outputHuman("saved %s (%d bytes, %d pages) from %s\n", dl.Path, dl.Bytes, dl.Pages, dl.URL)
	}
	if pdfOpen {
		if err := viewer.Open(dl.Path); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}
}
