package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/config"
)

var (
	checkBib    string
	checkVerify bool
)

func init() {
	checkCmd.Flags().StringVarP(&checkBib, "bib", "b", "", "Bibliography file to check (default from config)")
	checkCmd.Flags().BoolVar(&checkVerify, "verify", false, "Open every PDF to check it is readable")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report problems in the bibliography and PDF directory",
	Long: `Check the bibliography without changing anything. Reported problems:

  - a pending backup from an interrupted update
  - duplicate citation keys
  - malformed or too deeply nested entries that the scanner skips
  - entries without a PDF in pdf_dir (and unreadable PDFs with --verify)

Exits with status 6 if anything was found.`,
	Args: cobra.NoArgs,
	Run:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	bibPath := cfg.BibFile
	if checkBib != "" {
		bibPath = config.ExpandPath(checkBib)
	}

	report, err := newEngine(cfg, bibPath).Check(checkVerify)
	if err != nil {
		exitWithErr(err, "checking %s", bibPath)
	}

	if jsonOutput {
		outputJSON(report)
	} else {
		outputHuman("%s: %d entries, %s\n", report.Path, report.Entries, report.State)
		for _, k := range report.Duplicates {
			outputHuman("  duplicate key: %s\n", k)
		}
		for _, f := range report.Skipped {
			outputHuman("  unparsable entry %s at byte %d: %s\n", f.Key, f.Offset, f.Reason)
		}
		for _, k := range report.MissingPDFs {
			outputHuman("  missing pdf: %s\n", k)
		}
		for _, b := range report.BadPDFs {
			outputHuman("  bad pdf: %s: %s\n", b.Path, b.Error)
		}
		if report.OK() {
			outputHuman("ok\n")
		}
	}

	code := ExitSuccess
	if !report.OK() {
		code = ExitCheckFailed
	}
	os.Exit(code)
}
