package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aykhuss/inspire/internal/config"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values in ~/.config/inspire/config.yml.

Usage:
  inspire config                        # Show all config
  inspire config bib_file               # Get specific value
  inspire config bib_file ~/refs.bib    # Set value
  inspire config init                   # Write config, create bib file and pdf_dir

Keys:
  size             Records requested per search (10)
  max_num_authors  Authors shown in the selection list (5)
  page_size        Records per selection page (5)
  display          Default display format (latex-eu)
  bib_file         Bibliography file
  pdf_dir          Directory for downloaded PDFs
  pdf_reader       Viewer for pdf --open (system, skim, preview, zathura, evince, okular)
  cache_dir        Directory for the local search index
  api_url          INSPIRE API base URL

INSPIRE_BIB_FILE, INSPIRE_PDF_DIR and INSPIRE_API_URL override the file.`,
	Args: cobra.MaximumNArgs(2),
	Run:  runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the config file and create the bibliography and PDF directory",
	Args:  cobra.NoArgs,
	Run:   runConfigInit,
}

func runConfig(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()

	// No args: show all config
	if len(args) == 0 {
		if jsonOutput {
			outputJSON(ConfigResponse{Path: config.Path(), Config: cfg})
			return
		}
		outputHuman("# %s\n", config.Path())
		for _, k := range config.Keys {
			v, _ := cfg.Get(k)
			outputHuman("%-16s %s\n", k+":", v)
		}
		return
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{key: v})
		} else {
			outputHuman("%s\n", v)
		}
		return
	}

	// Two args: set value in the file, without environment overrides
	file, err := config.LoadFile()
	if err != nil {
		exitWithError(ExitConfigError, "loading config %s: %v", config.Path(), err)
	}
	if err := file.Set(key, args[1]); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := file.Save(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if jsonOutput {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: args[1]})
	} else {
		outputHuman("Set %s = %s\n", key, args[1])
	}
}

func runConfigInit(cmd *cobra.Command, args []string) {
	file, err := config.LoadFile()
	if err != nil {
		exitWithError(ExitConfigError, "loading config %s: %v", config.Path(), err)
	}
	res, err := file.Init(rootCmd.Name(), time.Now())
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if jsonOutput {
		outputJSON(res)
		return
	}
	outputHuman("config: %s\n", res.ConfigPath)
	if res.BibCreated {
		outputHuman("created %s\n", res.BibFile)
	}
	if res.PDFDirCreated {
		outputHuman("created %s\n", res.PDFDir)
	}
}

// normalizeKey accepts dashed keys (bib-file) for underscored ones.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}
