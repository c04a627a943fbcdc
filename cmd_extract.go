package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	extractOutputDir   string
	extractTemplate    string
	extractAutomerge   bool
	extractNoAutomerge bool
	extractAppend      bool
	extractVariables   []string
	extractMaxRecords  int
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract CDF variables into CSV tables",
	Long: `Extract CDF variables into CSV files. By default variables sharing a
record count are merged side by side into one table; pass --no-automerge
for one file per variable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputDir, "output-dir", "o", ".", "directory for the CSV files")
	extractCmd.Flags().StringVar(&extractTemplate, "filename", defaultExtractTemplate, "output filename template")
	extractCmd.Flags().BoolVar(&extractAutomerge, "automerge", true, "merge variables with matching record counts")
	extractCmd.Flags().BoolVar(&extractNoAutomerge, "no-automerge", false, "write one file per variable")
	extractCmd.Flags().BoolVar(&extractAppend, "append", false, "append rows when the output file already exists")
	extractCmd.Flags().StringArrayVarP(&extractVariables, "variable", "v", nil, "extract only this variable (repeatable)")
	extractCmd.Flags().IntVar(&extractMaxRecords, "max-records", 0, "limit the records read per variable")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts := extractOptions{
		OutputDir:        extractOutputDir,
		FilenameTemplate: extractTemplate,
		Automerge:        extractAutomerge && !extractNoAutomerge,
		Append:           extractAppend,
		Variables:        extractVariables,
		MaxRecords:       extractMaxRecords,
	}

	log := slog.Default()
	for _, path := range args {
		results, err := extractCDF(path, opts, log)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return sourceDataErrorf("no data could be extracted from cdf file %s", path)
		}

		fmt.Printf("%s:\n", filepath.Base(path))
		for _, r := range results {
			source := fmt.Sprintf("%d variables", len(r.Variables))
			if len(r.Variables) == 1 {
				source = r.Variables[0]
			}
			fmt.Printf("  %s: %d rows x %d columns, %s (%s)\n",
				r.OutputFile, r.Rows, r.Columns, humanize.Bytes(uint64(r.FileSize)), source)
		}
	}
	return nil
}
