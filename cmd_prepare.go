package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var prepareForce bool

var prepareCmd = &cobra.Command{
	Use:   "prepare <file> <config> <job>",
	Short: "Analyze a CSV file and add a generated sync job to a config",
	Long: `Analyze a CSV file's columns, guess types and the identity column, and
write a ready-to-edit job into the config file. The config is created when
it does not exist yet. The guesses only seed the config; sync never infers.`,
	Args: cobra.ExactArgs(3),
	RunE: runPrepare,
}

func init() {
	prepareCmd.Flags().BoolVarP(&prepareForce, "force", "f", false, "overwrite the job if it already exists")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	filePath, configPath, jobName := args[0], args[1], args[2]

	table, err := readCSVFile(filePath)
	if err != nil {
		return err
	}
	if len(table.Header) == 0 {
		return sourceDataErrorf("csv file %s has no columns", filePath)
	}

	cfg := &Config{Jobs: make(map[string]*SyncJob)}
	if _, statErr := os.Stat(configPath); statErr == nil {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("existing config %s: %w", configPath, err)
		}
		cfg = loaded
	}

	types := make(map[string]string, len(table.Header))
	nullables := make(map[string]bool, len(table.Header))
	for _, h := range table.Header {
		types[h], nullables[h] = inferColumnType(table.columnValues(h))
	}
	idCol := suggestIDColumn(table.Header, cfg.IDColumnMatchers)

	job := &SyncJob{Name: jobName, TargetTable: jobName}
	idNullable := nullables[idCol]
	job.IDMapping = IdentityMapping{{
		SourceColumn: idCol,
		DBColumn:     "id",
		DataType:     types[idCol],
		Nullable:     &idNullable,
	}}
	for _, h := range table.Header {
		if h == idCol {
			continue
		}
		nullable := nullables[h]
		job.Columns = append(job.Columns, ColumnMapping{
			SourceColumn: h,
			DBColumn:     h,
			DataType:     types[h],
			Nullable:     &nullable,
		})
	}
	job.Indexes = suggestIndexes(table.Header, types, idCol)

	if err := cfg.AddJob(job, prepareForce); err != nil {
		return fmt.Errorf("%w (use --force to overwrite)", err)
	}
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("Analyzed %s: %d rows, %d columns\n\n", filepath.Base(filePath), len(table.Rows), len(table.Header))
	rows := make([][]string, 0, len(table.Header))
	for _, h := range table.Header {
		key := ""
		if h == idCol {
			key = "id"
		}
		rows = append(rows, []string{h, types[h], strconv.FormatBool(nullables[h]), key})
	}
	fmt.Println(renderTable([]string{"Column", "Type", "Nullable", "Key"}, rows))

	if len(job.Indexes) > 0 {
		fmt.Println("\nSuggested indexes:")
		for _, idx := range job.Indexes {
			parts := make([]string, len(idx.Columns))
			for i, col := range idx.Columns {
				parts[i] = col.Column + " " + col.Order
			}
			fmt.Printf("  %s (%s)\n", idx.Name, strings.Join(parts, ", "))
		}
	}
	fmt.Printf("\nWrote job %q to %s\n", jobName, configPath)
	return nil
}
