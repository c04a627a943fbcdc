package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var inspectRecords int

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Show the structure and sample content of CSV and CDF files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVarP(&inspectRecords, "records", "n", 10, "sample records to show per file or variable")
	rootCmd.AddCommand(inspectCmd)
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	return t.Render()
}

func runInspect(cmd *cobra.Command, args []string) error {
	for i, path := range args {
		if i > 0 {
			fmt.Println()
		}
		if err := inspectFile(path); err != nil {
			return err
		}
	}
	return nil
}

func inspectFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return inspectCSV(path)
	case ".cdf":
		return inspectCDF(path)
	default:
		slog.Default().Warn("unsupported file type, skipping", "file", path)
		return nil
	}
}

func inspectCSV(path string) error {
	t, err := readCSVFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(filepath.Base(path)))
	fmt.Printf("CSV file, %s\n\n", humanize.Bytes(uint64(info.Size())))

	n := min(inspectRecords, len(t.Rows))
	sample := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.Header))
		for j := range t.Header {
			if j < len(t.Rows[i]) {
				row[j] = truncateValue(t.Rows[i][j], 40)
			}
		}
		sample[i] = row
	}
	fmt.Println(renderTable(t.Header, sample))
	fmt.Printf("\n%d rows, %d columns\n", len(t.Rows), len(t.Header))
	return nil
}

func inspectCDF(path string) error {
	f, err := openCDF(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(filepath.Base(path)))
	fmt.Printf("CDF version %s, %s encoding, %s majority, %s\n",
		f.Version(), f.EncodingName(), f.Majority(), humanize.Bytes(uint64(info.Size())))

	attrs := f.GlobalAttributes()
	if len(attrs) > 0 {
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			entries := attrs[name]
			value := ""
			if len(entries) > 0 {
				value = truncateValue(entries[0], 80)
			}
			if len(entries) > 1 {
				value += fmt.Sprintf(" (+%d more)", len(entries)-1)
			}
			rows = append(rows, []string{name, value})
		}
		fmt.Println("\nGlobal attributes:")
		fmt.Println(renderTable([]string{"Attribute", "Value"}, rows))
	}

	vars := f.Variables()
	if len(vars) == 0 {
		fmt.Println("\nNo variables.")
		return nil
	}
	varRows := make([][]string, len(vars))
	for i, v := range vars {
		varRows[i] = []string{v.Name, v.TypeName(), v.Shape(), strconv.Itoa(v.RecordCount())}
	}
	fmt.Println("\nVariables:")
	fmt.Println(renderTable([]string{"Variable", "Type", "Shape", "Records"}, varRows))

	for _, v := range vars {
		if v.RecordCount() == 0 {
			continue
		}
		records, err := v.ReadRecords()
		if err != nil {
			fmt.Printf("\n%s: %v\n", v.Name, err)
			continue
		}
		n := min(inspectRecords, len(records))
		fmt.Printf("\n%s (%s, %d records):\n", v.Name, v.TypeName(), len(records))
		for i := 0; i < n; i++ {
			vals := records[i]
			if len(vals) > 10 {
				vals = append(vals[:10:10], "...")
			}
			fmt.Printf("  %s\n", strings.Join(vals, ", "))
		}
		if len(records) > n {
			fmt.Printf("  ... %d more records\n", len(records)-n)
		}
	}
	return nil
}

func truncateValue(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
