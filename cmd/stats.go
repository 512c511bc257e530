package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/bisegni/rowtree/pkg/database"
	"github.com/bisegni/rowtree/pkg/parser"
)

var statsCmd = &cobra.Command{
	Use:   "stats [rows|-]",
	Short: "Show statistics about a row file",
	Long: `Display statistics about a JSON or JSONL row file: record count and the
value types seen per column. With --shape, also report how many aggregates
the rows hold.

Examples:
  rowtree stats rows.jsonl
  rowtree stats -s customer.shape rows.jsonl
  cat rows.json | rowtree stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	filename := "-"
	if len(args) > 0 {
		filename = args[0]
	}

	p, err := parser.NewParser(filename)
	if err != nil {
		return err
	}
	defer p.Close()

	records, err := p.ReadAll()
	if err != nil {
		return err
	}

	stats := gatherStats(records)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File: %s\n", displayName(filename))
	fmt.Fprintf(out, "Format: %s\n", getFormat(p.IsJSONL()))
	fmt.Fprintf(out, "Total records: %d\n", stats.records)

	if ShapeFile != "" {
		n, err := countAggregates(cmd, records)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Aggregates: %d\n", n)
	}

	if len(stats.fields) > 0 {
		fmt.Fprintf(out, "\nColumns:\n")
		for _, field := range sortedKeys(stats.fields) {
			fmt.Fprintf(out, "  %s:\n", field)
			types := stats.fields[field]
			for _, typ := range sortedKeys(types) {
				count := types[typ]
				fmt.Fprintf(out, "    %s: %d (%.1f%%)\n", typ, count, float64(count)/float64(stats.records)*100)
			}
		}
	}
	return nil
}

// countAggregates streams the already parsed records through the extractor.
func countAggregates(cmd *cobra.Command, records []parser.Record) (int, error) {
	x, err := newExtractor()
	if err != nil {
		return 0, err
	}
	rows := make([]database.Row, len(records))
	for i, r := range records {
		rows[i] = database.NewJSONRow(r)
	}
	it, err := database.NewMemoryTable(rows...).Iterate()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	err = x.Stream(cmd.Context(), it, func(interface{}) error {
		n++
		return nil
	})
	return n, err
}

func getFormat(isJSONL bool) string {
	if isJSONL {
		return "JSONL"
	}
	return "JSON"
}

type rowStats struct {
	records int
	fields  map[string]map[string]int
}

func gatherStats(records []parser.Record) rowStats {
	stats := rowStats{
		records: len(records),
		fields:  make(map[string]map[string]int),
	}
	for _, record := range records {
		for key, value := range record {
			if _, exists := stats.fields[key]; !exists {
				stats.fields[key] = make(map[string]int)
			}
			stats.fields[key][getTypeName(value)]++
		}
	}
	return stats
}

func getTypeName(v interface{}) string {
	if v == nil {
		return "null"
	}

	switch v.(type) {
	case bool:
		return "boolean"
	case json.Number, float64, int, int64, float32:
		return "number"
	case string:
		return "string"
	default:
		return "unknown"
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
