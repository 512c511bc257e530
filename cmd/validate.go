package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bisegni/rowtree/pkg/parser"
	"github.com/bisegni/rowtree/pkg/plan"
	"github.com/bisegni/rowtree/pkg/planner"
)

var validateCmd = &cobra.Command{
	Use:   "validate [rows|-]",
	Short: "Validate a shape file and, optionally, a row file against it",
	Long: `Validate that the shape file parses and is well formed. When a JSON or JSONL
row file is given, also check its syntax and report planned columns that no
row carries.

Examples:
  rowtree validate -s customer.shape
  rowtree validate -s customer.shape rows.jsonl
  cat rows.json | rowtree validate -s customer.shape -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	agg, err := loadAggregate()
	if err != nil {
		fmt.Fprintf(out, "❌ Invalid shape: %v\n", err)
		return err
	}
	b, err := planner.CreatePlan(agg, settings.Mapping())
	if err != nil {
		fmt.Fprintf(out, "❌ Invalid shape: %v\n", err)
		return err
	}
	columns := plan.SelectList(b.Root())
	fmt.Fprintf(out, "✅ Valid shape %s reading %d column(s) from %d table(s)\n",
		agg.Root.Name, len(columns), len(plan.Tables(b.Root())))

	if len(args) == 0 {
		return nil
	}

	p, err := parser.NewParser(args[0])
	if err != nil {
		return err
	}
	defer p.Close()

	records, err := p.ReadAll()
	if err != nil {
		fmt.Fprintf(out, "❌ Validation failed: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Valid %s file with %d record(s)\n", getFormat(p.IsJSONL()), len(records))

	if missing := missingColumns(columns, records); len(missing) > 0 {
		fmt.Fprintf(out, "⚠️  Columns absent from every row (read as null): %s\n", strings.Join(missing, ", "))
	}
	return nil
}

func missingColumns(columns []string, records []parser.Record) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}
	var missing []string
	for _, c := range columns {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}
