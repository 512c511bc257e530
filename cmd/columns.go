package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bisegni/rowtree/pkg/plan"
	"github.com/bisegni/rowtree/pkg/planner"
)

var (
	columnsSelectOnly bool
	columnsPlain      bool
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	treeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Show the join tree and columns a shape reads",
	Long: `Build the left-deep join for the shape's aggregate and print it as a tree,
followed by every projected column with its table and join depth.

Examples:
  rowtree columns -s customer.shape
  rowtree columns -s customer.shape --select`,
	Args: cobra.NoArgs,
	RunE: runColumns,
}

func init() {
	columnsCmd.Flags().BoolVar(&columnsSelectOnly, "select", false, "Print only the comma separated select list")
	columnsCmd.Flags().BoolVar(&columnsPlain, "plain", false, "Disable styling")
}

func runColumns(cmd *cobra.Command, args []string) error {
	agg, err := loadAggregate()
	if err != nil {
		return err
	}
	b, err := planner.CreatePlan(agg, settings.Mapping())
	if err != nil {
		return fmt.Errorf("planning error: %w", err)
	}

	out := cmd.OutOrStdout()
	if columnsSelectOnly {
		fmt.Fprintln(out, strings.Join(plan.SelectList(b.Root()), ", "))
		return nil
	}
	fmt.Fprint(out, renderPlan(b, columnsPlain))
	return nil
}

func renderPlan(b *plan.Builder, plain bool) string {
	heading, tree := headingStyle.Render, treeStyle.Render
	if plain {
		heading = func(s ...string) string { return strings.Join(s, " ") }
		tree = heading
	}

	var sb strings.Builder
	sb.WriteString(heading("Join tree:"))
	sb.WriteString("\n")
	sb.WriteString(tree(strings.TrimRight(plan.FormatPlan(b.Root()), "\n")))
	sb.WriteString("\n\n")
	sb.WriteString(heading("Columns:"))
	sb.WriteString("\n")
	sb.WriteString(plan.FormatColumns(b.Root()))
	return sb.String()
}
