package cmd

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/bisegni/rowtree/pkg/database"
	"github.com/bisegni/rowtree/pkg/plan"
	"github.com/bisegni/rowtree/pkg/planner"
)

var (
	sqlDriver string
	sqlDSN    string
	sqlQuery  string
)

var sqlCmd = &cobra.Command{
	Use:   "sql",
	Short: "Extract aggregates from a SQL query",
	Long: `Run a query whose result is the wide join of the shape's tables and rebuild
the aggregates from its rows. The query must order rows by the aggregate id.

When --query is omitted, a SELECT over the planned column list is generated
against a single view or table named after the aggregate's table.

Examples:
  rowtree sql -s customer.shape --db shop.db --query "SELECT ... ORDER BY customer_id"
  rowtree sql -s customer.shape --db shop.db`,
	Args: cobra.NoArgs,
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().StringVar(&sqlDriver, "driver", "sqlite3", "database/sql driver name")
	sqlCmd.Flags().StringVar(&sqlDSN, "db", "", "Data source name (a file path for sqlite3)")
	sqlCmd.Flags().StringVarP(&sqlQuery, "query", "q", "", "Query producing the joined rows")
	sqlCmd.MarkFlagRequired("db")
}

func runSQL(cmd *cobra.Command, args []string) error {
	x, err := newExtractor()
	if err != nil {
		return err
	}

	query := sqlQuery
	if query == "" {
		b, err := planner.CreatePlan(x.Aggregate(), x.Mapping())
		if err != nil {
			return fmt.Errorf("planning error: %w", err)
		}
		query = defaultQuery(b)
		logger.Debug("generated query", "query", query)
	}

	db, err := sql.Open(sqlDriver, sqlDSN)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", sqlDriver, err)
	}
	defer db.Close()

	n, err := newExecutor().Execute(cmd.Context(), x, database.NewSQLTable(db, query), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	logger.Info("extracted", "source", sqlDSN, "aggregates", n)
	return nil
}

// defaultQuery selects the planned columns from the root table, ordered by
// the aggregate id when there is one.
func defaultQuery(b *plan.Builder) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(plan.SelectList(b.Root()), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(plan.Tables(b.Root())[0].Table)
	if id := b.IDColumn(); id != nil {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(plan.Name(id))
	}
	return sb.String()
}
