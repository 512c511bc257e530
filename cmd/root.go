package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bisegni/rowtree/pkg/config"
	"github.com/bisegni/rowtree/pkg/engine"
	"github.com/bisegni/rowtree/pkg/shape"
)

var (
	ShapeFile       string
	AggregateName   string
	ConfigFile      string
	ConfigProfile   string
	OutputPretty    bool
	LogLevel        string
	InteractiveMode bool
)

// settings is the merged configuration: config file profile, then flags.
var (
	settings = config.Default()
	logger   = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "rowtree [rows...]",
	Short: "Rebuild nested aggregates from flat joined rows",
	Long: `rowtree reads the flat, denormalized rows of one wide join and rebuilds the
nested aggregates they encode, in a single forward pass.

The aggregate shape is declared in a shape file (DSL or YAML). Rows come from
JSON or JSONL files of flat objects, stdin, or a SQL query.
If no command is provided, it defaults to extracting the given row files.

Examples:
  rowtree -s customer.shape rows.jsonl
  cat rows.json | rowtree -s customer.shape
  rowtree columns -s customer.shape
  rowtree sql -s customer.shape --db shop.db --query "SELECT ..."
  rowtree -i -s customer.shape rows.jsonl`,
	PersistentPreRunE: loadSettings,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check if stdin has data
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		if InteractiveMode {
			var filename string
			if len(args) > 0 {
				filename = args[0]
			} else if hasStdin {
				filename = "-"
			}
			return RunInteractive(cmd.Context(), filename)
		}

		if len(args) == 0 && !hasStdin {
			return cmd.Help()
		}
		return runExtract(cmd, args)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ShapeFile, "shape", "s", "", "Shape file (.shape DSL or .yaml)")
	rootCmd.PersistentFlags().StringVarP(&AggregateName, "aggregate", "a", "", "Aggregate to read when the shape declares several")
	rootCmd.PersistentFlags().StringVar(&ConfigFile, "config", config.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&ConfigProfile, "profile", config.DefaultConfigProfile, "Config profile")
	rootCmd.PersistentFlags().BoolVar(&OutputPretty, "pretty", false, "Pretty print output")
	rootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&InteractiveMode, "interactive", "i", false, "Interactive REPL mode")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(columnsCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(convertCmd)
}

// loadSettings reads the config profile, applies flag overrides and sets up
// logging to stderr.
func loadSettings(cmd *cobra.Command, args []string) error {
	settings = config.Default()
	var err error
	if cmd.Flags().Changed("config") {
		err = config.LoadConfigFile(ConfigFile, ConfigProfile, &settings)
	} else {
		err = config.LoadConfig(ConfigProfile, &settings)
	}
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("pretty") {
		settings.Pretty = OutputPretty
	}
	if LogLevel != "" {
		settings.LogLevel = LogLevel
	}
	level, err := settings.Level()
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadAggregate reads the shape file and picks the requested aggregate.
func loadAggregate() (*shape.Aggregate, error) {
	if ShapeFile == "" {
		return nil, fmt.Errorf("no shape file given (--shape)")
	}
	aggregates, err := shape.LoadFile(ShapeFile)
	if err != nil {
		return nil, err
	}
	return shape.Lookup(aggregates, AggregateName)
}

func newExtractor() (*engine.Extractor, error) {
	agg, err := loadAggregate()
	if err != nil {
		return nil, err
	}
	return engine.NewExtractor(agg,
		engine.WithMapping(settings.Mapping()),
		engine.WithLogger(logger),
	)
}

func newExecutor() *engine.Executor {
	executor := engine.NewExecutor()
	executor.Pretty = settings.Pretty
	return executor
}
