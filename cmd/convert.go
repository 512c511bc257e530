package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bisegni/rowtree/pkg/shape"
)

var convertOutput string

var convertCmd = &cobra.Command{
	Use:   "convert [shape-file]",
	Short: "Convert a shape file between the DSL and YAML",
	Long: `Convert a shape file between the shape DSL and its YAML form. Every
aggregate in the file is converted. Without an argument, --shape is used.

Examples:
  rowtree convert customer.shape --to yaml
  rowtree convert customer.yaml --to shape`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "to", "t", "", "Target format (yaml or shape)")
	convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, args []string) error {
	filename := ShapeFile
	if len(args) > 0 {
		filename = args[0]
	}
	if filename == "" {
		return fmt.Errorf("no shape file given")
	}

	aggregates, err := shape.LoadFile(filename)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch convertOutput {
	case "yaml", "yml":
		data, err := shape.MarshalYAML(aggregates)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case "shape", "dsl":
		_, err := fmt.Fprint(out, shape.Format(aggregates))
		return err
	}
	return fmt.Errorf("unknown target format '%s' (use yaml or shape)", convertOutput)
}
