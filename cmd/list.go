package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"iostest.dev/pkg/iostest/internal/controller"
	m "iostest.dev/pkg/iostest/internal/model"
)

var listFormatFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tests that would be lifted into the harness",
		Long: `List every #[test] function found under the crate's src/ tree, along with
the attributes that were skipped because they are not in the supported shape.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := controller.ParseListFormat(listFormatFlag)
			if err != nil {
				return err
			}

			args := workflowArgs()

			result, err := workflow.List(args)
			if err != nil {
				return err
			}

			root := args.CrateDir
			if abs, err := filepath.Abs(string(root)); err == nil {
				root = m.Path(abs)
			}

			return ui.DisplayList(cmd.Context(), result, root, format)
		},
	}

	cmd.Flags().StringVar(&listFormatFlag, "format", string(controller.FormatTable), "output format: table or yaml")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
