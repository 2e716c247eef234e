package cmd

import (
	"github.com/spf13/cobra"
)

var generateForceFlag bool
var generateDryRunFlag bool

// generateCmd represents the generate command.
var generateCmd = newGenerateCmd()

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the harness lib.rs and Cargo.toml",
		Long: `Scan the crate's src/ tree for #[test] functions and write the harness
crate into the build directory. lib.rs is regenerated only when a source is
newer than it; Cargo.toml is rewritten only when its contents change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := workflowArgs()
			args.Force = generateForceFlag
			args.DryRun = generateDryRunFlag

			result, err := workflow.Generate(cmd.Context(), args)
			if err != nil {
				return err
			}

			if args.DryRun {
				ui.DisplayDiff(cmd.Context(), result.Diff)
				return nil
			}

			ui.DisplayGenerate(cmd.Context(), result)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&generateForceFlag, "force", "f", false, "regenerate lib.rs even when it is up to date")
	cmd.Flags().BoolVar(&generateDryRunFlag, "dry-run", false, "print a diff of the artifacts instead of writing them")

	return cmd
}

func init() {
	rootCmd.AddCommand(generateCmd)
}
