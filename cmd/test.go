package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// testCmd represents the test command.
var testCmd = newTestCmd()

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Generate, build, package and run the tests in the simulator",
		Long: `Run the whole pipeline: generate the harness crate, cross-build and fuse
libRustTests.a, lay out the Xcode project and run xcodebuild test on every
configured destination.`,
		Args: cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindBuildFlags(cmd)
			bindTemplateFlag(cmd)
			bindFlagToConfig(cmd.Flags().Lookup(destinationFlagName), destinationsKey)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := workflow.Test(cmd.Context(), workflowArgs(), cmd.ErrOrStderr()); err != nil {
				return err
			}

			ui.DisplayTestsPassed(cmd.Context())

			return nil
		},
	}

	addBuildFlags(cmd)
	addTemplateFlag(cmd)
	cmd.Flags().StringSlice(destinationFlagName, viper.GetStringSlice(destinationsKey), "xcodebuild destination specifier (can be repeated)")

	return cmd
}

func init() {
	rootCmd.AddCommand(testCmd)
}
