package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// buildCmd represents the build command.
var buildCmd = newBuildCmd()

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the harness and cross-build libRustTests.a",
		Long: `Generate the harness crate, build it with cargo for every configured Apple
target and fuse the per-target static libraries into libRustTests.a with lipo.`,
		Args: cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindBuildFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, err := workflow.Build(cmd.Context(), workflowArgs(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ui.DisplayBuild(cmd.Context(), library)

			return nil
		},
	}

	addBuildFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// addBuildFlags registers the cross-build flags. They are bound to their
// config keys in PreRun because build and test share them.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice(targetFlagName, viper.GetStringSlice(buildTargetsKey), "rustc target triple to build (can be repeated)")
	cmd.Flags().String(profileFlagName, viper.GetString(buildProfileKey), "cargo profile: debug or release")
	cmd.Flags().IntP(parallelFlagName, "p", viper.GetInt(buildParallelKey), "number of targets built concurrently")
}

func bindBuildFlags(cmd *cobra.Command) {
	bindFlagToConfig(cmd.Flags().Lookup(targetFlagName), buildTargetsKey)
	bindFlagToConfig(cmd.Flags().Lookup(profileFlagName), buildProfileKey)
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), buildParallelKey)
}
