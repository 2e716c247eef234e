package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// packageCmd represents the package command.
var packageCmd = newPackageCmd()

func newPackageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Lay out the RustTests Xcode project",
		Long: `Copy the Xcode project template into the build directory as
RustTests.xcodeproj and write the RustTests.m XCTest bridge next to it.`,
		Args: cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			bindTemplateFlag(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, err := workflow.Package(workflowArgs())
			if err != nil {
				return err
			}

			ui.DisplayPackage(cmd.Context(), project)

			return nil
		},
	}

	addTemplateFlag(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(packageCmd)
}

func addTemplateFlag(cmd *cobra.Command) {
	cmd.Flags().String(templateFlagName, viper.GetString(templateDirKey), "Xcode project template directory")
}

func bindTemplateFlag(cmd *cobra.Command) {
	bindFlagToConfig(cmd.Flags().Lookup(templateFlagName), templateDirKey)
}
