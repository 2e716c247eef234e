// Package cmd provides the root command and CLI setup for iostest.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"iostest.dev/pkg/iostest/internal/adapter"
	"iostest.dev/pkg/iostest/internal/controller"
	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

var workflow domain.Workflow
var ui controller.UI

// newWorkflow wires the production adapters. Tests replace it.
var newWorkflow = defaultWorkflow

var (
	crateFlag    string
	buildDirFlag string
	preludeFlag  string
	verboseFlag  bool
	logFileFlag  string
)

// excludePatterns is a root-level flag that filters scanned sources.
var excludePatterns []string

func defaultWorkflow() domain.Workflow {
	fsAdapter := adapter.NewLocalSourceFSAdapter()
	commandAdapter := adapter.NewLocalCommandAdapter(execTimeout())
	cargoAdapter := adapter.NewLocalCargoAdapter(commandAdapter)

	return domain.NewWorkflow(
		fsAdapter,
		domain.NewHarnessGenerator(fsAdapter, domain.NewScanner(fsAdapter), domain.NewStalenessGate(fsAdapter)),
		domain.NewManifestResolver(cargoAdapter),
		domain.NewCrossBuilder(fsAdapter, cargoAdapter, adapter.NewLocalLipoAdapter(commandAdapter)),
		domain.NewPackager(fsAdapter, adapter.NewLocalXcodeAdapter(commandAdapter)),
		domain.NewSourceWatcher(adapter.NewLocalWatchAdapter()),
	)
}

const rootLongDescription = `iostest runs a Rust crate's unit tests inside the iOS simulator.

It lifts every #[test] function out of the crate's src/ tree into a harness
crate, cross-compiles it for the Apple targets, fuses the static libraries
with lipo and drives them from an XCTest bundle with xcodebuild.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "iostest",
		Short:        "Run Rust unit tests on iOS",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			ui = controller.NewSimpleUI(cmd)
			workflow = newWorkflow()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&crateFlag, crateFlagName, "C", viper.GetString(crateConfigKey), "crate directory containing Cargo.toml")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(crateFlagName), crateConfigKey)

	cmd.PersistentFlags().StringVarP(&buildDirFlag, buildDirFlagName, "b", viper.GetString(buildDirConfigKey), "harness build directory, relative to the crate")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(buildDirFlagName), buildDirConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude sources matching a doublestar pattern relative to src/ (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().StringVar(&preludeFlag, preludeFlagName, viper.GetString(preludeConfigKey), "file whose contents replace the default harness prelude")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(preludeFlagName), preludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// workflowArgs collects the effective configuration for a workflow call.
func workflowArgs() domain.WorkflowArgs {
	return domain.WorkflowArgs{
		CrateDir:     m.Path(viper.GetString(crateConfigKey)),
		BuildDir:     m.Path(viper.GetString(buildDirConfigKey)),
		PreludeFile:  m.Path(viper.GetString(preludeConfigKey)),
		Exclude:      viper.GetStringSlice(excludeConfigKey),
		Targets:      parseTargets(viper.GetStringSlice(buildTargetsKey)),
		Profile:      viper.GetString(buildProfileKey),
		Parallel:     viper.GetInt(buildParallelKey),
		TemplateDir:  m.Path(viper.GetString(templateDirKey)),
		Destinations: viper.GetStringSlice(destinationsKey),
		Debounce:     viper.GetDuration(watchDebounceKey),
	}
}

func parseTargets(values []string) []m.Target {
	targets := make([]m.Target, 0, len(values))
	for _, value := range values {
		targets = append(targets, m.Target(value))
	}

	return targets
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
