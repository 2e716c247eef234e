package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"iostest.dev/pkg/iostest/internal/domain"
	m "iostest.dev/pkg/iostest/internal/model"
)

// watchCmd represents the watch command.
var watchCmd = newWatchCmd()

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the harness whenever a source changes",
		Long: `Generate the harness crate, then keep watching the crate's src/ tree and
regenerate after every burst of changes until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			args := workflowArgs()

			ui.DisplayWatching(ctx, m.Path(filepath.Join(string(args.CrateDir), "src")))

			return workflow.Watch(ctx, args,
				func(result domain.GenerateResult) { ui.DisplayGenerate(ctx, result) },
				func(err error) { ui.DisplayError(ctx, err) },
			)
		},
	}

	cmd.Flags().Duration(debounceFlagName, viper.GetDuration(watchDebounceKey), "quiet period before regenerating")
	bindFlagToConfig(cmd.Flags().Lookup(debounceFlagName), watchDebounceKey)

	return cmd
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
