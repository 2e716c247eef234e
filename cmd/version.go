package cmd

import (
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

const unknownVersion = "(devel)"

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the iostest version",
		Long:  "Print the iostest build version, the Go toolchain it was built with and the default Apple targets.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info, ok := debug.ReadBuildInfo()

			cmd.Println("iostest", buildVersion(info, ok))

			if ok {
				cmd.Println("go", strings.TrimPrefix(info.GoVersion, "go"))
			}

			cmd.Println("targets", strings.Join(targetStrings(), ","))
		},
	}
}

// buildVersion prefers the module version and falls back to the VCS revision
// stamped by `go build`.
func buildVersion(info *debug.BuildInfo, ok bool) string {
	if !ok || info == nil {
		return unknownVersion
	}

	if v := info.Main.Version; v != "" && v != unknownVersion {
		return v
	}

	var revision string

	dirty := false

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return unknownVersion
	}

	if len(revision) > 12 {
		revision = revision[:12]
	}

	if dirty {
		revision += "-dirty"
	}

	return unknownVersion + " " + revision
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
