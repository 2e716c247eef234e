package cmd

import (
	"bytes"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Output(t *testing.T) {
	cmd := newVersionCmd()

	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "iostest ")
	assert.Contains(t, out.String(), "targets x86_64-apple-ios,aarch64-apple-ios")
}

func TestBuildVersion(t *testing.T) {
	tests := []struct {
		name string
		info *debug.BuildInfo
		ok   bool
		want string
	}{
		{name: "no build info", want: "(devel)"},
		{
			name: "module version",
			info: &debug.BuildInfo{Main: debug.Module{Version: "v0.3.1"}},
			ok:   true,
			want: "v0.3.1",
		},
		{
			name: "vcs revision",
			info: &debug.BuildInfo{
				Main:     debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef0123"}},
			},
			ok:   true,
			want: "(devel) 0123456789ab",
		},
		{
			name: "dirty tree",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			}},
			ok:   true,
			want: "(devel) abc123-dirty",
		},
		{name: "nothing stamped", info: &debug.BuildInfo{}, ok: true, want: "(devel)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildVersion(tt.info, tt.ok))
		})
	}
}
