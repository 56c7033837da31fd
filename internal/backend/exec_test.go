package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExec_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewExec(ExecConfig{Type: "exec"})
	require.Error(t, err, "exec type without cmd must fail")

	_, err = NewExec(ExecConfig{Type: "mystery"})
	require.Error(t, err, "unknown type must fail")
}

func TestNewExec_PreparesKnownCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ExecConfig
		want []string
	}{
		{
			name: "codex gets exec subcommand and flags",
			cfg:  ExecConfig{Type: "codex"},
			want: []string{"codex", "exec", "--full-auto", "--skip-git-repo-check"},
		},
		{
			name: "opencode gets run subcommand",
			cfg:  ExecConfig{Type: "opencode"},
			want: []string{"opencode", "run"},
		},
		{
			name: "claude gets print flags",
			cfg:  ExecConfig{Type: "claude"},
			want: []string{"claude", "--output-format", "text", "--print", "--dangerously-skip-permissions"},
		},
		{
			name: "model flag lands before extra flags",
			cfg:  ExecConfig{Type: "gemini", Model: "gemini-2.5-pro"},
			want: []string{"gemini", "--model", "gemini-2.5-pro", "--output-format", "text", "--approval-mode", "yolo"},
		},
		{
			name: "explicit cmd is used verbatim",
			cfg:  ExecConfig{Type: "exec", Cmd: []string{"./agent.sh", "--fast"}},
			want: []string{"./agent.sh", "--fast"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e, err := NewExec(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Command())
		})
	}
}
