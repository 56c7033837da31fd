package main

import (
	"github.com/metalagman/starsmith/internal/tui"
	"github.com/spf13/cobra"
)

func wizardCmd() *cobra.Command {
	var intakePath string
	var backendName string
	cmd := &cobra.Command{
		Use:          "wizard [session-id]",
		Short:        "Walk a session through the pipeline interactively",
		Long:         "Open the interactive wizard over a session: score, review the dimension gauges, draft, loop officer feedback, and finalize. Resuming a half-done session starts at its current step.",
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, repoRoot, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			flow, store, err := buildWorkflow(storeDB, cfg, backendName)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sess, err := openOrGetSession(ctx, flow, store, args, intakePath)
			if err != nil {
				return err
			}
			return tui.Run(ctx, flow, sess)
		},
	}
	cmd.Flags().StringVarP(&intakePath, "file", "f", "", "intake file opening a new session (yaml: example, position)")
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	return cmd
}
