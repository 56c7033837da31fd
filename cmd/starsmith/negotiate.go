package main

import (
	"fmt"

	"github.com/metalagman/starsmith/internal/db"
	"github.com/metalagman/starsmith/internal/pipeline"
	"github.com/metalagman/starsmith/internal/workflow"
	"github.com/spf13/cobra"
)

func negotiateCmd() *cobra.Command {
	var intakePath string
	var backendName string
	var team []string
	var turns int
	cmd := &cobra.Command{
		Use:          "negotiate [session-id]",
		Short:        "Run the open-ended resume team negotiation over a session's example",
		Long:         "Let the resume team negotiate over the example with model-selected speakers until a member signals completion or the turn budget runs out. The transcript is archived on the session without moving it through the lifecycle.",
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
			gen, err := newGenerator(cfg, backendName)
			if err != nil {
				return err
			}
			coord := pipeline.NewCoordinator(gen, cfg.TurnBudget())
			coord.OnTurn = func(turn pipeline.Turn) {
				fmt.Printf("[%d] %s:\n%s\n\n", turn.Ordinal, turn.Speaker, turn.Text)
			}
			store := db.NewStore(storeDB)
			flow := workflow.New(coord, store)

			ctx := cmd.Context()
			sess, err := openOrGetSession(ctx, flow, store, args, intakePath)
			if err != nil {
				return err
			}
			run, err := flow.Negotiate(ctx, sess, team, turns)
			if err != nil {
				return err
			}
			fmt.Printf("termination: %s after %d/%d turns\n", run.State, len(run.Turns), run.Budget)
			return nil
		},
	}
	cmd.Flags().StringVarP(&intakePath, "file", "f", "", "intake file opening a new session (yaml: example, position)")
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	cmd.Flags().StringSliceVar(&team, "team", nil, "negotiation team roles (default the full resume team)")
	cmd.Flags().IntVar(&turns, "turns", 0, "turn budget (default pipeline.turn_budget)")
	return cmd
}
