package main

import (
	"fmt"

	"github.com/metalagman/starsmith/internal/workflow"
	"github.com/spf13/cobra"
)

func feedbackCmd() *cobra.Command {
	var intakePath string
	var backendName string
	cmd := &cobra.Command{
		Use:          "feedback <session-id> [point ...]",
		Short:        "Revise the draft with the officer's feedback",
		Long:         "Collect feedback points from the arguments or an intake file and revise the draft with them. A session that already carries collected feedback is revised without new points.",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points := args[1:]
			if intakePath != "" {
				in, err := loadIntake(intakePath)
				if err != nil {
					return err
				}
				points = append(points, in.Feedback...)
			}

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
			sess, err := store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			switch sess.State {
			case workflow.StateEnhanced:
				if len(points) == 0 {
					return fmt.Errorf("no feedback points given, run finalize to close the session unchanged")
				}
				if err := flow.CollectFeedback(ctx, sess, points); err != nil {
					return err
				}
			case workflow.StateFeedbackCollected:
				if len(points) > 0 {
					return fmt.Errorf("session %s already has collected feedback, run without new points to apply it", sess.ID)
				}
			}
			if err := flow.ApplyFeedback(ctx, sess); err != nil {
				return err
			}
			fmt.Println(sess.Draft.Markdown())
			return nil
		},
	}
	cmd.Flags().StringVarP(&intakePath, "file", "f", "", "intake file with feedback points (yaml: feedback)")
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	return cmd
}
