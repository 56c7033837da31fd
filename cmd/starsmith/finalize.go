package main

import (
	"fmt"

	"github.com/metalagman/starsmith/internal/workflow"
	"github.com/spf13/cobra"
)

func finalizeCmd() *cobra.Command {
	var backendName string
	cmd := &cobra.Command{
		Use:          "finalize <session-id>",
		Short:        "Polish the draft into the final resume narrative",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
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
			sess, err := store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			if sess.State == workflow.StateEnhanced {
				if err := flow.CollectFeedback(ctx, sess, nil); err != nil {
					return err
				}
			}
			if err := flow.Finalize(ctx, sess); err != nil {
				return err
			}
			fmt.Println(sess.Narrative)
			if len(sess.Review) > 0 {
				fmt.Println("closing review:")
				for _, item := range sess.Review {
					fmt.Printf("- %s\n", item)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	return cmd
}
