package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func enhanceCmd() *cobra.Command {
	var backendName string
	cmd := &cobra.Command{
		Use:          "enhance <session-id>",
		Short:        "Draft the STAR example for a scored session",
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
			if err := flow.Enhance(ctx, sess); err != nil {
				return err
			}
			fmt.Println(sess.Draft.Markdown())
			if missing := sess.Draft.EmptyFields(); len(missing) > 0 {
				log.Warn().Str("missing", strings.Join(missing, ",")).Msg("draft is incomplete")
			}
			if sess.DraftTier.Degraded() {
				log.Warn().Str("extraction", sess.DraftTier.String()).Msg("draft was recovered degraded, review it closely")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	return cmd
}
