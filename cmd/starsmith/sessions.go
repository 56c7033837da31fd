package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/metalagman/starsmith/internal/db"
	"github.com/metalagman/starsmith/internal/workflow"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage starsmith sessions",
	}
	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())
	cmd.AddCommand(sessionsDeleteCmd())
	cmd.AddCommand(sessionsPruneCmd())
	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			store := db.NewStore(storeDB)
			sessions, err := store.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				log.Info().Msg("no sessions")
				return nil
			}
			for _, sess := range sessions {
				position := sess.Position
				if position == "" {
					position = "-"
				}
				_, _ = io.WriteString(os.Stdout, fmt.Sprintf("%s\t%s\t%s\t%s\n",
					sess.ID, sess.State, position, oneLine(sess.Example, 60)))
			}
			return nil
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	var withRuns bool
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session's artifacts and archived runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			store := db.NewStore(storeDB)
			sess, err := store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("session %s (%s)\n", sess.ID, sess.State)
			if sess.Position != "" {
				fmt.Printf("position: %s\n", sess.Position)
			}
			fmt.Printf("\nexample:\n%s\n", sess.Example)
			if sess.State != workflow.StateInput {
				printScores(sess)
			}
			if len(sess.Draft.EmptyFields()) < 5 {
				fmt.Printf("\ndraft:\n%s\n", sess.Draft.Markdown())
			}
			for _, point := range sess.Feedback {
				fmt.Printf("feedback: %s\n", point)
			}
			if sess.Narrative != "" {
				fmt.Printf("\nnarrative:\n%s\n", sess.Narrative)
			}
			for _, item := range sess.Review {
				fmt.Printf("review: %s\n", item)
			}

			if !withRuns {
				return nil
			}
			runs, err := store.ListRuns(ctx, sess.ID)
			if err != nil {
				return err
			}
			for _, rec := range runs {
				fmt.Printf("\nrun %d (%s, %s, %d/%d turns)\n", rec.ID, rec.Step, rec.Termination, len(rec.Turns), rec.Budget)
				for _, turn := range rec.Turns {
					fmt.Printf("  [%d] %s: %s\n", turn.Ordinal, turn.Speaker, oneLine(turn.Text, 100))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withRuns, "runs", false, "include archived run transcripts")
	return cmd
}

func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its archived runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storeDB, _, closeFn, err := openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			store := db.NewStore(storeDB)
			if err := store.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			log.Info().Msgf("session %s deleted", args[0])
			return nil
		},
	}
}

func sessionsPruneCmd() *cobra.Command {
	var keepLast int
	var keepDays int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Prune old finalized sessions from the database",
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

			policy := db.RetentionPolicy{KeepLast: keepLast, KeepDays: keepDays}
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				policy = db.RetentionPolicy{
					KeepLast: cfg.Retention.KeepLast,
					KeepDays: cfg.Retention.KeepDays,
				}
			}
			if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
				return fmt.Errorf("set --keep-last or --keep-days (or configure retention in %s)", defaultConfigPath)
			}

			store := db.NewStore(storeDB)
			res, err := store.PruneSessions(cmd.Context(), policy, dryRun)
			if err != nil {
				return err
			}
			mode := "deleted"
			if dryRun {
				mode = "would delete"
			}
			log.Info().Msgf("%s %d sessions (considered %d, kept %d)", mode, res.Deleted, res.Considered, res.Kept)
			return nil
		},
	}
	cmd.Flags().IntVar(&keepLast, "keep-last", 0, "keep the newest N finalized sessions")
	cmd.Flags().IntVar(&keepDays, "keep-days", 0, "keep sessions updated within N days")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")
	return cmd
}

func oneLine(text string, max int) string {
	line := strings.Join(strings.Fields(text), " ")
	if len(line) > max {
		line = line[:max] + "..."
	}
	return line
}
