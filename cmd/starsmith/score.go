package main

import (
	"fmt"

	"github.com/metalagman/starsmith/internal/resume"
	"github.com/metalagman/starsmith/internal/workflow"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func scoreCmd() *cobra.Command {
	var intakePath string
	var backendName string
	cmd := &cobra.Command{
		Use:          "score [session-id]",
		Short:        "Score a work example on the competency dimensions",
		Long:         "Score a session by id, or open a new session from an intake file with --file and score that.",
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
			if err := flow.Score(ctx, sess); err != nil {
				return err
			}
			printScores(sess)
			return nil
		},
	}
	cmd.Flags().StringVarP(&intakePath, "file", "f", "", "intake file opening a new session (yaml: example, position)")
	cmd.Flags().StringVar(&backendName, "backend", "", "backend name from config (default pipeline.backend)")
	return cmd
}

func printScores(sess *workflow.Session) {
	dims := []struct {
		name string
		d    resume.DimensionScore
	}{
		{"context", sess.Scores.Context},
		{"complexity", sess.Scores.Complexity},
		{"initiative", sess.Scores.Initiative},
	}
	for _, dim := range dims {
		marker := ""
		if dim.d.Score < resume.ScoreTarget {
			marker = "\tbelow target"
		}
		fmt.Printf("%s\t%d/%d%s\n", dim.name, dim.d.Score, resume.ScoreMax, marker)
		for _, note := range dim.d.Feedback {
			fmt.Printf("\t- %s\n", note)
		}
	}
	if sess.Scores.MeetsTarget() {
		fmt.Printf("every dimension meets the %d/%d standard\n", resume.ScoreTarget, resume.ScoreMax)
	}
	if sess.ScoreTier.Degraded() {
		log.Warn().Str("extraction", sess.ScoreTier.String()).Msg("scores were recovered degraded, treat them as provisional")
	}
}
