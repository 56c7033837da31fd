package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/metalagman/starsmith/internal/db"
	"github.com/metalagman/starsmith/internal/workflow"
)

// Intake is the YAML document non-interactive runs hand in: the
// officer's raw example, the position applied for, and optionally the
// feedback points of a revision round.
type Intake struct {
	Example  string   `yaml:"example"`
	Position string   `yaml:"position,omitempty"`
	Feedback []string `yaml:"feedback,omitempty"`
}

func loadIntake(path string) (Intake, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Intake{}, fmt.Errorf("read intake file: %w", err)
	}
	var in Intake
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Intake{}, fmt.Errorf("parse intake file: %w", err)
	}
	return in, nil
}

// openOrGetSession resolves the session a command works on: an existing
// one by id, or a fresh one opened from an intake file.
func openOrGetSession(ctx context.Context, flow *workflow.Workflow, store *db.Store, args []string, intakePath string) (*workflow.Session, error) {
	if len(args) == 1 && intakePath != "" {
		return nil, fmt.Errorf("pass a session id or --file, not both")
	}
	if len(args) == 1 {
		return store.GetSession(ctx, args[0])
	}
	if intakePath == "" {
		return nil, fmt.Errorf("a session id or --file intake file is required")
	}
	in, err := loadIntake(intakePath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Example) == "" {
		return nil, fmt.Errorf("intake file %s has no example", intakePath)
	}
	sess, err := flow.Open(ctx, in.Example, in.Position)
	if err != nil {
		return nil, err
	}
	fmt.Printf("session %s opened\n", sess.ID)
	return sess, nil
}
