package main

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/metalagman/starsmith/internal/backend"
	"github.com/metalagman/starsmith/internal/config"
	"github.com/metalagman/starsmith/internal/db"
	"github.com/metalagman/starsmith/internal/pipeline"
	"github.com/metalagman/starsmith/internal/workflow"
)

func openDB() (*sql.DB, string, func(), error) {
	repoRoot, err := os.Getwd()
	if err != nil {
		return nil, "", func() {}, err
	}
	starsmithDir := filepath.Join(repoRoot, ".starsmith")
	if err := os.MkdirAll(starsmithDir, 0o755); err != nil {
		return nil, "", func() {}, err
	}
	dbPath := filepath.Join(starsmithDir, "starsmith.db")
	storeDB, err := db.Open(dbPath)
	if err != nil {
		return nil, "", func() {}, err
	}
	return storeDB, repoRoot, func() { _ = storeDB.Close() }, nil
}

// newGenerator builds the backend selected by name, or the configured
// default when name is empty.
func newGenerator(cfg config.Config, name string) (backend.Generator, error) {
	_, bc, err := cfg.Resolve(name)
	if err != nil {
		return nil, err
	}
	if bc.Type == config.BackendTypeOpenAI {
		return backend.NewOpenAI(backend.OpenAIConfig{
			Model:     bc.Model,
			BaseURL:   bc.BaseURL,
			APIKey:    bc.APIKey,
			APIKeyEnv: bc.APIKeyEnv,
			Timeout:   time.Duration(bc.Timeout) * time.Second,
		}, nil)
	}
	useTTY := false
	if bc.UseTTY != nil {
		useTTY = *bc.UseTTY
	}
	return backend.NewExec(backend.ExecConfig{
		Type:   bc.Type,
		Cmd:    bc.Cmd,
		Model:  bc.Model,
		UseTTY: useTTY,
	})
}

func buildWorkflow(storeDB *sql.DB, cfg config.Config, backendName string) (*workflow.Workflow, *db.Store, error) {
	gen, err := newGenerator(cfg, backendName)
	if err != nil {
		return nil, nil, err
	}
	store := db.NewStore(storeDB)
	return workflow.New(pipeline.NewCoordinator(gen, cfg.TurnBudget()), store), store, nil
}
