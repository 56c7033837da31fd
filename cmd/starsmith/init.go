package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a starsmith project",
		Long:  "Initialize a starsmith project by creating the .starsmith directory and installing a default config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}

			starsmithDir := filepath.Join(repoRoot, ".starsmith")
			log.Info().Str("dir", starsmithDir).Msg("creating starsmith directory")
			if err := os.MkdirAll(starsmithDir, 0o755); err != nil {
				return fmt.Errorf("create starsmith dir: %w", err)
			}

			configPath := filepath.Join(starsmithDir, "config.json")
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Msg("config.json already exists, skipping")
			} else {
				log.Info().Str("path", configPath).Msg("installing default config")
				data, err := json.MarshalIndent(defaultConfig(), "", "  ")
				if err != nil {
					return fmt.Errorf("marshal default config: %w", err)
				}
				if err := os.WriteFile(configPath, data, 0o644); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
			}

			fmt.Println("starsmith initialized successfully")
			return nil
		},
	}
}

func defaultConfig() map[string]any {
	return map[string]any{
		"backends": map[string]any{
			"openai": map[string]any{
				"type":        "openai",
				"model":       "gpt-5.2",
				"api_key_env": "OPENAI_API_KEY",
			},
			"claude": map[string]any{
				"type": "claude",
			},
			"codex": map[string]any{
				"type":  "codex",
				"model": "gpt-5.2-codex",
			},
			"gemini": map[string]any{
				"type":  "gemini",
				"model": "gemini-3-flash-preview",
			},
		},
		"pipeline": map[string]any{
			"backend":     "openai",
			"turn_budget": 80,
		},
		"retention": map[string]any{
			"keep_last": 50,
			"keep_days": 30,
		},
	}
}
