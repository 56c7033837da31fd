// Package config provides configuration loading and management for starsmith.
package config

import (
	"fmt"
	"strings"
)

// BackendTypeOpenAI is the API-backed generator type. Every other known
// type (claude, codex, gemini, opencode, exec) runs a CLI agent.
const BackendTypeOpenAI = "openai"

// DefaultTurnBudget caps negotiation runs when pipeline.turn_budget is unset.
const DefaultTurnBudget = 80

// Config is the root configuration.
type Config struct {
	Backends  map[string]BackendConfig `json:"backends"            mapstructure:"backends"`
	Pipeline  PipelineConfig           `json:"pipeline"            mapstructure:"pipeline"`
	Retention RetentionPolicy          `json:"retention,omitempty" mapstructure:"retention"`
}

// BackendConfig describes how to reach a model backend.
type BackendConfig struct {
	Type      string   `json:"type"                  mapstructure:"type"`
	Model     string   `json:"model,omitempty"       mapstructure:"model"`
	BaseURL   string   `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKey    string   `json:"api_key,omitempty"     mapstructure:"api_key"`
	APIKeyEnv string   `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	Timeout   int      `json:"timeout,omitempty"     mapstructure:"timeout"`
	Cmd       []string `json:"cmd,omitempty"         mapstructure:"cmd"`
	UseTTY    *bool    `json:"use_tty,omitempty"     mapstructure:"use_tty"`
}

// PipelineConfig selects the active backend and tunes run limits.
type PipelineConfig struct {
	Backend    string `json:"backend"               mapstructure:"backend"`
	TurnBudget int    `json:"turn_budget,omitempty" mapstructure:"turn_budget"`
}

// RetentionPolicy defines how many old sessions to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// Resolve returns the backend selected by name, falling back to
// pipeline.backend when name is empty. A reference to an undefined
// backend is an error, not a silent default.
func (c Config) Resolve(name string) (string, BackendConfig, error) {
	selected := strings.TrimSpace(name)
	if selected == "" {
		selected = strings.TrimSpace(c.Pipeline.Backend)
	}
	if selected == "" {
		return "", BackendConfig{}, fmt.Errorf("no backend selected (set pipeline.backend)")
	}
	bc, ok := c.Backends[selected]
	if !ok {
		return "", BackendConfig{}, fmt.Errorf("backend %q is not defined", selected)
	}
	return selected, bc, nil
}

// TurnBudget returns the configured negotiation turn budget or the default.
func (c Config) TurnBudget() int {
	if c.Pipeline.TurnBudget > 0 {
		return c.Pipeline.TurnBudget
	}
	return DefaultTurnBudget
}
