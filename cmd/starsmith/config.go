package main

import (
	"fmt"
	"path/filepath"

	"github.com/metalagman/starsmith/internal/config"
	"github.com/spf13/viper"
)

var defaultConfigPath = filepath.Join(".starsmith", "config.json")

func resolveConfigPath(repoRoot, path string) string {
	if path == "" {
		path = defaultConfigPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}
	return path
}

func loadConfig(repoRoot string) (config.Config, error) {
	path := resolveConfigPath(repoRoot, viper.GetString("config"))
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := config.ValidateSettings(viper.AllSettings()); err != nil {
		return config.Config{}, err
	}
	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if _, _, err := cfg.Resolve(""); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
