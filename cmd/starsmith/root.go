package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/metalagman/starsmith/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool
	rootCmd = &cobra.Command{
		Use:   "starsmith",
		Short: "starsmith turns police work examples into competency-aligned STAR resumes",
	}
)

// Execute runs the root command.
func Execute() error {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		return fmt.Errorf("bind config flag: %w", err)
	}
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Init(debug)
		_ = godotenv.Load()
	}
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(enhanceCmd())
	rootCmd.AddCommand(feedbackCmd())
	rootCmd.AddCommand(finalizeCmd())
	rootCmd.AddCommand(negotiateCmd())
	rootCmd.AddCommand(wizardCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(uiCmd())
	rootCmd.AddCommand(mcpCmd())
	return rootCmd.Execute()
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("json")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
