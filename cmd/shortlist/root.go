package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/config"
	logpkg "github.com/kailas-cloud/shortlist/internal/logger"
)

const app = "shortlist"

var (
	// Used for flags.
	cfgFile  string
	envName  string
	logLevel string

	cfg    config.Config
	logger *zap.Logger

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "shortlist ranks a folder of resumes against a project description",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if logger != nil {
			logger.Error("Command failed", zap.Error(err))
		} else {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
	}
	if logger != nil {
		_ = logger.Sync()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config/<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "environment name (default is $ENV or local)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level: debug, info, warn, error")
}

// setup loads .env, the configuration and the logger. Commands that need them call it first.
func setup() error {
	// A missing .env is fine; variables may come from the environment.
	_ = godotenv.Load()

	if envName == "" {
		envName = config.GetEnv()
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load(envName)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logpkg.NewLogger(envName, level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}
