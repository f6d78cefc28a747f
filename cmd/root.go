package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/they4kman/gosweep/config"
	"github.com/they4kman/gosweep/records"
)

var (
	configPath string
	appConfig  = config.Default()

	logLevel       string
	recordsBackend string
)

var rootCmd = &cobra.Command{
	Use:   "gosweep",
	Short: "Play Minesweeper in the terminal and keep best times",
	Long: `gosweep is a Minesweeper game which supports human- or
computer-driven playing, a countdown challenge mode and a best-time table.

Play manually
	gosweep play

Let the computer play for you
	gosweep play --director constraint

Show the best times
	gosweep records list
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg

		if cmd.Flags().Changed("log-level") {
			appConfig.LogLevel = logLevel
		}
		if cmd.Flags().Changed("records-backend") {
			appConfig.Records.Backend = recordsBackend
		}

		return setupLogging(appConfig)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// openRecords opens the configured records store. When the backend cannot
// be reached the game goes on with an in-memory store.
func openRecords(ctx context.Context) *records.Store {
	cfg := appConfig.Records
	backend, err := records.NewBackend(ctx, records.BackendConfig{
		Kind:     cfg.Backend,
		Path:     cfg.Path,
		DSN:      cfg.DSN,
		RedisURL: cfg.RedisURL,
		Key:      cfg.Key,
		AppName:  cfg.AppName,
	})
	if err != nil {
		logrus.WithError(err).WithField("backend", cfg.Backend).
			Warn("records backend unavailable, keeping records in memory")
		backend = records.NewMemoryBackend()
	}
	return records.Open(backend)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default gosweep.yaml, if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&recordsBackend, "records-backend", records.KindFile,
		"Where best times are kept: file, gdata, sqlite, redis or memory")
}
