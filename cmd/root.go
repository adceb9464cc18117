// Package cmd wires the curation operations into a cobra command tree.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"taulu.fi/dataset-curator/api"
	"taulu.fi/dataset-curator/common"
	"taulu.fi/dataset-curator/common/logger"
	"taulu.fi/dataset-curator/event"
)

const eventQueueSize = 100

var (
	configPath string
	logLevel   string

	appConfig *common.Config
	broker    *event.Broker
	reporter  api.ProgressReporter
)

var rootCmd = &cobra.Command{
	Use:   "dataset-curator",
	Short: "Curate image datasets for model training",
	Long: `dataset-curator scans image folders, tracks ratings and crop status,
renames batches, generates captions and exports training-ready folders.

Curation metadata lives in JSON documents under .dataset-curator/ inside
the dataset folder, keyed by relative image path.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := common.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("could not load config '%s': %s", configPath, err)
		}
		appConfig = config

		level := config.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		logger.Initialize(logger.StringToLogLevel(level))

		broker = event.InitBus(eventQueueSize)
		broker.Subscribe(api.ProcessStatusUpdated, func(command *api.UpdateProgressCommand) {
			if command.Total > 0 {
				fmt.Fprintf(os.Stderr, "\r%s: %d/%d", command.Name, command.Current, command.Total)
				if command.Current == command.Total {
					fmt.Fprintln(os.Stderr)
				}
			} else {
				fmt.Fprintf(os.Stderr, "\r%s: %d...", command.Name, command.Current)
			}
		})
		broker.Subscribe(api.ShowError, func(command *api.ErrorCommand) {
			fmt.Fprintln(os.Stderr, command.Message)
		})
		reporter = api.NewSenderProgressReporter(broker)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: ERROR, WARN, INFO, DEBUG or TRACE")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "dataset-curator.yaml"
	}
	return filepath.Join(home, ".config", "dataset-curator", "config.yaml")
}
