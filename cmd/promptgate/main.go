package main

import (
	"fmt"
	"os"

	"github.com/fentz26/promptgate/internal/config"
	"github.com/fentz26/promptgate/internal/logger"
	"github.com/fentz26/promptgate/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "promptgate",
	Short: "Promptgate - interactive confirmation surface for MCP tool calls",
	Long: `Promptgate puts a human in front of MCP tool-invocation requests: a popup
asks for confirmation or input, and an optional countdown auto-submits a
configured prompt when nobody answers in time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		appCfg = cfg

		logger.SetDebug(cfg.Debug)
		if err := logger.Init(cfg.LogPath); err != nil {
			// Logging is best-effort; the tool still works without a log file.
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		}
		return nil
	},
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	configPath string
	appCfg     *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.promptgate/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(popupCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(templateCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromHome()
}

func openStore() (*store.Store, error) {
	return store.New(appCfg.DatabasePath)
}

func main() {
	defer logger.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
