package main

import (
	"fmt"

	"github.com/fentz26/promptgate/internal/models"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change auto-submit settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current auto-submit settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		cfg, err := st.GetAutoSubmitConfig()
		if err != nil {
			return err
		}

		fmt.Printf("enabled:         %v\n", cfg.Enabled)
		fmt.Printf("timeout_seconds: %d\n", cfg.TimeoutSeconds)
		fmt.Printf("prompt_source:   %s\n", cfg.PromptSource)
		if cfg.PromptSource == models.PromptSourceCustom {
			fmt.Printf("template_id:     %s\n", cfg.CustomPromptID)
		}
		if cfg.PromptSource == models.PromptSourceManual {
			fmt.Printf("manual_prompt:   %s\n", cfg.ManualPrompt)
		}
		fmt.Printf("\nsocket:   %s\n", appCfg.SocketPath)
		fmt.Printf("database: %s\n", appCfg.DatabasePath)
		return nil
	},
}

var (
	setEnabled  bool
	setTimeout  int
	setSource   string
	setTemplate string
	setManual   string
)

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update auto-submit settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		cfg, err := st.GetAutoSubmitConfig()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("enabled") {
			cfg.Enabled = setEnabled
		}
		if flags.Changed("timeout") {
			cfg.TimeoutSeconds = setTimeout
		}
		if flags.Changed("source") {
			cfg.PromptSource = models.PromptSource(setSource)
		}
		if flags.Changed("template") {
			cfg.CustomPromptID = setTemplate
		}
		if flags.Changed("manual-prompt") {
			cfg.ManualPrompt = setManual
		}

		if err := st.SetAutoSubmitConfig(cfg); err != nil {
			return err
		}

		// Echo back the stored values so clamping is visible.
		stored, err := st.GetAutoSubmitConfig()
		if err != nil {
			return err
		}
		fmt.Printf("enabled=%v timeout=%ds source=%s\n",
			stored.Enabled, stored.TimeoutSeconds, stored.PromptSource)
		return nil
	},
}

func init() {
	configSetCmd.Flags().BoolVar(&setEnabled, "enabled", false, "enable or disable auto-submit")
	configSetCmd.Flags().IntVar(&setTimeout, "timeout", 0, "auto-submit timeout in seconds (clamped to 5-3600)")
	configSetCmd.Flags().StringVar(&setSource, "source", "", "prompt source: continue, custom, or manual")
	configSetCmd.Flags().StringVar(&setTemplate, "template", "", "template id for the custom source")
	configSetCmd.Flags().StringVar(&setManual, "manual-prompt", "", "text for the manual source")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
