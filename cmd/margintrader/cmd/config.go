package cmd

import (
	"fmt"

	"margintrader/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage margintrader configuration files.

Examples:
  margintrader config init --output my-config.yaml
  margintrader config validate --config my-config.yaml`,
}

var configInitOutput string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if err := cfg.SaveToFile(configInitOutput); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", configInitOutput)
		fmt.Println("Set the exchange credentials in the environment before running:")
		fmt.Printf("  export %s=...\n", cfg.Trading.APIKeyEnv)
		fmt.Printf("  export %s=...\n", cfg.Trading.SecretKeyEnv)
		return nil
	},
}

var configValidatePath string

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate an existing configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(configValidatePath)
		if err != nil {
			return err
		}
		fmt.Printf("%s is valid\n", configValidatePath)
		fmt.Printf("  Symbol: %s @ %s\n", cfg.Trading.Symbol, cfg.Trading.Interval)
		fmt.Printf("  Capital: %.2f (fee %.4f, leverage %.0fx)\n",
			cfg.Account.InitialCapital, cfg.Account.FeeRate, cfg.Account.Leverage)
		fmt.Printf("  Journal: %s\n", cfg.Journal.Type)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "margintrader.yaml", "output path")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "config", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("config")
}
