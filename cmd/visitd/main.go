package main

import (
	"os"

	"github.com/spf13/cobra"

	"visitd/internal/structures"
)

var flags structures.CliFlags

var rootCmd = &cobra.Command{
	Use:   "visitd",
	Short: "Region visit tracking daemon",
	Long:  "Turns location samples into per-state visit records, earns badges, and reconciles the history with other devices.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "config/config.yml", "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flags.DebugMode, "debug", false, "enable debug logging")
}
