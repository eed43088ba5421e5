package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"visitd/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with periodic save and sync",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := di.InitApp(&flags); err != nil {
			return eris.Wrap(err, "serve")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
