package main

import (
	"os"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"visitd/internal/di"
)

var replayPath string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Feed a recorded sample file (JSON array or NDJSON) through the detector and save the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f, err := os.Open(replayPath)
		if err != nil {
			return eris.Wrap(err, "open samples")
		}
		defer func() { _ = f.Close() }()

		rp, err := di.InitReplayer(&flags)
		if err != nil {
			return eris.Wrap(err, "replay")
		}
		defer rp.Close()

		report, err := rp.Run(cmd.Context(), f)
		if err != nil {
			return eris.Wrap(err, "replay")
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayPath, "samples", "", "path to the samples file (required)")
	_ = replayCmd.MarkFlagRequired("samples")
	rootCmd.AddCommand(replayCmd)
}
