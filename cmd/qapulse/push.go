package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qapulse/qapulse/internal/models"
	"github.com/qapulse/qapulse/internal/repo"
)

func newPushCmd(opts *rootOptions) *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "push <payload.json>",
		Short: "Upload a run payload to a qapulse server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			var payload models.RunPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}

			if apiURL == "" {
				apiURL = opts.cfg.Client.BaseURL
			}
			client := repo.NewResultsClient(apiURL, opts.cfg.Client.Timeout)
			result, err := client.PushRun(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d passed, %d failed, %d skipped (%d total)\n",
				result.RunID, result.Totals.Pass, result.Totals.Fail, result.Totals.Skip, result.Totals.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "", "Server base URL (defaults to client.baseURL)")
	return cmd
}
