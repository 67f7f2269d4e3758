package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var historyLimit int

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch a new entry once and update the frame",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.refresher.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		return printJSON(cmd, rec)
	},
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent refresh, or the last N with --history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if historyLimit > 0 {
			records, err := a.refresher.History(cmd.Context(), historyLimit)
			if err != nil {
				return err
			}
			return printJSON(cmd, records)
		}

		rec, err := a.refresher.Latest(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, rec)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	latestCmd.Flags().IntVar(&historyLimit, "history", 0, "List the last N recorded refreshes (needs DB_HOST)")
	rootCmd.AddCommand(refreshCmd, latestCmd)
}
