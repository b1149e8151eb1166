package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/serverboard"
	"github.com/jpalmerr/serverboard/config"
)

// onceCmd fetches every server once and prints the result.
var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Fetch every server once and print the statuses as JSON",
	Long: `Run a single refresh pass against the status API and print one JSON
object per configured server. Nothing is published to Discord and no
credentials are needed.

Example:
  serverboard once -c config.yaml`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)

	onceCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = onceCmd.MarkFlagRequired("config")
}

// onceResult is the JSON shape printed by the once command.
type onceResult struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Status     string `json:"status,omitempty"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	LatencyMs  int64  `json:"latency_ms"`
	Error      string `json:"error,omitempty"`
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Discord.DryRun = true

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	board, err := serverboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create serverboard: %w", err)
	}

	results := board.Refresh(cmd.Context())

	out := make([]onceResult, 0, len(results))
	for _, r := range results {
		o := onceResult{
			ID:         r.ServerID,
			Name:       r.Record.Name,
			Status:     r.Tier.String(),
			Players:    r.Record.Players,
			MaxPlayers: r.Record.MaxPlayers,
			LatencyMs:  r.Latency.Milliseconds(),
		}
		if r.Error != nil {
			o.Error = r.Error.Error()
		}
		out = append(out, o)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
