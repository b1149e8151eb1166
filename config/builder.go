package config

import (
	"log/slog"
	"sort"

	"github.com/jpalmerr/serverboard"
)

// BuildOptions converts parsed configuration into SDK options, including
// the messenger: Discord normally, a logging messenger in dry-run mode.
//
// Returns an error if the chat credentials are missing and dry-run is off.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]serverboard.Option, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	messenger, err := buildMessenger(cfg.Discord, logger)
	if err != nil {
		return nil, err
	}

	opts := []serverboard.Option{
		serverboard.WithServers(cfg.Servers...),
		serverboard.WithMessenger(messenger),
		serverboard.WithMode(serverboard.Mode(cfg.Mode)),
		serverboard.WithPort(cfg.Port),
		serverboard.WithRefreshInterval(cfg.RefreshInterval.Duration()),
		serverboard.WithReconcileInterval(cfg.ReconcileInterval.Duration()),
		serverboard.WithLogger(logger),
		serverboard.WithBranding(serverboard.Branding{
			ThumbnailURL:  cfg.Card.ThumbnailURL,
			FooterText:    cfg.Card.FooterText,
			FooterIconURL: cfg.Card.FooterIconURL,
		}),
	}

	api := cfg.StatusAPI
	if api.URLTemplate != "" {
		opts = append(opts, serverboard.WithURLTemplate(api.URLTemplate))
	}
	if api.Timeout != 0 {
		opts = append(opts, serverboard.WithRequestTimeout(api.Timeout.Duration()))
	}
	if api.MaxRetries != nil || api.InitialBackoff != 0 {
		retries := defaultMaxRetries
		if api.MaxRetries != nil {
			retries = *api.MaxRetries
		}
		backoff := api.InitialBackoff.Duration()
		if backoff == 0 {
			backoff = defaultInitialBackoff
		}
		opts = append(opts, serverboard.WithRetry(retries, backoff))
	}
	if len(api.Headers) > 0 {
		opts = append(opts, serverboard.WithHeaders(mapToKeyValuePairs(api.Headers)...))
	}
	if api.Concurrency > 0 {
		opts = append(opts, serverboard.WithFetchConcurrency(api.Concurrency))
	}

	if cfg.Discord.Rate > 0 || cfg.Discord.Burst > 0 {
		rate, burst := cfg.Discord.Rate, cfg.Discord.Burst
		if rate == 0 {
			rate = defaultChatRate
		}
		if burst == 0 {
			burst = defaultChatBurst
		}
		opts = append(opts, serverboard.WithChatRate(rate, burst))
	}

	return opts, nil
}

func buildMessenger(dc DiscordConfig, logger *slog.Logger) (serverboard.Messenger, error) {
	if dc.DryRun {
		return serverboard.NewLogMessenger(logger), nil
	}
	return serverboard.NewDiscordMessenger(dc.Token, dc.ChannelID, logger)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
