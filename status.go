package serverboard

import (
	"time"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
	"github.com/jpalmerr/serverboard/internal/card"
)

// Tier is the status tier a server is classified into.
type Tier string

const (
	// TierOffline indicates the API reports the server offline.
	TierOffline Tier = "Offline"

	// TierSeeding indicates the server is online with fewer than
	// [SeedingThreshold] players.
	TierSeeding Tier = "Seeding"

	// TierOnline indicates the server is online and populated.
	TierOnline Tier = "Online"
)

// SeedingThreshold is the player count at which a server stops seeding.
const SeedingThreshold = card.SeedingThreshold

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}

// Record is the status of one server as reported by the API.
type Record struct {
	Online     bool
	Players    int
	MaxPlayers int
	Name       string
}

// StatusResult holds the outcome of fetching a single server.
//
// StatusResult is a value type; callbacks receive their own copy.
type StatusResult struct {
	// ServerID is the BattleMetrics server identifier.
	ServerID string

	// Record is the fetched status. Zero when Error is set.
	Record Record

	// Tier is the classification of Record. Empty when Error is set.
	Tier Tier

	// Latency is the time taken by the fetch, including retries.
	Latency time.Duration

	// CheckedAt is the time the fetch completed.
	CheckedAt time.Time

	// Error is set when the fetch failed. The cache keeps its previous
	// entry for the server in that case.
	Error error
}

func fromRecord(rec battlemetrics.Record) Record {
	return Record{
		Online:     rec.Online,
		Players:    rec.Players,
		MaxPlayers: rec.MaxPlayers,
		Name:       rec.Name,
	}
}

func tierOf(rec battlemetrics.Record) Tier {
	return Tier(card.Classify(rec).Label())
}
