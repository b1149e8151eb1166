package card

import "github.com/jpalmerr/serverboard/internal/battlemetrics"

// SeedingThreshold is the player count below which an online server is
// still seeding.
const SeedingThreshold = 55

// Tier is the coarse state of a server shown on its card.
type Tier int

const (
	TierOffline Tier = iota
	TierSeeding
	TierOnline
)

// Colors are 24-bit RGB values.
const (
	ColorRed    = 0xE74C3C
	ColorPurple = 0x9B59B6
	ColorGreen  = 0x2ECC71
)

// Classify returns the tier of rec. The first matching rule wins:
// offline servers are Offline, online servers below [SeedingThreshold]
// players are Seeding, everything else is Online.
func Classify(rec battlemetrics.Record) Tier {
	switch {
	case !rec.Online:
		return TierOffline
	case rec.Players < SeedingThreshold:
		return TierSeeding
	default:
		return TierOnline
	}
}

// Label returns the human readable tier name.
func (t Tier) Label() string {
	switch t {
	case TierOffline:
		return "Offline"
	case TierSeeding:
		return "Seeding"
	default:
		return "Online"
	}
}

func (t Tier) String() string { return t.Label() }

// Color returns the card accent color.
func (t Tier) Color() int {
	switch t {
	case TierOffline:
		return ColorRed
	case TierSeeding:
		return ColorPurple
	default:
		return ColorGreen
	}
}

// Marker returns the emoji prefix used in card titles.
func (t Tier) Marker() string {
	switch t {
	case TierOffline:
		return "🔴"
	case TierSeeding:
		return "🟣"
	default:
		return "🟢"
	}
}
