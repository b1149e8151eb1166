package card

import (
	"fmt"
	"time"

	"github.com/jpalmerr/serverboard/internal/battlemetrics"
)

// Default branding.
const (
	DefaultThumbnailURL  = "https://cdn.battlemetrics.com/app/assets/battlemetrics.png"
	DefaultFooterText    = "serverboard • live server status"
	DefaultFooterIconURL = "https://cdn.battlemetrics.com/app/assets/favicon.png"
)

// Field is a labelled value on a card.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Card is the platform-neutral content of a chat message.
type Card struct {
	Title         string
	Color         int
	Fields        []Field
	ThumbnailURL  string
	FooterText    string
	FooterIconURL string
	Timestamp     time.Time
	Tier          Tier
}

// Branding holds the fixed decorations applied to every card.
type Branding struct {
	ThumbnailURL  string
	FooterText    string
	FooterIconURL string
}

// DefaultBranding returns the built-in branding.
func DefaultBranding() Branding {
	return Branding{
		ThumbnailURL:  DefaultThumbnailURL,
		FooterText:    DefaultFooterText,
		FooterIconURL: DefaultFooterIconURL,
	}
}

// Renderer builds cards with a fixed branding.
type Renderer struct {
	branding Branding
	now      func() time.Time
}

// NewRenderer creates a renderer. Empty branding fields fall back to the
// defaults; a nil clock uses time.Now.
func NewRenderer(b Branding, now func() time.Time) *Renderer {
	def := DefaultBranding()
	if b.ThumbnailURL == "" {
		b.ThumbnailURL = def.ThumbnailURL
	}
	if b.FooterText == "" {
		b.FooterText = def.FooterText
	}
	if b.FooterIconURL == "" {
		b.FooterIconURL = def.FooterIconURL
	}
	if now == nil {
		now = time.Now
	}
	return &Renderer{branding: b, now: now}
}

// Render maps rec to a card. The timestamp is the render time, not the
// fetch time.
func (r *Renderer) Render(rec battlemetrics.Record) Card {
	tier := Classify(rec)
	return Card{
		Title: fmt.Sprintf("%s %s | %s", tier.Marker(), tier.Label(), rec.Name),
		Color: tier.Color(),
		Fields: []Field{
			{Name: "Players", Value: fmt.Sprintf("%d / %d", rec.Players, rec.MaxPlayers)},
		},
		ThumbnailURL:  r.branding.ThumbnailURL,
		FooterText:    r.branding.FooterText,
		FooterIconURL: r.branding.FooterIconURL,
		Timestamp:     r.now(),
		Tier:          tier,
	}
}

// PlayersString returns the compact "current/max" form.
func PlayersString(rec battlemetrics.Record) string {
	return fmt.Sprintf("%d/%d", rec.Players, rec.MaxPlayers)
}
