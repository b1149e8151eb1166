package chat

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jpalmerr/serverboard/internal/card"
)

func TestToEmbed(t *testing.T) {
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	e := toEmbed(card.Card{
		Title:         "🟢 Online | X",
		Color:         card.ColorGreen,
		Fields:        []card.Field{{Name: "Players", Value: "60 / 100"}},
		ThumbnailURL:  "https://img/thumb.png",
		FooterText:    "footer",
		FooterIconURL: "https://img/icon.png",
		Timestamp:     at,
	})

	if e.Title != "🟢 Online | X" || e.Color != card.ColorGreen {
		t.Errorf("embed title/color = %q %#x", e.Title, e.Color)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != "Players" || e.Fields[0].Value != "60 / 100" {
		t.Errorf("embed fields = %+v", e.Fields)
	}
	if e.Thumbnail == nil || e.Thumbnail.URL != "https://img/thumb.png" {
		t.Errorf("embed thumbnail = %+v", e.Thumbnail)
	}
	if e.Footer == nil || e.Footer.Text != "footer" || e.Footer.IconURL != "https://img/icon.png" {
		t.Errorf("embed footer = %+v", e.Footer)
	}
	if e.Timestamp != "2026-05-04T03:02:01Z" {
		t.Errorf("embed timestamp = %q", e.Timestamp)
	}
}

func TestToEmbed_OmitsEmptyDecorations(t *testing.T) {
	e := toEmbed(card.Card{Title: "x"})
	if e.Thumbnail != nil || e.Footer != nil {
		t.Errorf("expected no thumbnail/footer, got %+v %+v", e.Thumbnail, e.Footer)
	}
}

func TestTranslateError(t *testing.T) {
	if translateError(nil) != nil {
		t.Error("translateError(nil) should be nil")
	}

	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	if err := translateError(notFound); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("404 not mapped to ErrMessageNotFound: %v", err)
	}

	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	if err := translateError(forbidden); errors.Is(err, ErrMessageNotFound) {
		t.Errorf("403 must not map to ErrMessageNotFound: %v", err)
	}
}

func TestNewDiscordMessenger_Validation(t *testing.T) {
	if _, err := NewDiscordMessenger("", "123", nil); err == nil {
		t.Error("expected error for empty token")
	}
	if _, err := NewDiscordMessenger("token", "", nil); err == nil {
		t.Error("expected error for empty channel")
	}
	if _, err := NewDiscordMessenger("token", "123", testLogger()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
