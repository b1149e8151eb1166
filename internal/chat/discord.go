package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jpalmerr/serverboard/internal/card"
)

// DiscordMessenger posts cards as embeds into one Discord channel.
type DiscordMessenger struct {
	session   *discordgo.Session
	channelID string
	logger    *slog.Logger

	ready     chan struct{}
	readyOnce sync.Once
}

// NewDiscordMessenger creates a bot session for token targeting channelID.
// The session is not connected until [DiscordMessenger.Open].
func NewDiscordMessenger(token, channelID string, logger *slog.Logger) (*DiscordMessenger, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	if channelID == "" {
		return nil, errors.New("discord channel id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	d := &DiscordMessenger{
		session:   session,
		channelID: channelID,
		logger:    logger,
		ready:     make(chan struct{}),
	}

	session.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		d.logger.Info("discord session ready", "user", r.User.Username, "guilds", len(r.Guilds))
		d.readyOnce.Do(func() { close(d.ready) })
	})

	return d, nil
}

// Open connects the gateway and waits for the Ready event.
func (d *DiscordMessenger) Open(ctx context.Context) error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	select {
	case <-d.ready:
		return nil
	case <-ctx.Done():
		_ = d.session.Close()
		return ctx.Err()
	}
}

// Send posts a new embed message.
func (d *DiscordMessenger) Send(ctx context.Context, c card.Card) (string, error) {
	msg, err := d.session.ChannelMessageSendEmbed(d.channelID, toEmbed(c), discordgo.WithContext(ctx))
	if err != nil {
		return "", translateError(err)
	}
	return msg.ID, nil
}

// Fetch looks a message up by id.
func (d *DiscordMessenger) Fetch(ctx context.Context, messageID string) (string, error) {
	msg, err := d.session.ChannelMessage(d.channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return "", translateError(err)
	}
	return msg.ID, nil
}

// Edit replaces the embed of an existing message.
func (d *DiscordMessenger) Edit(ctx context.Context, messageID string, c card.Card) error {
	_, err := d.session.ChannelMessageEditEmbed(d.channelID, messageID, toEmbed(c), discordgo.WithContext(ctx))
	return translateError(err)
}

// Close disconnects the gateway.
func (d *DiscordMessenger) Close() error {
	return d.session.Close()
}

func toEmbed(c card.Card) *discordgo.MessageEmbed {
	fields := make([]*discordgo.MessageEmbedField, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	embed := &discordgo.MessageEmbed{
		Title:     c.Title,
		Color:     c.Color,
		Fields:    fields,
		Timestamp: c.Timestamp.UTC().Format(time.RFC3339),
	}
	if c.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.ThumbnailURL}
	}
	if c.FooterText != "" || c.FooterIconURL != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: c.FooterText, IconURL: c.FooterIconURL}
	}
	return embed
}

// translateError maps a missing message to ErrMessageNotFound.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", ErrMessageNotFound, err)
	}
	return err
}
