// Package discord announces poll messages in a single bound channel.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

// Session is the part of *discordgo.Session the transport uses.
type Session interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID string, messageID string, options ...discordgo.RequestOption) error
}

type transport struct {
	session   Session
	channelID string
}

func NewTransport(session Session, channelID string) ports.Transport {
	return &transport{
		session:   session,
		channelID: channelID,
	}
}

// Open starts a bot session for token.
func Open(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open discord session: %w", err)
	}
	return session, nil
}

func (t *transport) Announce(ctx context.Context, text string) (ports.MessageHandle, error) {
	message, err := t.session.ChannelMessageSend(t.channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send discord message: %w", err)
	}
	return ports.MessageHandle(message.ID), nil
}

func (t *transport) Retract(ctx context.Context, handle ports.MessageHandle) error {
	err := t.session.ChannelMessageDelete(t.channelID, string(handle), discordgo.WithContext(ctx))
	if err == nil {
		return nil
	}
	if isUnknownMessage(err) {
		return domain.ErrMessageNotFound
	}
	return fmt.Errorf("failed to delete discord message: %w", err)
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
