package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

type fakeSession struct {
	sent      []string
	deleted   []string
	deleteErr error
}

func (s *fakeSession) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.sent = append(s.sent, channelID+":"+content)
	return &discordgo.Message{ID: "m1", ChannelID: channelID, Content: content}, nil
}

func (s *fakeSession) ChannelMessageDelete(channelID string, messageID string, _ ...discordgo.RequestOption) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, channelID+":"+messageID)
	return nil
}

func TestAnnounceAndRetract(t *testing.T) {
	session := &fakeSession{}
	tr := NewTransport(session, "42")
	ctx := context.Background()

	handle, err := tr.Announce(ctx, "Voting is open")
	require.NoError(t, err)
	assert.Equal(t, ports.MessageHandle("m1"), handle)
	assert.Equal(t, []string{"42:Voting is open"}, session.sent)

	require.NoError(t, tr.Retract(ctx, handle))
	assert.Equal(t, []string{"42:m1"}, session.deleted)
}

func TestRetractUnknownMessage(t *testing.T) {
	session := &fakeSession{deleteErr: &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
	}}
	tr := NewTransport(session, "42")

	err := tr.Retract(context.Background(), "gone")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestRetractOtherFailure(t *testing.T) {
	session := &fakeSession{deleteErr: errors.New("gateway down")}
	tr := NewTransport(session, "42")

	err := tr.Retract(context.Background(), "m1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMessageNotFound)
}
