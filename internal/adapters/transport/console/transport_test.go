package console

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
)

func TestAnnounceLogsAndRetractForgets(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	tr := NewTransport(logger)
	ctx := context.Background()

	handle, err := tr.Announce(ctx, "Azul won with 2 votes!")
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	assert.Equal(t, "Azul won with 2 votes!", hook.Entries[0].Message)

	require.NoError(t, tr.Retract(ctx, handle))
	assert.ErrorIs(t, tr.Retract(ctx, handle), domain.ErrMessageNotFound)
}
