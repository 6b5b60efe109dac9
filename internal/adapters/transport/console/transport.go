// Package console is a Transport that writes announcements to the log, used
// when no chat channel is configured.
package console

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vncsmyrnk/tabletop/internal/core/domain"
	"github.com/vncsmyrnk/tabletop/internal/core/ports"
	"github.com/vncsmyrnk/tabletop/internal/logging"
)

type Transport struct {
	logger logrus.FieldLogger

	mu   sync.Mutex
	live map[ports.MessageHandle]struct{}
}

func NewTransport(logger logrus.FieldLogger) *Transport {
	return &Transport{
		logger: logging.Resolve(logger),
		live:   make(map[ports.MessageHandle]struct{}),
	}
}

func (t *Transport) Announce(_ context.Context, text string) (ports.MessageHandle, error) {
	handle := ports.MessageHandle(uuid.NewString())

	t.mu.Lock()
	t.live[handle] = struct{}{}
	t.mu.Unlock()

	t.logger.WithField("handle", handle).Info(text)
	return handle, nil
}

// Retract only knows handles announced by this process.
func (t *Transport) Retract(_ context.Context, handle ports.MessageHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.live[handle]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(t.live, handle)
	t.logger.WithField("handle", handle).Debug("message retracted")
	return nil
}
