package transport

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/privacybydesign/openvote"
	"github.com/sirupsen/logrus"
)

// Hub is an in-memory broadcast board for the n voters of one session. Every
// voter talks to it through its own Endpoint.
type Hub struct {
	n  int
	mb *mailbox
}

// Endpoint is the Transport of voter Index on a Hub. It only accepts messages
// published under its own index.
type Endpoint struct {
	hub   *Hub
	Index int
}

func NewHub(session uuid.UUID, n int) *Hub {
	return &Hub{n: n, mb: newMailbox(session)}
}

// Endpoint returns the transport for voter i, which must be in [1, n].
func (h *Hub) Endpoint(i int) (*Endpoint, error) {
	if i < 1 || i > h.n {
		return nil, errors.Errorf("voter index %d out of range [1, %d]", i, h.n)
	}
	return &Endpoint{hub: h, Index: i}, nil
}

// Close makes collects that are still waiting fail.
func (h *Hub) Close() {
	h.mb.fail(ErrClosed)
}

func (e *Endpoint) Publish(ctx context.Context, msg *openvote.Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, 0)
	}
	if msg == nil || msg.Index != e.Index {
		return errors.Errorf("voter %d cannot publish for another voter", e.Index)
	}
	if err := e.hub.mb.add(msg); err != nil {
		return err
	}
	Logger.WithFields(logrus.Fields{
		"voter": e.Index,
		"round": int(msg.Round),
	}).Trace("hub: message published")
	return nil
}

func (e *Endpoint) Collect(ctx context.Context, round openvote.Round, n int) (openvote.Board, error) {
	if n != e.hub.n {
		return nil, errors.Errorf("hub serves %d voters, not %d", e.hub.n, n)
	}
	return e.hub.mb.collect(ctx, round, n)
}
