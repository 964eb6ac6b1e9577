package transport

import (
	"context"
	"io"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
)

// Network connects n Streams through a Relay over in-process pipes. It runs
// the same code path as voters in separate processes joined by a relay.
type Network struct {
	streams []*Stream
	writers []*io.PipeWriter
	relay   chan error
}

func NewNetwork(ctx context.Context, session uuid.UUID, n int) (*Network, error) {
	if n < 1 {
		return nil, errors.Errorf("need at least one voter, got %d", n)
	}
	nw := &Network{relay: make(chan error, 1)}
	inputs := make([]io.Reader, n)
	outputs := make([]io.Writer, n)
	for i := 0; i < n; i++ {
		// voter -> relay
		upR, upW := io.Pipe()
		// relay -> voter
		downR, downW := io.Pipe()

		inputs[i], outputs[i] = upR, downW
		nw.writers = append(nw.writers, upW, downW)
		nw.streams = append(nw.streams, NewStream(session, downR, upW))
	}
	go func() {
		nw.relay <- Relay(ctx, inputs, outputs)
	}()
	return nw, nil
}

// Stream returns the transport of voter i in [1, n].
func (nw *Network) Stream(i int) (*Stream, error) {
	if i < 1 || i > len(nw.streams) {
		return nil, errors.Errorf("voter index %d out of range [1, %d]", i, len(nw.streams))
	}
	return nw.streams[i-1], nil
}

// Close shuts down all pipes and waits for the relay to stop.
func (nw *Network) Close() error {
	for _, w := range nw.writers {
		_ = w.Close()
	}
	err := <-nw.relay
	for _, s := range nw.streams {
		<-s.Done()
	}
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return err
	}
	return nil
}
