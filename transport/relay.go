package transport

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/go-errors/errors"
	"golang.org/x/sync/errgroup"
)

// Relay copies every line read from any of inputs to all outputs, including
// the output that belongs to the sender, so that every voter sees the same
// sequence of messages per input. Lines are passed on unparsed. Relay returns
// when all inputs are exhausted or on the first read or write error. Once ctx
// is done no further lines are passed on.
func Relay(ctx context.Context, inputs []io.Reader, outputs []io.Writer) error {
	locks := make([]sync.Mutex, len(outputs))
	eg, ctx := errgroup.WithContext(ctx)

	broadcast := func(line []byte) error {
		for i, w := range outputs {
			if err := ctx.Err(); err != nil {
				return err
			}
			locks[i].Lock()
			_, err := w.Write(line)
			locks[i].Unlock()
			if err != nil {
				return errors.WrapPrefix(err, "relay write failed", 0)
			}
		}
		return nil
	}

	for i, r := range inputs {
		i, r := i, r
		eg.Go(func() error {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 4096), MaxLineLength)
			count := 0
			for scanner.Scan() {
				// Scanner reuses its buffer
				line := append(append([]byte(nil), scanner.Bytes()...), '\n')
				if err := broadcast(line); err != nil {
					return err
				}
				count++
			}
			Logger.WithField("input", i).Tracef("relay: input exhausted after %d lines", count)
			if err := scanner.Err(); err != nil {
				return errors.WrapPrefix(err, "relay read failed", 0)
			}
			return nil
		})
	}
	return eg.Wait()
}
