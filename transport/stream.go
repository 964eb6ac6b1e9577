package transport

import (
	"bufio"
	"context"
	"encoding/base64"
	"io"
	"sync"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/privacybydesign/openvote"
	"github.com/sirupsen/logrus"
)

// MaxLineLength bounds a single encoded message on a stream.
const MaxLineLength = 1 << 16

// Stream is a Transport over a pair of byte streams. Every message is written
// as one line holding the base64 encoding of its CBOR form; every line read is
// a message of some voter, including the echo of our own. Messages of a later
// round that arrive early are kept until that round is collected.
type Stream struct {
	mb *mailbox

	wmu sync.Mutex
	w   io.Writer

	done chan struct{}
}

// NewStream starts reading messages for session from r in the background.
// Reading stops at the end of r or at the first malformed line; collects that
// cannot complete then fail.
func NewStream(session uuid.UUID, r io.Reader, w io.Writer) *Stream {
	s := &Stream{
		mb:   newMailbox(session),
		w:    w,
		done: make(chan struct{}),
	}
	go s.read(r)
	return s
}

// EncodeLine returns the line representation of msg, without line terminator.
func EncodeLine(msg *openvote.Message) ([]byte, error) {
	bts, err := msg.Encode()
	if err != nil {
		return nil, errors.WrapPrefix(err, "failed to encode message", 0)
	}
	line := make([]byte, base64.StdEncoding.EncodedLen(len(bts)))
	base64.StdEncoding.Encode(line, bts)
	return line, nil
}

// DecodeLine parses a line produced by EncodeLine.
func DecodeLine(line []byte) (*openvote.Message, error) {
	bts := make([]byte, base64.StdEncoding.DecodedLen(len(line)))
	k, err := base64.StdEncoding.Decode(bts, line)
	if err != nil {
		return nil, errors.WrapPrefix(err, "malformed line", 0)
	}
	return openvote.DecodeMessage(bts[:k])
}

func (s *Stream) read(r io.Reader) {
	defer close(s.done)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 4096), MaxLineLength)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := DecodeLine(line)
		if err == nil {
			err = s.mb.add(msg)
		}
		if err != nil {
			Logger.WithError(err).Warn("stream: rejecting input")
			s.mb.fail(err)
			return
		}
		Logger.WithFields(logrus.Fields{
			"voter": msg.Index,
			"round": int(msg.Round),
		}).Trace("stream: message received")
	}
	if err := scanner.Err(); err != nil {
		s.mb.fail(errors.WrapPrefix(err, "stream read failed", 0))
		return
	}
	s.mb.fail(ErrClosed)
}

// Publish writes msg as a single line. A write that blocks past ctx is
// abandoned; the stream should not be used afterwards.
func (s *Stream) Publish(ctx context.Context, msg *openvote.Message) error {
	line, err := EncodeLine(msg)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	written := make(chan error, 1)
	go func() {
		s.wmu.Lock()
		defer s.wmu.Unlock()
		_, err := s.w.Write(line)
		written <- err
	}()
	select {
	case err = <-written:
		if err != nil {
			return errors.WrapPrefix(err, "stream write failed", 0)
		}
		return nil
	case <-ctx.Done():
		return errors.Errorf("publish abandoned: %w", ctx.Err())
	}
}

func (s *Stream) Collect(ctx context.Context, round openvote.Round, n int) (openvote.Board, error) {
	return s.mb.collect(ctx, round, n)
}

// Done is closed when the background reader has stopped.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}
