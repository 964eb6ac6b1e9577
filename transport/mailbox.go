package transport

import (
	"context"
	"sync"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/privacybydesign/openvote"
)

var (
	ErrDuplicate      = errors.New("duplicate message for voter")
	ErrForeignSession = errors.New("message belongs to another session")
	ErrUnknownRound   = errors.New("message for unknown round")
	ErrClosed         = errors.New("transport closed")
)

// mailbox collects the messages of both rounds of one session and wakes up
// waiting collectors whenever a message arrives.
type mailbox struct {
	session uuid.UUID

	mu      sync.Mutex
	boards  map[openvote.Round]openvote.Board
	changed chan struct{}
	err     error
}

func newMailbox(session uuid.UUID) *mailbox {
	return &mailbox{
		session: session,
		boards: map[openvote.Round]openvote.Board{
			openvote.Round1: {},
			openvote.Round2: {},
		},
		changed: make(chan struct{}),
	}
}

// notify wakes up all waiters. Must be called with mu held.
func (mb *mailbox) notify() {
	close(mb.changed)
	mb.changed = make(chan struct{})
}

// add files msg under its round and index.
func (mb *mailbox) add(msg *openvote.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if msg.Session != mb.session {
		return errors.Errorf("%w: %s", ErrForeignSession, msg.Session)
	}
	board, ok := mb.boards[msg.Round]
	if !ok {
		return errors.Errorf("%w: %d", ErrUnknownRound, msg.Round)
	}
	if _, ok = board[msg.Index]; ok {
		return errors.Errorf("%w %d in round %d", ErrDuplicate, msg.Index, msg.Round)
	}
	board[msg.Index] = msg
	mb.notify()
	return nil
}

// fail makes all current and future collects that cannot complete return err.
// Only the first failure is kept.
func (mb *mailbox) fail(err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.err == nil {
		mb.err = err
	}
	mb.notify()
}

// collect blocks until the board of round holds n messages, one for every
// index 1..n, and returns a copy of it.
func (mb *mailbox) collect(ctx context.Context, round openvote.Round, n int) (openvote.Board, error) {
	if n < 1 {
		return nil, errors.Errorf("cannot collect %d messages", n)
	}
	for {
		mb.mu.Lock()
		board, ok := mb.boards[round]
		if !ok {
			mb.mu.Unlock()
			return nil, errors.Errorf("%w: %d", ErrUnknownRound, round)
		}
		for j := range board {
			if j < 1 || j > n {
				mb.mu.Unlock()
				return nil, errors.Errorf("voter index %d out of range [1, %d]", j, n)
			}
		}
		if len(board) == n {
			res := make(openvote.Board, n)
			for j, m := range board {
				res[j] = m
			}
			mb.mu.Unlock()
			return res, nil
		}
		if mb.err != nil {
			err := mb.err
			mb.mu.Unlock()
			return nil, errors.Errorf("round %d incomplete: %w", round, err)
		}
		changed := mb.changed
		mb.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, errors.Errorf("round %d incomplete: %w", round, ctx.Err())
		case <-changed:
		}
	}
}
