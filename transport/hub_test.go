package transport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/privacybydesign/openvote"
	"github.com/privacybydesign/openvote/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(session uuid.UUID, round openvote.Round, index int) *openvote.Message {
	return &openvote.Message{
		Session:    session,
		Round:      round,
		Index:      index,
		Commitment: big.NewInt(int64(100*int(round) + index)),
	}
}

func TestHubCollect(t *testing.T) {
	session := uuid.New()
	hub := NewHub(session, 3)
	ctx := context.Background()

	eps := make([]*Endpoint, 3)
	for i := range eps {
		var err error
		eps[i], err = hub.Endpoint(i + 1)
		require.NoError(t, err)
	}

	done := make(chan openvote.Board)
	go func() {
		board, err := eps[0].Collect(ctx, openvote.Round1, 3)
		assert.NoError(t, err)
		done <- board
	}()

	// Round 2 messages may arrive before round 1 completes
	require.NoError(t, eps[2].Publish(ctx, testMessage(session, openvote.Round2, 3)))
	for i, ep := range eps {
		require.NoError(t, ep.Publish(ctx, testMessage(session, openvote.Round1, i+1)))
	}

	board := <-done
	require.Len(t, board, 3)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, i, board[i].Index)
		assert.Equal(t, int64(100+i), board[i].Commitment.Int64())
	}

	// Collected boards are copies
	delete(board, 1)
	again, err := eps[1].Collect(ctx, openvote.Round1, 3)
	require.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestHubRejects(t *testing.T) {
	session := uuid.New()
	hub := NewHub(session, 2)
	ctx := context.Background()
	ep, err := hub.Endpoint(1)
	require.NoError(t, err)

	_, err = hub.Endpoint(0)
	assert.Error(t, err)
	_, err = hub.Endpoint(3)
	assert.Error(t, err)

	assert.ErrorIs(t, ep.Publish(ctx, testMessage(uuid.New(), openvote.Round1, 1)), ErrForeignSession)
	assert.Error(t, ep.Publish(ctx, testMessage(session, openvote.Round1, 2)), "publishing for another voter")
	assert.ErrorIs(t, ep.Publish(ctx, testMessage(session, openvote.Round(3), 1)), ErrUnknownRound)

	require.NoError(t, ep.Publish(ctx, testMessage(session, openvote.Round1, 1)))
	assert.ErrorIs(t, ep.Publish(ctx, testMessage(session, openvote.Round1, 1)), ErrDuplicate)

	_, err = ep.Collect(ctx, openvote.Round1, 3)
	assert.Error(t, err, "wrong voter count")
}

func TestHubCollectTimeout(t *testing.T) {
	session := uuid.New()
	hub := NewHub(session, 2)
	ep, err := hub.Endpoint(1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, ep.Publish(ctx, testMessage(session, openvote.Round1, 1)))
	_, err = ep.Collect(ctx, openvote.Round1, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHubClose(t *testing.T) {
	session := uuid.New()
	hub := NewHub(session, 2)
	ep, err := hub.Endpoint(2)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		hub.Close()
	}()
	_, err = ep.Collect(context.Background(), openvote.Round2, 2)
	assert.ErrorIs(t, err, ErrClosed)
}
