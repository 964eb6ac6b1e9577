package openvote

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/cbor"
	"github.com/privacybydesign/openvote/group"
)

// Round numbers the two broadcast rounds of a session.
type Round int

const (
	Round1 Round = 1
	Round2 Round = 2
)

type (
	// Message is what a voter broadcasts in a round. Its shape is fixed per
	// round: round 1 carries Commitment = g^x and a Schnorr proof, round 2
	// carries Commitment = gy^x * g^v and a bit proof.
	Message struct {
		Session    uuid.UUID     `json:"session" cbor:"session"`
		Round      Round         `json:"round" cbor:"round"`
		Index      int           `json:"index" cbor:"index"`
		Commitment *big.Int      `json:"commitment" cbor:"commitment"`
		Schnorr    *SchnorrProof `json:"schnorr,omitempty" cbor:"schnorr,omitempty"`
		Bit        *BitProof     `json:"bit,omitempty" cbor:"bit,omitempty"`
	}

	// Board maps voter indices 1..n to the messages of one round.
	Board map[int]*Message

	// Transport is the broadcast channel between the voters of one session.
	// Publish sends one message to all voters. Collect blocks until the
	// messages of all n voters for the given round, including the caller's own
	// echo, are available, or until ctx is done.
	Transport interface {
		Publish(ctx context.Context, msg *Message) error
		Collect(ctx context.Context, round Round, n int) (Board, error)
	}
)

// Encode returns the deterministic CBOR encoding of the message.
func (m *Message) Encode() ([]byte, error) {
	return cbor.Marshal(m)
}

// DecodeMessage parses a CBOR-encoded message. It only checks the encoding;
// use Validate to check the shape.
func DecodeMessage(data []byte) (*Message, error) {
	m := &Message{}
	if err := cbor.Unmarshal(data, m); err != nil {
		return nil, errors.WrapPrefix(err, "malformed message", 0)
	}
	return m, nil
}

// Validate checks that the message has the fixed shape of the given round for
// the given session and voter count. It does not verify proofs.
func (m *Message) Validate(g *group.Group, session uuid.UUID, round Round, n int) error {
	if m == nil {
		return errors.New("missing message")
	}
	if m.Session != session {
		return errors.Errorf("message for foreign session %s", m.Session)
	}
	if m.Round != round {
		return errors.Errorf("message for round %d in round %d", m.Round, round)
	}
	if m.Index < 1 || m.Index > n {
		return errors.Errorf("voter index %d out of range [1, %d]", m.Index, n)
	}
	if !g.IsElement(m.Commitment) {
		return errors.Errorf("commitment of voter %d is not a group element", m.Index)
	}
	switch round {
	case Round1:
		if m.Schnorr == nil || m.Bit != nil {
			return errors.Errorf("round 1 message of voter %d must carry exactly a Schnorr proof", m.Index)
		}
		if m.Schnorr.Commitment == nil || m.Schnorr.Response == nil {
			return errors.Errorf("incomplete Schnorr proof from voter %d", m.Index)
		}
	case Round2:
		if m.Bit == nil || m.Schnorr != nil {
			return errors.Errorf("round 2 message of voter %d must carry exactly a bit proof", m.Index)
		}
		for _, f := range m.Bit.fields() {
			if f == nil {
				return errors.Errorf("incomplete bit proof from voter %d", m.Index)
			}
		}
	default:
		return errors.Errorf("unknown round %d", round)
	}
	return nil
}

// Equal reports whether both messages carry the same values.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Session == o.Session &&
		m.Round == o.Round &&
		m.Index == o.Index &&
		equalInts(m.Commitment, o.Commitment) &&
		m.Schnorr.Equal(o.Schnorr) &&
		m.Bit.Equal(o.Bit)
}

// Commitments returns the commitments of the board ordered by voter index
// 1..n. Missing entries are nil.
func (b Board) Commitments(n int) []*big.Int {
	res := make([]*big.Int, n)
	for i := 1; i <= n; i++ {
		if m, ok := b[i]; ok {
			res[i-1] = m.Commitment
		}
	}
	return res
}

// Ordered returns the messages of the board ordered by voter index.
func (b Board) Ordered(n int) []*Message {
	res := make([]*Message, n)
	for i := 1; i <= n; i++ {
		res[i-1] = b[i]
	}
	return res
}
