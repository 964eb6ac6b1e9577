package openvote

import (
	"context"
	"crypto/rand"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/multiformats/go-multihash"
	"github.com/privacybydesign/openvote/big"
	"github.com/privacybydesign/openvote/group"
	"github.com/privacybydesign/openvote/internal/common"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// State is the position of a Voter in the protocol.
type State int

const (
	StateInit State = iota
	StateRound1Collect
	StateRound1Verified
	StateRound2Collect
	StateTallied
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRound1Collect:
		return "round1-collect"
	case StateRound1Verified:
		return "round1-verified"
	case StateRound2Collect:
		return "round2-collect"
	case StateTallied:
		return "tallied"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

type (
	// SessionParams identifies a voter within a session and holds its vote.
	SessionParams struct {
		Vote   int
		Index  int
		Voters int
	}

	// Config holds the settings shared by all voters of a session. Group must
	// be the same for every voter; nil means group.Default(). Random defaults
	// to crypto/rand.Reader. A zero RoundTimeout waits indefinitely. Progress
	// may be called from several goroutines at once.
	Config struct {
		Group        *group.Group
		SessionID    uuid.UUID
		Random       io.Reader
		RoundTimeout time.Duration
		Progress     ProgressFollower
	}

	// Result is the outcome of a completed session.
	Result struct {
		Tally      int                 `json:"tally"`
		Voters     int                 `json:"voters"`
		Transcript multihash.Multihash `json:"transcript"`
	}

	// Voter runs one voter's side of a session. A Voter is single use: after
	// Run returns it is either tallied or aborted.
	Voter struct {
		cfg     Config
		params  SessionParams
		t       Transport
		context *big.Int
		log     *logrus.Entry

		mu    sync.Mutex
		state State

		// Secret exponent and per-round state, discarded on abort
		x      *big.Int
		board1 Board
		board2 Board
		gy     *big.Int
	}
)

// Validate checks that the parameters describe a voter of a session.
func (p SessionParams) Validate() error {
	if p.Voters < 1 {
		return errorf(KindInvalidParameters, 0, 0, "need at least one voter, got %d", p.Voters)
	}
	if p.Index < 1 || p.Index > p.Voters {
		return errorf(KindInvalidParameters, 0, 0, "voter index %d out of range [1, %d]", p.Index, p.Voters)
	}
	if p.Vote != 0 && p.Vote != 1 {
		return errorf(KindInvalidParameters, 0, 0, "vote must be 0 or 1, got %d", p.Vote)
	}
	return nil
}

// NewVoter prepares a voter for a session over the given transport.
func NewVoter(cfg Config, params SessionParams, t Transport) (*Voter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errorf(KindInvalidParameters, 0, 0, "no transport")
	}
	if cfg.Group == nil {
		cfg.Group = group.Default()
	}
	if cfg.Random == nil {
		cfg.Random = rand.Reader
	}
	if cfg.Progress == nil {
		cfg.Progress = &EmptyFollower{}
	}
	if cfg.RoundTimeout < 0 {
		return nil, errorf(KindInvalidParameters, 0, 0, "negative round timeout %s", cfg.RoundTimeout)
	}
	return &Voter{
		cfg:     cfg,
		params:  params,
		t:       t,
		context: new(big.Int).SetBytes(cfg.SessionID[:]),
		log: Logger.WithFields(logrus.Fields{
			"session": cfg.SessionID.String(),
			"voter":   params.Index,
		}),
		state: StateInit,
	}, nil
}

// State returns the current protocol state.
func (v *Voter) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Voter) setState(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
	v.log.WithField("state", s.String()).Debug("state change")
}

// Run executes both rounds and the tally. On any failure the session aborts:
// the secret and all collected state are discarded and a *ProtocolError is
// returned. Run may be called only once.
func (v *Voter) Run(ctx context.Context) (*Result, error) {
	if v.State() != StateInit {
		return nil, errorf(KindInvalidParameters, 0, 0, "voter already ran (state %s)", v.State())
	}
	res, err := v.run(ctx)
	if err != nil {
		v.abort(err)
		return nil, err
	}
	v.wipe()
	return res, nil
}

func (v *Voter) run(ctx context.Context) (*Result, error) {
	if err := v.round1(ctx); err != nil {
		return nil, err
	}
	if err := v.round2(ctx); err != nil {
		return nil, err
	}
	return v.tally()
}

func (v *Voter) roundContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.cfg.RoundTimeout > 0 {
		return context.WithTimeout(ctx, v.cfg.RoundTimeout)
	}
	return context.WithCancel(ctx)
}

func (v *Voter) round1(ctx context.Context) error {
	ctx, cancel := v.roundContext(ctx)
	defer cancel()

	g, n, i := v.cfg.Group, v.params.Voters, v.params.Index
	log := v.log.WithField("round", int(Round1))

	var err error
	if v.x, err = g.RandomExponent(v.cfg.Random); err != nil {
		return newError(KindRandomness, Round1, 0, errors.WrapPrefix(err, "failed to sample secret", 0))
	}
	gx := g.ExpG(v.x)
	proof, err := ProveKnowledge(g, v.cfg.Random, v.context, v.x, gx, i)
	if err != nil {
		return newError(KindRandomness, Round1, 0, err)
	}
	own := &Message{
		Session:    v.cfg.SessionID,
		Round:      Round1,
		Index:      i,
		Commitment: gx,
		Schnorr:    proof,
	}

	log.Debug("publishing commitment")
	if err = v.t.Publish(ctx, own); err != nil {
		return newError(KindTransport, Round1, 0, err)
	}
	v.setState(StateRound1Collect)

	if v.board1, err = v.collect(ctx, Round1, own); err != nil {
		return err
	}

	err = v.verifyAll(ctx, Round1, "verifying round 1 proofs", func(j int, m *Message) bool {
		return m.Schnorr.Verify(g, v.context, m.Commitment, j)
	})
	if err != nil {
		return err
	}

	commitments := v.board1.Commitments(n)
	if v.gy, err = PersonalBase(g, commitments, i); err != nil {
		return v.arithmeticError(Round1, err)
	}
	v.setState(StateRound1Verified)
	log.Debug("all Schnorr proofs verified")
	return nil
}

func (v *Voter) round2(ctx context.Context) error {
	ctx, cancel := v.roundContext(ctx)
	defer cancel()

	g, n, i := v.cfg.Group, v.params.Voters, v.params.Index
	log := v.log.WithField("round", int(Round2))

	proof, err := ProveBit(g, v.cfg.Random, v.context, v.x, v.params.Vote, v.gy, i)
	if err != nil {
		return newError(KindRandomness, Round2, 0, err)
	}
	own := &Message{
		Session:    v.cfg.SessionID,
		Round:      Round2,
		Index:      i,
		Commitment: proof.Y,
		Bit:        proof,
	}

	log.Debug("publishing vote")
	if err = v.t.Publish(ctx, own); err != nil {
		return newError(KindTransport, Round2, 0, err)
	}
	v.setState(StateRound2Collect)

	if v.board2, err = v.collect(ctx, Round2, own); err != nil {
		return err
	}

	// Every personal base is recomputed from the verified round 1 board
	commitments := v.board1.Commitments(n)
	bases := make([]*big.Int, n+1)
	for j := 1; j <= n; j++ {
		if bases[j], err = PersonalBase(g, commitments, j); err != nil {
			return v.arithmeticError(Round2, err)
		}
	}

	err = v.verifyAll(ctx, Round2, "verifying round 2 proofs", func(j int, m *Message) bool {
		p := m.Bit
		return p.X.Cmp(commitments[j-1]) == 0 &&
			p.Y.Cmp(m.Commitment) == 0 &&
			p.Verify(g, v.context, bases[j], j)
	})
	if err != nil {
		return err
	}
	log.Debug("all bit proofs verified")
	return nil
}

// collect waits for the board of a round, checks the shape of every message
// and checks that own came back unchanged.
func (v *Voter) collect(ctx context.Context, round Round, own *Message) (Board, error) {
	n := v.params.Voters
	board, err := v.t.Collect(ctx, round, n)
	if err != nil {
		return nil, newError(KindTransport, round, 0, err)
	}
	if len(board) != n {
		return nil, errorf(KindTransport, round, 0, "expected %d messages, got %d", n, len(board))
	}
	// A changed echo of our own message is reported as such even when it is
	// also malformed
	echo, ok := board[own.Index]
	if !ok || echo == nil {
		return nil, errorf(KindTransport, round, own.Index, "no message from voter %d", own.Index)
	}
	if !echo.Equal(own) {
		return nil, errorf(KindSelfEchoMismatch, round, own.Index, "echo differs from published message")
	}
	for j := 1; j <= n; j++ {
		m, ok := board[j]
		if !ok {
			return nil, errorf(KindTransport, round, j, "no message from voter %d", j)
		}
		if m == nil || m.Index != j {
			return nil, errorf(KindTransport, round, j, "message filed under wrong index")
		}
		if err = m.Validate(v.cfg.Group, v.cfg.SessionID, round, n); err != nil {
			return nil, newError(KindTransport, round, j, err)
		}
	}
	return board, nil
}

// verifyAll runs verify for every message of the current board in parallel.
// The lowest failing index is reported, so that every honest voter names the
// same culprit.
func (v *Voter) verifyAll(ctx context.Context, round Round, desc string, verify func(int, *Message) bool) error {
	n := v.params.Voters
	board := v.board1
	if round == Round2 {
		board = v.board2
	}

	v.cfg.Progress.StepStart(desc, n)
	defer v.cfg.Progress.StepDone()

	var tick sync.Mutex
	failed := make([]bool, n+1)
	eg := &errgroup.Group{}
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for j := 1; j <= n; j++ {
		j, m := j, board[j]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			failed[j] = !verify(j, m)
			tick.Lock()
			v.cfg.Progress.Tick()
			tick.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return newError(KindTransport, round, 0, errors.WrapPrefix(err, "verification interrupted", 0))
	}
	for j := 1; j <= n; j++ {
		if failed[j] {
			return errorf(KindProofVerificationFailed, round, j, "proof of voter %d rejected", j)
		}
	}
	return nil
}

func (v *Voter) tally() (*Result, error) {
	g, n := v.cfg.Group, v.params.Voters
	k, err := RecoverTally(g, v.board2.Commitments(n))
	if err != nil {
		return nil, newError(KindTallyRecoveryFailed, Round2, 0, err)
	}
	fp, err := Fingerprint(v.board1, v.board2, n)
	if err != nil {
		return nil, newError(KindTallyRecoveryFailed, Round2, 0, err)
	}
	v.setState(StateTallied)
	v.log.WithFields(logrus.Fields{
		"tally":      k,
		"transcript": fp.B58String(),
	}).Info("session tallied")
	return &Result{Tally: k, Voters: n, Transcript: fp}, nil
}

func (v *Voter) arithmeticError(round Round, err error) error {
	if errors.Is(err, common.ErrNotInvertible) {
		return newError(KindNotInvertible, round, 0, err)
	}
	return newError(KindInvalidParameters, round, 0, err)
}

func (v *Voter) abort(err error) {
	v.wipe()
	v.setState(StateAborted)
	v.log.WithError(err).Warn("session aborted")
}

func (v *Voter) wipe() {
	if v.x != nil {
		v.x.SetInt64(0)
		v.x = nil
	}
	v.board1, v.board2 = nil, nil
	v.gy = nil
}
