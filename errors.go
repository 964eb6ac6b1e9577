package openvote

import (
	"fmt"

	"github.com/go-errors/errors"
)

// ErrorKind classifies the ways a voting session can abort.
type ErrorKind int

const (
	KindInvalidParameters ErrorKind = iota + 1
	KindTransport
	KindProofVerificationFailed
	KindSelfEchoMismatch
	KindNotInvertible
	KindTallyRecoveryFailed
	KindRandomness
)

// Sentinels for use with errors.Is; every *ProtocolError matches the sentinel of its kind.
var (
	ErrInvalidParameters       = errors.New("invalid session parameters")
	ErrTransport               = errors.New("transport failure")
	ErrProofVerificationFailed = errors.New("proof verification failed")
	ErrSelfEchoMismatch        = errors.New("own broadcast was not echoed unchanged")
	ErrNotInvertible           = errors.New("internal arithmetic fault: element not invertible")
	ErrTallyRecoveryFailed     = errors.New("tally could not be recovered")
	ErrRandomness              = errors.New("randomness source failed")
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidParameters:       ErrInvalidParameters,
	KindTransport:               ErrTransport,
	KindProofVerificationFailed: ErrProofVerificationFailed,
	KindSelfEchoMismatch:        ErrSelfEchoMismatch,
	KindNotInvertible:           ErrNotInvertible,
	KindTallyRecoveryFailed:     ErrTallyRecoveryFailed,
	KindRandomness:              ErrRandomness,
}

func (k ErrorKind) String() string {
	if err, ok := kindSentinels[k]; ok {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ProtocolError is returned by every failing session operation. Round is 0 when
// the failure happened before round 1 started; Index names the offending voter
// when one is known, and is 0 otherwise.
type ProtocolError struct {
	Kind  ErrorKind
	Round Round
	Index int
	Err   error
}

func (e *ProtocolError) Error() string {
	msg := e.Kind.String()
	if e.Round != 0 {
		msg = fmt.Sprintf("round %d: %s", e.Round, msg)
	}
	if e.Index != 0 {
		msg = fmt.Sprintf("%s (voter %d)", msg, e.Index)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) and friends work on protocol errors.
func (e *ProtocolError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// ErrorStack returns the stack trace of the cause, if it carries one.
func (e *ProtocolError) ErrorStack() string {
	if ge, ok := e.Err.(*errors.Error); ok {
		return ge.ErrorStack()
	}
	return ""
}

func newError(kind ErrorKind, round Round, index int, cause error) *ProtocolError {
	return &ProtocolError{Kind: kind, Round: round, Index: index, Err: cause}
}

func errorf(kind ErrorKind, round Round, index int, format string, args ...interface{}) *ProtocolError {
	return newError(kind, round, index, errors.Errorf(format, args...))
}
