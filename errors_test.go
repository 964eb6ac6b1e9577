package openvote

import (
	"testing"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestProtocolError(t *testing.T) {
	err := errorf(KindProofVerificationFailed, Round2, 4, "proof of voter %d rejected", 4)
	assert.ErrorIs(t, err, ErrProofVerificationFailed)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.Equal(t, "round 2: proof verification failed (voter 4): proof of voter 4 rejected", err.Error())
	assert.NotEmpty(t, err.ErrorStack())

	err = newError(KindNotInvertible, Round1, 0, common.ErrNotInvertible)
	assert.ErrorIs(t, err, ErrNotInvertible)
	assert.ErrorIs(t, err, common.ErrNotInvertible)
	assert.Equal(t, "round 1: internal arithmetic fault: element not invertible: modular inverse does not exist", err.Error())

	err = newError(KindRandomness, Round2, 0, errors.New("short read"))
	assert.ErrorIs(t, err, ErrRandomness)
	assert.NotErrorIs(t, err, ErrInvalidParameters)
	assert.Equal(t, "round 2: randomness source failed: short read", err.Error())
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "tally could not be recovered", KindTallyRecoveryFailed.String())
	assert.Equal(t, "randomness source failed", KindRandomness.String())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
}
