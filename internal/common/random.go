package common

import (
	"io"

	"github.com/go-errors/errors"
	"github.com/privacybydesign/openvote/big"
)

// MinRandomBytes is the least number of random bytes consumed per secret draw.
const MinRandomBytes = 64

// RandomExponent draws a secret exponent in [0, order) from rnd. It reads
// max(MinRandomBytes, len(order)+16) bytes, interprets them as a big-endian
// unsigned integer and reduces it modulo order; the 128 surplus bits keep the
// modular bias negligible.
func RandomExponent(rnd io.Reader, order *big.Int) (*big.Int, error) {
	if order.Sign() <= 0 {
		return nil, errors.Errorf("order must be positive, got %s", order)
	}
	n := (order.BitLen()+7)/8 + 16
	if n < MinRandomBytes {
		n = MinRandomBytes
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(rnd, buf); err != nil {
		return nil, errors.WrapPrefix(err, "failed to read randomness", 0)
	}
	x := new(big.Int).SetBytes(buf)
	return x.Mod(x, order), nil
}
