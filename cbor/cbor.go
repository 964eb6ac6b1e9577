// Package cbor provides helper functions for encoding and decoding the CBOR that
// voters exchange on the broadcast channel, by wrapping functions provided by
// github.com/fxamacker/cbor.
//
//  1. CBOR is encoded using Core Deterministic Encoding defined in
//     RFC 8949, so that every honest voter produces identical bytes for
//     identical messages and transcripts can be fingerprinted.
//  2. CBOR decoder detects and rejects duplicate map keys and unknown
//     fields: round messages have a fixed shape and anything else is
//     treated as a malformed message.
//
// For more info, see:
//   - https://github.com/fxamacker/cbor
//   - https://tools.ietf.org/html/rfc8949
package cbor

import (
	"github.com/fxamacker/cbor/v2" // imports as cbor
)

// Round messages are small and flat; these limits only need to leave room for
// a transcript of a few thousand voters.
const (
	MaxArrayElements = 1024 * 16
	MaxMapPairs      = 1024 * 16
	MaxNestedLevels  = 8
)

var (
	// encOptions specifies how CBOR should be encoded.
	encOptions = cbor.EncOptions{
		// Enable encoding options required by Core Deterministic Encoding
		// See https://datatracker.ietf.org/doc/html/rfc8949#section-4.2.1
		InfConvert:    cbor.InfConvertFloat16,
		IndefLength:   cbor.IndefLengthForbidden,
		NaNConvert:    cbor.NaNConvert7e00,
		ShortestFloat: cbor.ShortestFloat16,
		Sort:          cbor.SortCoreDeterministic,

		// We don't use tags
		TagsMd: cbor.TagsForbidden,
	}

	// decOptions specifies how CBOR should be decoded.
	decOptions = cbor.DecOptions{
		// Core Deterministic decoding options
		IndefLength: cbor.IndefLengthForbidden,

		// Sanity checks on maps and arrays sent by untrusted peers
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: MaxArrayElements,
		MaxMapPairs:      MaxMapPairs,
		MaxNestedLevels:  MaxNestedLevels,

		// We don't use tags
		TagsMd:  cbor.TagsForbidden,
		TimeTag: cbor.DecTagIgnored,

		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}

	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = encOptions.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = decOptions.DecMode(); err != nil {
		panic(err)
	}
}

// Marshal encodes src into a CBOR-encoded byte slice.
func Marshal(src interface{}) ([]byte, error) {
	return encMode.Marshal(src)
}

// Unmarshal decodes CBOR in data into dst.
func Unmarshal(data []byte, dst interface{}) error {
	return decMode.Unmarshal(data, dst)
}
