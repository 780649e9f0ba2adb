// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyutil

import (
	"errors"

	"github.com/decred/dcrd/bech32"
)

// ErrInvalidSegwitVersion describes an error where a segwit program's
// witness version is outside the valid range of 0-16.
var ErrInvalidSegwitVersion = errors.New("keyutil: invalid segwit witness version")

// AddressSegwit represents a segwit (v0 through v16) output as a bech32 or
// bech32m address, per BIP173/BIP350.
type AddressSegwit struct {
	hrp     string
	version byte
	program []byte
}

// NewAddressSegwit returns a new segwit address for the given witness
// version and program, encoded with the passed human-readable part.
func NewAddressSegwit(hrp string, version byte, program []byte) (*AddressSegwit, error) {
	if version > 16 {
		return nil, ErrInvalidSegwitVersion
	}
	if len(program) < 2 || len(program) > 40 {
		return nil, errors.New("keyutil: invalid segwit program length")
	}
	a := &AddressSegwit{hrp: hrp, version: version}
	a.program = make([]byte, len(program))
	copy(a.program, program)
	return a, nil
}

// EncodeAddress returns the bech32 (witness v0) or bech32m (witness v1+)
// encoded string form of the address, per BIP173/BIP350.
func (a *AddressSegwit) EncodeAddress() string {
	converted, err := bech32.ConvertBits(a.program, 8, 5, true)
	if err != nil {
		return ""
	}
	data := make([]byte, 0, len(converted)+1)
	data = append(data, a.version)
	data = append(data, converted...)

	var encoded string
	if a.version == 0 {
		encoded, err = bech32.Encode(a.hrp, data)
	} else {
		encoded, err = bech32.EncodeM(a.hrp, data)
	}
	if err != nil {
		return ""
	}
	return encoded
}

// Hash returns the witness program encoded by the address.
func (a *AddressSegwit) Hash() []byte {
	h := make([]byte, len(a.program))
	copy(h, a.program)
	return h
}

// Version returns the address's witness version.
func (a *AddressSegwit) Version() byte {
	return a.version
}

// String satisfies fmt.Stringer.
func (a *AddressSegwit) String() string {
	return a.EncodeAddress()
}
