// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keyutil provides the small set of key- and address-related helpers
// shared across this core: the HASH160 digest used throughout Bitcoin-family
// script templates, base58check encode/decode, and a minimal P2PKH address
// type. It consolidates what the teacher split across dcrutil/wif.go and
// exccutil/hash160.go into one narrow package scoped to what this core
// actually needs (no WIF private key import/export, since private key
// material never leaves the MasterSecret gate in cleartext form).
package keyutil

import (
	"crypto/sha256"
	"errors"

	"github.com/EXCCoin/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required for HASH160
)

// Hash160 calculates the hash RIPEMD160(SHA256(b)), the digest used by
// pay-to-pubkey-hash and pay-to-script-hash scripts.
func Hash160(buf []byte) []byte {
	sha := sha256.Sum256(buf)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// ErrChecksumMismatch describes an error where decoding a base58check string
// failed because the checksum does not match the payload.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// ErrMalformedInput describes an error where decoding a base58check string
// failed because the input is too short to carry a version byte and
// checksum.
var ErrMalformedInput = errors.New("malformed base58check input")

func checksum(input []byte) (cksum [4]byte) {
	h := sha256.Sum256(input)
	h2 := sha256.Sum256(h[:])
	copy(cksum[:], h2[:4])
	return
}

// Base58CheckEncode prepends a version byte to the payload, appends a
// double-SHA256 checksum, and base58-encodes the result — the encoding used
// for legacy addresses and, with BIP32's own 4-byte version, extended keys.
func Base58CheckEncode(payload []byte, version byte) string {
	b := make([]byte, 0, 1+len(payload)+4)
	b = append(b, version)
	b = append(b, payload...)
	cksum := checksum(b)
	b = append(b, cksum[:]...)
	return base58.Encode(b)
}

// Base58CheckDecode decodes a base58check-encoded string, verifies the
// checksum, and returns the payload (without the leading version byte) and
// the version byte.
func Base58CheckDecode(s string) (payload []byte, version byte, err error) {
	decoded := base58.Decode(s)
	if len(decoded) < 5 {
		return nil, 0, ErrMalformedInput
	}

	version = decoded[0]
	var cksum [4]byte
	copy(cksum[:], decoded[len(decoded)-4:])
	payload = decoded[1 : len(decoded)-4]
	if checksum(decoded[:len(decoded)-4]) != cksum {
		return nil, 0, ErrChecksumMismatch
	}
	return payload, version, nil
}

// Address is satisfied by every address type this core can produce.
type Address interface {
	EncodeAddress() string
	Hash() []byte
}

// AddressPubKeyHash represents a Bitcoin-family pay-to-pubkey-hash address.
type AddressPubKeyHash struct {
	hash    [20]byte
	netID   byte
}

// NewAddressPubKeyHash returns an address that represents a payment
// destination of the 20-byte HASH160 of a public key, encoded for the given
// network's PubKeyHashAddrID.
func NewAddressPubKeyHash(pkHash []byte, netID byte) (*AddressPubKeyHash, error) {
	if len(pkHash) != 20 {
		return nil, errors.New("keyutil: pubkey hash must be 20 bytes")
	}
	a := &AddressPubKeyHash{netID: netID}
	copy(a.hash[:], pkHash)
	return a, nil
}

// EncodeAddress returns the base58check-encoded string form of the address.
func (a *AddressPubKeyHash) EncodeAddress() string {
	return Base58CheckEncode(a.hash[:], a.netID)
}

// Hash returns the 20-byte public key hash encoded by the address.
func (a *AddressPubKeyHash) Hash() []byte {
	h := make([]byte, 20)
	copy(h, a.hash[:])
	return h
}

// String satisfies fmt.Stringer.
func (a *AddressPubKeyHash) String() string {
	return a.EncodeAddress()
}
