// Copyright (c) 2016-2017 The btcsuite developers
// Copyright (c) 2016-2017 The Lightning Network Developers
// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package gcs implements the Golomb-coded set compact filter a wallet tests
// its watched public-key hashes and script elements against, so it can tell
// which blocks are worth fetching in full without downloading every block's
// outputs. A filter is built by the chain collaborator from one block's
// spent/output scripts and published alongside a header chaining it to the
// previous block's filter; the wallet rebuilds the same SipHash key from the
// block hash and queries MatchAny with its own subaccounts' elements.
package gcs

import (
	"encoding/binary"
	"errors"
	"math"
	"math/bits"
	"sort"

	"github.com/aead/siphash"
	"github.com/decred/dcrd/chaincfg/chainhash"
)

// Inspired by https://github.com/rasky/gcs

var (
	// ErrNTooBig signifies that the filter can't handle N items.
	ErrNTooBig = errors.New("N does not fit in uint32")

	// ErrPTooBig signifies that the filter can't handle `1/2**P`
	// collision probability.
	ErrPTooBig = errors.New("P is too large")

	// ErrMTooSmall signifies an M of zero, which would divide by zero
	// when placing a hash into the filter's [0, N*M) range.
	ErrMTooSmall = errors.New("M must be positive")

	// ErrNoData signifies that an empty slice was passed.
	ErrNoData = errors.New("no data provided")

	// ErrMisserialized signifies a filter was misserialized and is missing the
	// N and/or P parameters of a serialized filter.
	ErrMisserialized = errors.New("misserialized filter")
)

// KeySize is the size of the byte array required for key material for the
// SipHash keyed hash function.
const KeySize = siphash.KeySize

// Filter describes an immutable compact filter built from a deduplicated set
// of data elements, queryable in a thread-safe manner (every method is
// read-only over its fields). The wire form is a Golomb-Rice coded
// bitstream; it omits N, P, and M, since the wallet's chain collaborator and
// the wallet agree on those out of band: N travels alongside the filter as a
// CompactSize prefix when serialized with NBytes, while P and M are
// chain-level constants the caller already knows (see Match/MatchAny's
// callers). The SipHash key is likewise never serialized — for a per-block
// filter it is derived fresh from the block hash each time.
type Filter struct {
	n         uint32
	p         uint8
	m         uint64
	modulusNM uint64
	data      []byte // Golomb-Rice coded bitstream; does not include N
}

// NewFilter builds a new GCS filter with a false-positive rate of 1/M,
// Golomb-Rice parameter P, key key, and membership for every unique []byte
// in data (duplicates are silently deduplicated before encoding, matching a
// set's semantics).
func NewFilter(P uint8, M uint64, key [KeySize]byte, data [][]byte) (*Filter, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	if P > 32 {
		return nil, ErrPTooBig
	}
	if M == 0 {
		return nil, ErrMTooSmall
	}

	unique := dedupe(data)
	if len(unique) > math.MaxInt32 {
		return nil, ErrNTooBig
	}

	f := &Filter{
		n: uint32(len(unique)),
		p: P,
		m: M,
	}
	f.modulusNM = uint64(f.n) * M

	// Place each element's hash in [0, N*M) and sort the result, so the
	// encoding loop below can delta-encode consecutive values.
	values := make([]uint64, 0, len(unique))
	for _, d := range unique {
		values = append(values, hashToRange(key, f.modulusNM, d))
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	var b bitWriter
	pMask := uint64(1)<<P - 1
	var lastValue uint64
	for _, v := range values {
		delta := v - lastValue
		lastValue = v

		quotient := delta >> P
		remainder := delta & pMask

		// Write the quotient in unary; the average should be around 1
		// (2 bits - 0b10).
		for quotient > 0 {
			b.writeOne()
			quotient--
		}
		b.writeZero()

		// Write the remainder as a big-endian integer in P bits.
		b.writeNBits(remainder, uint(P))
	}

	f.data = b.bytes
	return f, nil
}

// hashToRange places data's SipHash-2-4 digest into [0, modulus) using the
// high 64 bits of the 128-bit product hash*modulus, the multiply-and-shift
// reduction BIP158-style compact filters use in place of a modulo so the
// distribution stays close to uniform across the whole range.
func hashToRange(key [KeySize]byte, modulus uint64, data []byte) uint64 {
	hi, _ := bits.Mul64(siphash.Sum64(data, &key), modulus)
	return hi
}

// dedupe returns data with exact duplicate elements removed, preserving the
// first occurrence's order.
func dedupe(data [][]byte) [][]byte {
	seen := make(map[string]struct{}, len(data))
	out := make([][]byte, 0, len(data))
	for _, d := range data {
		k := string(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

// FromBytes deserializes a GCS filter from a known N, P, M, and serialized
// filter bitstream as returned by Bytes().
func FromBytes(N uint32, P uint8, M uint64, d []byte) (*Filter, error) {
	if P > 32 {
		return nil, ErrPTooBig
	}
	if M == 0 {
		return nil, ErrMTooSmall
	}
	return &Filter{
		n:         N,
		p:         P,
		m:         M,
		modulusNM: uint64(N) * M,
		data:      d,
	}, nil
}

// FromNBytes deserializes a GCS filter from a known P and M, and a
// serialized CompactSize(N) followed by the filter bitstream, as returned by
// NBytes().
func FromNBytes(P uint8, M uint64, d []byte) (*Filter, error) {
	n, consumed, err := decodeCompactSize(d)
	if err != nil {
		return nil, err
	}
	if n > math.MaxUint32 {
		return nil, ErrNTooBig
	}
	return FromBytes(uint32(n), P, M, d[consumed:])
}

// FromPBytes deserializes a GCS filter from a known N and M, and a
// serialized P followed by the filter bitstream, as returned by PBytes().
func FromPBytes(N uint32, M uint64, d []byte) (*Filter, error) {
	if len(d) < 1 {
		return nil, ErrMisserialized
	}
	return FromBytes(N, d[0], M, d[1:])
}

// FromNPBytes deserializes a GCS filter from a known M, and a serialized
// CompactSize(N), P, and filter bitstream, as returned by NPBytes().
func FromNPBytes(M uint64, d []byte) (*Filter, error) {
	n, consumed, err := decodeCompactSize(d)
	if err != nil {
		return nil, err
	}
	rest := d[consumed:]
	if len(rest) < 1 {
		return nil, ErrMisserialized
	}
	if n > math.MaxUint32 {
		return nil, ErrNTooBig
	}
	return FromBytes(uint32(n), rest[0], M, rest[1:])
}

// Bytes returns the filter's Golomb-Rice bitstream alone, without N or P
// (returned by separate methods) or the key used by SipHash.
func (f *Filter) Bytes() []byte {
	return f.data
}

// NBytes returns CompactSize(N) followed by the filter bitstream, which
// does not include P (returned by a separate method) or the key used by
// SipHash. This is the on-chain filter format named in the format this
// package targets: CompactSize(N) ‖ golomb_rice_bytes.
func (f *Filter) NBytes() []byte {
	out := encodeCompactSize(uint64(f.n))
	return append(out, f.data...)
}

// PBytes returns P followed by the filter bitstream, which does not include
// N (returned by a separate method) or the key used by SipHash.
func (f *Filter) PBytes() []byte {
	out := make([]byte, 1+len(f.data))
	out[0] = f.p
	copy(out[1:], f.data)
	return out
}

// NPBytes returns CompactSize(N), P, and the filter bitstream, which does
// not include the key used by SipHash.
func (f *Filter) NPBytes() []byte {
	out := encodeCompactSize(uint64(f.n))
	out = append(out, f.p)
	return append(out, f.data...)
}

// P returns the filter's Golomb-Rice coding parameter.
func (f *Filter) P() uint8 {
	return f.p
}

// M returns the filter's collision-probability denominator: a false-positive
// rate of 1/M.
func (f *Filter) M() uint64 {
	return f.m
}

// N returns the size of the data set used to build the filter.
func (f *Filter) N() uint32 {
	return f.n
}

// Match checks whether data is likely (within the filter's 1/M collision
// probability) a member of the element set the filter was built from.
func (f *Filter) Match(key [KeySize]byte, data []byte) bool {
	b := newBitReader(f.data)
	term := hashToRange(key, f.modulusNM, data)

	var lastValue uint64
	for lastValue < term {
		value, err := f.readFullUint64(&b)
		if err != nil {
			return false
		}

		value += lastValue
		if value == term {
			return true
		}
		lastValue = value
	}

	return false
}

// MatchAny checks whether any element of data is likely a member of the
// filter's set, the way a wallet tests all of one Subaccount's watched
// public-key hashes against a single block's filter in one pass rather than
// calling Match once per element.
func (f *Filter) MatchAny(key [KeySize]byte, data [][]byte) bool {
	if len(data) == 0 {
		return false
	}

	b := newBitReader(f.data)

	values := make([]uint64, 0, len(data))
	for _, d := range data {
		values = append(values, hashToRange(key, f.modulusNM, d))
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	// Zip down the filters, comparing values until we either run out of
	// values to compare in one of the filters or we reach a matching
	// value.
	var lastValue1, lastValue2 uint64
	lastValue2 = values[0]
	i := 1
	for lastValue1 != lastValue2 {
		switch {
		case lastValue1 > lastValue2:
			if i < len(values) {
				lastValue2 = values[i]
				i++
			} else {
				return false
			}
		case lastValue2 > lastValue1:
			value, err := f.readFullUint64(&b)
			if err != nil {
				return false
			}
			lastValue1 += value
		}
	}

	return true
}

// readFullUint64 reads a value represented by the sum of a unary multiple of
// 2**P and a big-endian P-bit remainder.
func (f *Filter) readFullUint64(b *bitReader) (uint64, error) {
	v, err := b.readUnary()
	if err != nil {
		return 0, err
	}

	rem, err := b.readNBits(uint(f.p))
	if err != nil {
		return 0, err
	}

	return v<<f.p + rem, nil
}

// Hash returns the double-SHA256 hash of the filter's serialized form
// (CompactSize(N) ‖ golomb bytes), following the BIP158 convention used
// across the BTC family this core targets.
func (f *Filter) Hash() chainhash.Hash {
	return chainhash.HashH(f.NBytes())
}

// MakeHeaderForFilter chains filter's hash onto prevHeader the way a block
// filter header commits to the entire filter chain up to and including this
// block. A nil prevHeader stands for the zero hash that seeds the chain at
// the genesis filter.
func MakeHeaderForFilter(filter *Filter, prevHeader *chainhash.Hash) chainhash.Hash {
	var prev chainhash.Hash
	if prevHeader != nil {
		prev = *prevHeader
	}

	filterHash := filter.Hash()
	buf := make([]byte, 2*chainhash.HashSize)
	copy(buf, filterHash[:])
	copy(buf[chainhash.HashSize:], prev[:])

	return chainhash.HashH(buf)
}

// encodeCompactSize encodes n as a Bitcoin-style CompactSize varint.
func encodeCompactSize(n uint64) []byte {
	switch {
	case n < 0xfd:
		return []byte{byte(n)}
	case n <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(n))
		return buf
	case n <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(n))
		return buf
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], n)
		return buf
	}
}

// decodeCompactSize decodes a Bitcoin-style CompactSize varint from the
// front of b, returning the value and the number of bytes it consumed.
func decodeCompactSize(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, ErrMisserialized
	}
	switch b[0] {
	case 0xfd:
		if len(b) < 3 {
			return 0, 0, ErrMisserialized
		}
		return uint64(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	case 0xfe:
		if len(b) < 5 {
			return 0, 0, ErrMisserialized
		}
		return uint64(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	case 0xff:
		if len(b) < 9 {
			return 0, 0, ErrMisserialized
		}
		return binary.LittleEndian.Uint64(b[1:9]), 9, nil
	default:
		return uint64(b[0]), 1, nil
	}
}
