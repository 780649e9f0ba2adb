// Copyright (c) 2016-2017 The btcsuite developers
// Copyright (c) 2018 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gcs

import (
	"bytes"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

var testKey = [KeySize]byte{}

// testM mirrors the BIP158 basic filter's collision probability constant.
const testM = 784931

func TestMatchHitAndMiss(t *testing.T) {
	data := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}

	if !f.Match(testKey, []byte("b")) {
		t.Error("Match: expected \"b\" to be reported present")
	}
	if f.Match(testKey, []byte("d")) {
		t.Error("Match: expected \"d\" to be reported absent")
	}
}

func TestMatchAny(t *testing.T) {
	data := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}

	if !f.MatchAny(testKey, [][]byte{[]byte("z"), []byte("c")}) {
		t.Error("MatchAny: expected a hit from the overlapping element")
	}
	if f.MatchAny(testKey, [][]byte{[]byte("x"), []byte("y")}) {
		t.Error("MatchAny: expected no hit when nothing overlaps")
	}
}

func TestNewFilterDeduplicatesElements(t *testing.T) {
	data := [][]byte{[]byte("a"), []byte("a"), []byte("b")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}
	if f.N() != 2 {
		t.Fatalf("N: got %d, want 2 after deduplicating a repeated element", f.N())
	}
}

func TestBytesRoundTrip(t *testing.T) {
	data := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}

	raw := f.NPBytes()
	f2, err := FromNPBytes(testM, raw)
	if err != nil {
		t.Fatalf("FromNPBytes: unexpected error: %v", err)
	}
	if !f2.Match(testKey, []byte("a")) {
		t.Error("FromNPBytes: round-tripped filter lost a member")
	}
	if f2.N() != f.N() || f2.P() != f.P() {
		t.Errorf("FromNPBytes: N/P mismatch: got (%d,%d), want (%d,%d)", f2.N(), f2.P(), f.N(), f.P())
	}
}

func TestNBytesUsesCompactSizePrefix(t *testing.T) {
	// A filter with fewer than 0xfd elements must serialize N as a single
	// byte, per the CompactSize(N) ‖ golomb_rice_bytes wire format.
	data := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}
	nb := f.NBytes()
	if len(nb) == 0 || nb[0] != byte(f.N()) {
		t.Fatalf("NBytes: expected a single-byte CompactSize prefix equal to N, got %x", nb[:1])
	}
	if !bytes.Equal(nb[1:], f.Bytes()) {
		t.Fatal("NBytes: expected the remainder to equal Bytes()")
	}
}

func TestNewFilterRejectsEmptyData(t *testing.T) {
	if _, err := NewFilter(19, testM, testKey, nil); err != ErrNoData {
		t.Fatalf("NewFilter: got %v, want ErrNoData", err)
	}
}

func TestNewFilterRejectsTooLargeP(t *testing.T) {
	if _, err := NewFilter(33, testM, testKey, [][]byte{[]byte("a")}); err != ErrPTooBig {
		t.Fatalf("NewFilter: got %v, want ErrPTooBig", err)
	}
}

func TestNewFilterRejectsZeroM(t *testing.T) {
	if _, err := NewFilter(19, 0, testKey, [][]byte{[]byte("a")}); err != ErrMTooSmall {
		t.Fatalf("NewFilter: got %v, want ErrMTooSmall", err)
	}
}

func TestHeaderChaining(t *testing.T) {
	data := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}

	h1 := MakeHeaderForFilter(f, nil)
	h2 := MakeHeaderForFilter(f, &h1)
	if h1 == h2 {
		t.Error("MakeHeaderForFilter: expected chaining a non-nil previous header to change the result")
	}
}

func TestHeaderChainingNilAndZeroPreviousHeaderMatch(t *testing.T) {
	data := [][]byte{[]byte("a")}
	f, err := NewFilter(19, testM, testKey, data)
	if err != nil {
		t.Fatalf("NewFilter: unexpected error: %v", err)
	}

	var zero chainhash.Hash
	hNil := MakeHeaderForFilter(f, nil)
	hZero := MakeHeaderForFilter(f, &zero)
	if hNil != hZero {
		t.Fatal("MakeHeaderForFilter: a nil previous header should behave like an explicit zero hash")
	}
}
