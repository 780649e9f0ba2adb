// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keyutil

import "testing"

func TestHash160KnownVector(t *testing.T) {
	// HASH160("") is a commonly cited test vector for RIPEMD160(SHA256(x)).
	got := Hash160(nil)
	want := []byte{
		0xb4, 0x72, 0xa2, 0x66, 0xd0, 0xbd, 0x89, 0xc1, 0x37, 0x06,
		0xa4, 0x13, 0x2c, 0xcf, 0xb1, 0x6f, 0x7c, 0x3b, 0x9f, 0xcb,
	}
	if len(got) != len(want) {
		t.Fatalf("Hash160: got length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Hash160: got %x, want %x", got, want)
		}
	}
}

func TestBase58CheckRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	encoded := Base58CheckEncode(payload, 0x1e)

	decoded, version, err := Base58CheckDecode(encoded)
	if err != nil {
		t.Fatalf("Base58CheckDecode: unexpected error: %v", err)
	}
	if version != 0x1e {
		t.Fatalf("Base58CheckDecode: got version %#x, want %#x", version, 0x1e)
	}
	if len(decoded) != len(payload) {
		t.Fatalf("Base58CheckDecode: got length %d, want %d", len(decoded), len(payload))
	}
	for i := range payload {
		if decoded[i] != payload[i] {
			t.Fatalf("Base58CheckDecode: payload mismatch at %d: got %x, want %x", i, decoded[i], payload[i])
		}
	}
}

func TestBase58CheckDecodeRejectsBadChecksum(t *testing.T) {
	encoded := Base58CheckEncode([]byte{1, 2, 3}, 0x00)
	tampered := []byte(encoded)
	tampered[0]++
	if _, _, err := Base58CheckDecode(string(tampered)); err == nil {
		t.Fatal("Base58CheckDecode: expected an error for a tampered string")
	}
}

func TestAddressPubKeyHashRejectsWrongLength(t *testing.T) {
	if _, err := NewAddressPubKeyHash([]byte{1, 2, 3}, 0x00); err == nil {
		t.Fatal("NewAddressPubKeyHash: expected an error for a non-20-byte hash")
	}
}

func TestAddressPubKeyHashEncodeAddress(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}
	addr, err := NewAddressPubKeyHash(hash, 0x1e)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash: unexpected error: %v", err)
	}
	if addr.String() != addr.EncodeAddress() {
		t.Fatal("String: expected String() to match EncodeAddress()")
	}
	if len(addr.Hash()) != 20 {
		t.Fatalf("Hash: got length %d, want 20", len(addr.Hash()))
	}
}
