// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hdkeychain_test

// References:
//   [BIP32]: BIP0032 - Hierarchical Deterministic Wallets
//   https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/opentxs-go/walletcore/chaincfg"
	"github.com/opentxs-go/walletcore/hdkeychain"
)

// TestBIP0032Vectors tests the vectors provided by [BIP32] to ensure the
// derivation works as intended.
func TestBIP0032Vectors(t *testing.T) {
	testVec1MasterHex := "000102030405060708090a0b0c0d0e0f"
	testVec2MasterHex := "fffcf9f6f3f0edeae7e4e1dedbd8d5d2cfccc9c6c3c0bdbab7b4b1aeaba8a5a29f9c999693908d8a8784817e7b7875726f6c696663605d5a5754514e4b484542"
	hkStart := uint32(0x80000000)

	tests := []struct {
		name     string
		master   string
		path     []uint32
		wantPub  string
		wantPriv string
		net      *chaincfg.Params
	}{
		{
			name:     "test vector 1 chain m",
			master:   testVec1MasterHex,
			path:     []uint32{},
			wantPub:  "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EHxoeTG",
			wantPriv: "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGByB3yWc",
			net:      &chaincfg.MainNetParams,
		},
		{
			name:     "test vector 1 chain m/0H",
			master:   testVec1MasterHex,
			path:     []uint32{hkStart},
			wantPub:  "xpub69GmQNHCKJbkH4WHGtBXeMZjvvhWKxTs3SSsgRqx1eMJLFjiXKcTfk1veJvjAuKXxBN5j7pgeL9Umsjoz68TMCqiwrR9cxfP4xcKBtxkb9d",
			wantPriv: "xprv9vHQzrkJUw3T4aRpAreXHDd1Nts1vVk1gDXGt3SLTJpKTTQZynJD7whSo354KRNtjV5GjEayekZxiicFPQqcTMTS2PZon5xTVvWsH8qAior",
			net:      &chaincfg.MainNetParams,
		},
		{
			name:     "test vector 1 chain m/0H/1",
			master:   testVec1MasterHex,
			path:     []uint32{hkStart, 1},
			wantPub:  "xpub6BEFPjMnr89vRYCeMWuSzF7iCtpFA2S1jtvnpy4FL5MCZcmpVV3W12fir9YpfEFGDjBCSbKsRhXdHneZUWudeDGwiLwfmVZD7hkEUDrELiV",
			wantPriv: "xprv9xEtzDpu1kbdD48BFVNSd7AyerykkZiANg1C2aedmjpDgpSfwwjFTEMEzrRdzjNKVQ22U7EVQER3nGJQXrEsqsZA1TDCWjcsajSNoPsNrd2",
			net:      &chaincfg.MainNetParams,
		},
		{
			name:     "test vector 1 chain m/0H/1/2H",
			master:   testVec1MasterHex,
			path:     []uint32{hkStart, 1, hkStart + 2},
			wantPub:  "xpub6DMFwjbJmTo7DakqdNELmY2gqksoXjYiv2Me624iEsmrSdWw8oYQV2Lqek1MQchf7352P38c1jzZd3tknUQy6UJXcJpiZTUSZa2JawRdUpx",
			wantPriv: "xprv9zMuYE4Qw6Ep16gNXLhLQQ5xHj3K8GpsYoS3Hdf6gYEsZqBnbGE9wE2MoTuxGUttXeqWPe1Y2k8utQ94ij7sMmsZg8gfNgiMvBYXTVu9ha6",
			net:      &chaincfg.MainNetParams,
		},
		{
			name:     "test vector 2 chain m",
			master:   testVec2MasterHex,
			path:     []uint32{},
			wantPub:  "xpub661MyMwAqRbcFW31YEwpkMuc5THy2PSt5bDMsktWQcFF8syAmRUapSCGu8ED9W6oDMSgv6Zz8idoc4a6mr8BDzTJY47LJhkJ8UB7WCzUQn6",
			wantPriv: "xprv9s21ZrQH143K31xYSDQpPDxsXRTUcvj2iNHm5NUtrGiGG5e2DtALGdso3pGz6ssrdK4PFmM8NSpSBHNqPqm55Qn3LqFtT2emdEXVYsu94ep",
			net:      &chaincfg.MainNetParams,
		},
		{
			name:     "test vector 2 chain m/0",
			master:   testVec2MasterHex,
			path:     []uint32{0},
			wantPub:  "xpub68ALFFUDaY6t35Rn6DcEnFUaDGyV8KViC2AU6WUYuUk2vQcN57pQbqXSnavAHZ7vcgaVRvyYQEd7qBAspsWbuFJsb89Lm4Q9JaMgoZG3wAa",
			wantPriv: "xprv9uAyqjwKkAYapbMJzC5ER7XqfF8zirmrpoEsJ84wM9D43cHDXaWA43CxwKGr5ujPDywqoPAfg3NubkBk7zx8MJ8j82yHPXKyoGVxnL9V1XT",
			net:      &chaincfg.MainNetParams,
		},
		{
			name:     "test vector 2 chain m/0/2147483647H",
			master:   testVec2MasterHex,
			path:     []uint32{0, hkStart + 2147483647},
			wantPub:  "xpub6AUeabxcoN1BhRp9xeaNxzYbcjVWTGNbDeZcvoNjRDK41BGPaTabdwTXg6Qw2pawbHbXdAGsVGgomrzbsqJtM3hRW6C3zXQWiKWRHKCVCVN",
			wantPriv: "xprv9wVJB6RixzStUwjgrd3Nbrbs4hf23oejrRe28Qy7rsn58NwF2vGM6993po1UohKnKJNE7np2WsX7Jzsu8RsReFWCvedH2mob8QidBdqPvsH",
			net:      &chaincfg.MainNetParams,
		},
	}

	for i, test := range tests {
		masterSeed, err := hex.DecodeString(test.master)
		if err != nil {
			t.Errorf("DecodeString #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}

		extKey, err := hdkeychain.NewMaster(masterSeed, test.net)
		if err != nil {
			t.Errorf("NewMaster #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}

		for _, childNum := range test.path {
			extKey, err = extKey.Child(childNum)
			if err != nil {
				t.Errorf("Child #%d (%s): unexpected error: %v", i, test.name, err)
				continue
			}
		}

		if extKey.Depth() != uint8(len(test.path)) {
			t.Errorf("Depth #%d (%s): mismatched depth -- want %d, got %d",
				i, test.name, len(test.path), extKey.Depth())
			continue
		}

		privStr, err := extKey.String()
		if err != nil {
			t.Errorf("String #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}
		if privStr != test.wantPriv {
			t.Errorf("String #%d (%s): mismatched serialized private "+
				"extended key -- want %s, got %s", i, test.name, test.wantPriv, privStr)
			continue
		}

		pubKey, err := extKey.Neuter()
		if err != nil {
			t.Errorf("Neuter #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}

		// Neuter is idempotent.
		pubKey, err = pubKey.Neuter()
		if err != nil {
			t.Errorf("Neuter #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}

		pubStr, err := pubKey.String()
		if err != nil {
			t.Errorf("String #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}
		if pubStr != test.wantPub {
			t.Errorf("String #%d (%s): mismatched serialized public "+
				"extended key -- want %s, got %s", i, test.name, test.wantPub, pubStr)
			continue
		}
	}
}

// TestPrivateDerivation ensures that deriving private keys works as
// intended.
func TestPrivateDerivation(t *testing.T) {
	tests := []struct {
		name     string
		master   string
		path     []uint32
		wantPriv string
	}{
		{
			name:     "test vector 1 chain m/0H/1/2H",
			master:   "000102030405060708090a0b0c0d0e0f",
			path:     []uint32{hdkeychain.HardenedKeyStart, 1, hdkeychain.HardenedKeyStart + 2},
			wantPriv: "xprv9zMuYE4Qw6Ep16gNXLhLQQ5xHj3K8GpsYoS3Hdf6gYEsZqBnbGE9wE2MoTuxGUttXeqWPe1Y2k8utQ94ij7sMmsZg8gfNgiMvBYXTVu9ha6",
		},
	}

	for i, test := range tests {
		masterSeed, err := hex.DecodeString(test.master)
		if err != nil {
			t.Errorf("DecodeString #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}

		extKey, err := hdkeychain.NewMaster(masterSeed, &chaincfg.MainNetParams)
		if err != nil {
			t.Errorf("NewMaster #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}

		for _, childNum := range test.path {
			extKey, err = extKey.Child(childNum)
			if err != nil {
				t.Errorf("Child #%d (%s): unexpected error: %v", i, test.name, err)
				continue
			}
		}

		privStr, err := extKey.String()
		if err != nil {
			t.Errorf("String #%d (%s): unexpected error: %v", i, test.name, err)
			continue
		}
		if privStr != test.wantPriv {
			t.Errorf("String #%d (%s): mismatched key -- want %s, got %s",
				i, test.name, test.wantPriv, privStr)
		}
	}
}

// TestPrivateKeyAndAddress ensures the private key, public key, and address
// accessors work as intended against a known extended key.
func TestPrivateKeyAndAddress(t *testing.T) {
	extKey, err := hdkeychain.NewKeyFromString(
		"xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGByB3yWc")
	if err != nil {
		t.Fatalf("NewKeyFromString: unexpected error: %v", err)
	}

	if !extKey.IsPrivate() {
		t.Fatal("IsPrivate: expected true for a decoded xprv")
	}

	privKey, err := extKey.ECPrivKey()
	if err != nil {
		t.Fatalf("ECPrivKey: unexpected error: %v", err)
	}
	if len(privKey.Serialize()) != 32 {
		t.Fatalf("ECPrivKey: unexpected serialized length: %d", len(privKey.Serialize()))
	}

	pubKey, err := extKey.ECPubKey()
	if err != nil {
		t.Fatalf("ECPubKey: unexpected error: %v", err)
	}
	if len(pubKey.SerializeCompressed()) != 33 {
		t.Fatalf("ECPubKey: unexpected serialized length: %d", len(pubKey.SerializeCompressed()))
	}

	addr, err := extKey.Address(&chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("Address: unexpected error: %v", err)
	}
	if addr.EncodeAddress() == "" {
		t.Fatal("Address: expected non-empty encoded address")
	}
}

// TestNet ensures the network related APIs work as intended.
func TestNet(t *testing.T) {
	extKey, err := hdkeychain.NewKeyFromString(
		"xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGByB3yWc")
	if err != nil {
		t.Fatalf("NewKeyFromString: unexpected error: %v", err)
	}

	if !extKey.IsForNet(&chaincfg.MainNetParams) {
		t.Fatal("IsForNet: expected true for mainnet")
	}

	extKey.SetNet(&chaincfg.TestNetParams)
	if !extKey.IsForNet(&chaincfg.TestNetParams) {
		t.Fatal("IsForNet: expected true for testnet after SetNet")
	}

	privStr, err := extKey.String()
	if err != nil {
		t.Fatalf("String: unexpected error: %v", err)
	}
	if privStr[:4] != "tprv" {
		t.Fatalf("String: expected tprv prefix after SetNet, got %s", privStr[:4])
	}
}

// TestErrors performs some negative tests for various invalid cases to
// ensure the errors are handled properly.
func TestErrors(t *testing.T) {
	net := &chaincfg.MainNetParams

	// Should get an error for seeds that are too short.
	_, err := hdkeychain.NewMaster(bytes.Repeat([]byte{0x00}, 15), net)
	if err != hdkeychain.ErrInvalidSeedLen {
		t.Errorf("NewMaster: mismatched error -- got: %v, want: %v",
			err, hdkeychain.ErrInvalidSeedLen)
	}

	// Should get an error for seeds that are too long.
	_, err = hdkeychain.NewMaster(bytes.Repeat([]byte{0x00}, 65), net)
	if err != hdkeychain.ErrInvalidSeedLen {
		t.Errorf("NewMaster: mismatched error -- got: %v, want: %v",
			err, hdkeychain.ErrInvalidSeedLen)
	}

	// Generate a new key and neuter it to a public extended key.
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	if err != nil {
		t.Fatalf("GenerateSeed: unexpected error: %v", err)
	}
	extKey, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		t.Fatalf("NewMaster: unexpected error: %v", err)
	}
	pubKey, err := extKey.Neuter()
	if err != nil {
		t.Fatalf("Neuter: unexpected error: %v", err)
	}

	// Deriving a hardened key from a public key should error.
	_, err = pubKey.Child(hdkeychain.HardenedKeyStart)
	if err != hdkeychain.ErrDeriveHardFromPublic {
		t.Errorf("Child: mismatched error -- got: %v, want: %v",
			err, hdkeychain.ErrDeriveHardFromPublic)
	}

	// NewKeyFromString failure tests.
	tests := []struct {
		name string
		key  string
		err  error
	}{
		{
			name: "invalid key length",
			key:  "xprv9s21ZrQH143K2JF8",
			err:  hdkeychain.ErrInvalidKeyLen,
		},
		{
			name: "bad checksum",
			key:  "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGByB3yWd",
			err:  hdkeychain.ErrBadChecksum,
		},
	}

	for i, test := range tests {
		_, err := hdkeychain.NewKeyFromString(test.key)
		if err != test.err {
			t.Errorf("NewKeyFromString #%d (%s): mismatched error -- "+
				"got: %v, want: %v", i, test.name, err, test.err)
		}
	}
}

// TestZeroedKey ensures that zeroing an extended key renders it unusable.
func TestZeroedKey(t *testing.T) {
	extKey, err := hdkeychain.NewKeyFromString(
		"xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGByB3yWc")
	if err != nil {
		t.Fatalf("NewKeyFromString: unexpected error: %v", err)
	}

	extKey.Zero()

	if _, err := extKey.String(); err != hdkeychain.ErrZeroedKey {
		t.Errorf("String: mismatched error -- got: %v, want: %v", err, hdkeychain.ErrZeroedKey)
	}
	if _, err := extKey.ECPrivKey(); err != hdkeychain.ErrZeroedKey {
		t.Errorf("ECPrivKey: mismatched error -- got: %v, want: %v", err, hdkeychain.ErrZeroedKey)
	}
}
