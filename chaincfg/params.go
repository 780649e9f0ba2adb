// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the network parameters this core needs in order
// to derive and encode keys and addresses for a Bitcoin-family chain: the
// BIP32 extended key version bytes and the address prefixes. It deliberately
// carries none of a full node's chain parameters (genesis block, difficulty
// rules, checkpoints, deployment schedule) since consensus validation is not
// this core's job.
package chaincfg

import "errors"

// ErrUnknownHDKeyID describes an error where the provided id for an
// extended key is not recognized as expected.
var ErrUnknownHDKeyID = errors.New("unknown hd private extended key bytes")

// HDKeyIDPair is a private/public extended key version byte pair, encoded
// as the 4-byte big-endian prefixes used in base58-encoded xprv/xpub style
// serialization (BIP32 §Serialization format).
type HDKeyIDPair struct {
	Priv [4]byte
	Pub  [4]byte
}

// Params defines a Bitcoin-family network's wallet-relevant parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// HDKeyID is the HD extended key version bytes for this network.
	HDKeyID HDKeyIDPair

	// HDCoinType is the BIP44 coin type used when this network's
	// parameters are selected for a derivation path.
	HDCoinType uint32

	// PubKeyHashAddrID is the identifier byte used for P2PKH addresses.
	PubKeyHashAddrID byte

	// ScriptHashAddrID is the identifier byte used for P2SH addresses.
	ScriptHashAddrID byte

	// Bech32HRPSegwit is the human-readable part used for
	// bech32/bech32m-encoded segwit addresses (P2WPKH, P2WSH, P2TR).
	Bech32HRPSegwit string
}

// MainNetParams defines the network parameters for the main Bitcoin-family
// production network.
var MainNetParams = Params{
	Name: "mainnet",
	HDKeyID: HDKeyIDPair{
		Priv: [4]byte{0x04, 0x88, 0xad, 0xe4}, // xprv
		Pub:  [4]byte{0x04, 0x88, 0xb2, 0x1e}, // xpub
	},
	HDCoinType:        0,
	PubKeyHashAddrID:  0x00,
	ScriptHashAddrID:  0x05,
	Bech32HRPSegwit:   "bc",
}

// TestNetParams defines the network parameters for the public test network.
var TestNetParams = Params{
	Name: "testnet",
	HDKeyID: HDKeyIDPair{
		Priv: [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
		Pub:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub
	},
	HDCoinType:        1,
	PubKeyHashAddrID:  0x6f,
	ScriptHashAddrID:  0xc4,
	Bech32HRPSegwit:   "tb",
}

// RegNetParams defines the network parameters for a local regression test
// network.
var RegNetParams = Params{
	Name: "regtest",
	HDKeyID: HDKeyIDPair{
		Priv: [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
		Pub:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub
	},
	HDCoinType:        1,
	PubKeyHashAddrID:  0x6f,
	ScriptHashAddrID:  0xc4,
	Bech32HRPSegwit:   "bcrt",
}

// SimNetParams defines the network parameters for a locally simulated
// network used by integration tests.
var SimNetParams = Params{
	Name: "simnet",
	HDKeyID: HDKeyIDPair{
		Priv: [4]byte{0x04, 0x20, 0xb9, 0x00}, // sprv
		Pub:  [4]byte{0x04, 0x20, 0xbd, 0x3a}, // spub
	},
	HDCoinType:        1,
	PubKeyHashAddrID:  0x3f,
	ScriptHashAddrID:  0x7e,
	Bech32HRPSegwit:   "sb",
}

// hdPrivToPubKeyIDs maps an HD private extended key version byte sequence to
// its corresponding public version byte sequence.
var hdPrivToPubKeyIDs = make(map[[4]byte][]byte)

func register(params *Params) {
	hdPrivToPubKeyIDs[params.HDKeyID.Priv] = params.HDKeyID.Pub[:]
}

func init() {
	register(&MainNetParams)
	register(&TestNetParams)
	register(&RegNetParams)
	register(&SimNetParams)
}

// HDPrivateKeyToPublicKeyID accepts a private hierarchical deterministic
// extended key id and returns the associated public key id. When the
// provided id is not registered, ErrUnknownHDKeyID is returned.
func HDPrivateKeyToPublicKeyID(id []byte) ([]byte, error) {
	if len(id) != 4 {
		return nil, ErrUnknownHDKeyID
	}

	var key [4]byte
	copy(key[:], id)
	pubBytes, ok := hdPrivToPubKeyIDs[key]
	if !ok {
		return nil, ErrUnknownHDKeyID
	}

	pubIDCopy := make([]byte, 4)
	copy(pubIDCopy, pubBytes)
	return pubIDCopy, nil
}
