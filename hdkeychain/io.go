// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hdkeychain

import (
	"encoding/binary"

	"github.com/EXCCoin/base58"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/opentxs-go/walletcore/chaincfg"
)

func base58Encode(b []byte) string {
	return base58.Encode(b)
}

// NewKeyFromString returns a new extended key instance from a base58-encoded
// extended key.
func NewKeyFromString(key string) (*ExtendedKey, error) {
	decoded := base58.Decode(key)
	if len(decoded) != serializedKeyLen+4 {
		return nil, ErrInvalidKeyLen
	}

	payload := decoded[:len(decoded)-4]
	checksum := decoded[len(decoded)-4:]
	expectedChecksum := chainhash.HashB(chainhash.HashB(payload))[:4]
	for i := range checksum {
		if checksum[i] != expectedChecksum[i] {
			return nil, ErrBadChecksum
		}
	}

	var version [4]byte
	copy(version[:], payload[0:4])
	depth := payload[4:5][0]
	parentFP := payload[5:9]
	childNum := binary.BigEndian.Uint32(payload[9:13])
	chainCode := payload[13:45]
	keyData := payload[45:78]

	isPrivate := version == chaincfg.MainNetParams.HDKeyID.Priv ||
		version == chaincfg.TestNetParams.HDKeyID.Priv ||
		version == chaincfg.RegNetParams.HDKeyID.Priv ||
		version == chaincfg.SimNetParams.HDKeyID.Priv

	var privVer, pubVer [4]byte
	if isPrivate {
		privVer = version
		pubID, err := chaincfg.HDPrivateKeyToPublicKeyID(version[:])
		if err != nil {
			return nil, chaincfg.ErrUnknownHDKeyID
		}
		copy(pubVer[:], pubID)

		if keyData[0] != 0x00 {
			return nil, ErrInvalidKeyLen
		}
		keyData = keyData[1:]
	} else {
		pubVer = version
		found := false
		for _, params := range []*chaincfg.Params{&chaincfg.MainNetParams,
			&chaincfg.TestNetParams, &chaincfg.RegNetParams, &chaincfg.SimNetParams} {
			if params.HDKeyID.Pub == version {
				privVer = params.HDKeyID.Priv
				found = true
				break
			}
		}
		if !found {
			return nil, chaincfg.ErrUnknownHDKeyID
		}
	}

	return NewExtendedKey(privVer, pubVer, keyData, chainCode, parentFP, depth,
		childNum, isPrivate), nil
}
