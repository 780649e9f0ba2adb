// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnemonic

import (
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

// ErrUnsupportedPKTVersion describes an error in which a PKT mnemonic's
// 4-bit version field is not the only version this core understands (0).
var ErrUnsupportedPKTVersion = errors.New("mnemonic: unsupported pkt version")

const pktWordCount = 15

// pktPayloadBytes is the size of the big-integer payload packed from the
// fifteen 11-bit word indices (15*11 = 165 bits, rounded up to 21 bytes).
const pktPayloadBytes = 21

// WordsToPKTPayload converts a 15-word PKT mnemonic into its 21-byte
// payload, validating the 4-bit version (must be 0) and 8-bit Blake2b-256
// checksum. If the payload's encryption flag is set, the trailing 19 bytes
// are XOR-decrypted in place using an Argon2id-derived key from passphrase.
//
// Payload layout (LSB-first bit packing of the word indices into a 21-byte
// big integer): byte 0 holds the 4-bit version in its low nibble and the
// encryption flag in bit 4 (bits 5-7 are not read), byte 1 holds the 8-bit
// checksum, and bytes 2-20 hold the 19-byte body.
func WordsToPKTPayload(words []string, lang Language, passphrase string) ([]byte, error) {
	if len(words) != pktWordCount {
		return nil, ErrInvalidInput
	}

	wordlist, err := wordlistFor(lang)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(wordlist))
	for i, w := range wordlist {
		index[w] = i
	}

	// Pack fifteen 11-bit word indices, LSB first, into a 165-bit value
	// stored across 21 bytes.
	bits := make([]byte, pktWordCount*11)
	for i, w := range words {
		idx, ok := index[w]
		if !ok {
			return nil, ErrInvalidInput
		}
		for j := 0; j < 11; j++ {
			bits[i*11+j] = byte((idx >> uint(j)) & 1)
		}
	}

	payload := make([]byte, pktPayloadBytes)
	for i, bit := range bits {
		if bit == 0 {
			continue
		}
		payload[i/8] |= 1 << uint(i%8)
	}

	version := payload[0] & 0x0f
	if version != 0 {
		return nil, ErrUnsupportedPKTVersion
	}
	encrypted := payload[0]&0x10 != 0
	wantChecksum := payload[1]

	body := payload[2:]
	gotChecksum := blake2b256Sum(body)[0]
	if gotChecksum != wantChecksum {
		return nil, ErrInvalidInput
	}

	if encrypted {
		key := argon2.IDKey([]byte(passphrase), []byte("pkt-mnemonic"), 1, 64*1024, 4, uint32(len(body)))
		for i := range body {
			body[i] ^= key[i]
		}
	}

	return payload, nil
}

func blake2b256Sum(b []byte) []byte {
	sum := blake2b.Sum256(b)
	return sum[:]
}
