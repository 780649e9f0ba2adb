// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mnemonic implements the BIP39 mnemonic engine (entropy/word
// round-trip and seed derivation) plus the PKT fifteen-word variant.
package mnemonic

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"sort"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/crypto/pbkdf2"
)

// ErrInvalidInput describes an error in which a mnemonic, entropy length, or
// word count is malformed, per the core's ErrInvalidInput error kind.
var ErrInvalidInput = errors.New("mnemonic: invalid input")

// ErrUnsupportedLanguage describes an error in which the requested
// dictionary language has no wordlist wired in.
var ErrUnsupportedLanguage = errors.New("mnemonic: unsupported language")

// Language identifies a mnemonic dictionary.
type Language int

// English is the only dictionary currently wired in, sourced from
// tyler-smith/go-bip39's wordlists package rather than hand-copied.
const English Language = iota

func wordlistFor(lang Language) ([]string, error) {
	switch lang {
	case English:
		return wordlists.English, nil
	default:
		return nil, ErrUnsupportedLanguage
	}
}

// validEntropyBitLens are the BIP39-allowed entropy lengths in bits, mapping
// to 12/15/18/21/24 word mnemonics respectively.
var validEntropyBitLens = map[int]bool{128: true, 160: true, 192: true, 224: true, 256: true}

// EntropyToWords converts raw entropy (16, 20, 24, 28, or 32 bytes) into its
// BIP39 mnemonic word sequence for the given language.
func EntropyToWords(entropy []byte, lang Language) ([]string, error) {
	bitLen := len(entropy) * 8
	if !validEntropyBitLens[bitLen] {
		return nil, ErrInvalidInput
	}

	wordlist, err := wordlistFor(lang)
	if err != nil {
		return nil, err
	}

	checksumLen := bitLen / 32
	hash := sha256.Sum256(entropy)

	// Concatenate entropy bits with the top checksumLen bits of the
	// SHA-256 digest, then slice into 11-bit groups.
	bits := make([]byte, 0, bitLen+checksumLen)
	for _, b := range entropy {
		bits = appendByteBits(bits, b)
	}
	for i := 0; i < checksumLen; i++ {
		byteIdx := i / 8
		bitIdx := uint(7 - i%8)
		bits = append(bits, (hash[byteIdx]>>bitIdx)&1)
	}

	numWords := len(bits) / 11
	words := make([]string, numWords)
	for i := 0; i < numWords; i++ {
		var idx int
		for j := 0; j < 11; j++ {
			idx = idx<<1 | int(bits[i*11+j])
		}
		words[i] = wordlist[idx]
	}
	return words, nil
}

// appendByteBits appends the 8 bits of b, MSB first, to bits.
func appendByteBits(bits []byte, b byte) []byte {
	for i := 7; i >= 0; i-- {
		bits = append(bits, (b>>uint(i))&1)
	}
	return bits
}

// validWordCounts are the BIP39-allowed mnemonic lengths.
var validWordCounts = map[int]bool{12: true, 15: true, 18: true, 21: true, 24: true}

// WordsToSeed derives the 64-byte BIP39 seed from a mnemonic and optional
// passphrase via PBKDF2-HMAC-SHA512 with 2048 iterations and salt
// "mnemonic"+passphrase. Unknown words in the mnemonic are dropped rather
// than rejected, matching existing behavior (see the core's open question on
// this point); word count must still land in the valid set after dropping.
func WordsToSeed(words []string, lang Language, passphrase string) ([]byte, error) {
	wordlist, err := wordlistFor(lang)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(wordlist))
	for _, w := range wordlist {
		known[w] = true
	}

	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if known[w] {
			filtered = append(filtered, w)
		}
	}
	if !validWordCounts[len(filtered)] {
		return nil, ErrInvalidInput
	}

	mnemonic := strings.Join(filtered, " ")
	salt := "mnemonic" + passphrase
	return pbkdf2.Key([]byte(mnemonic), []byte(salt), 2048, 64, sha512.New), nil
}

// GetSuggestions returns every dictionary word beginning with prefix, for
// autocomplete. An empty prefix yields an empty slice, not the whole
// dictionary.
func GetSuggestions(lang Language, prefix string) ([]string, error) {
	if prefix == "" {
		return nil, nil
	}

	wordlist, err := wordlistFor(lang)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, w := range wordlist {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out, nil
}
