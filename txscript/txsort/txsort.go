// Copyright (c) 2015 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txsort provides the canonical transaction sorting described in
// BIP0069.
//
// References:
//
//	[BIP69]: BIP0069 - Lexicographical Indexing of Transaction Inputs and
//	Outputs
//	https://github.com/bitcoin/bips/blob/master/bip-0069.mediawiki
package txsort

import (
	"bytes"
	"sort"

	"github.com/opentxs-go/walletcore/wire"
)

// InPlaceSort modifies the passed transaction's inputs and outputs to be in
// the canonical order described in BIP0069: inputs ordered by previous
// outpoint (txid then output index), outputs ordered by value then pkScript
// bytes.
func InPlaceSort(tx *wire.MsgTx) {
	sort.Sort(sortableInputSlice(tx.TxIn))
	sort.Sort(sortableOutputSlice(tx.TxOut))
}

// Sort returns a copy of the passed transaction whose inputs and outputs are
// in the canonical order described in BIP0069. The passed transaction is not
// modified.
func Sort(tx *wire.MsgTx) *wire.MsgTx {
	txCopy := tx.Copy()
	InPlaceSort(txCopy)
	return txCopy
}

// IsSorted returns whether or not the passed transaction's inputs and
// outputs are already in the canonical order.
func IsSorted(tx *wire.MsgTx) bool {
	if !sort.IsSorted(sortableInputSlice(tx.TxIn)) {
		return false
	}
	return sort.IsSorted(sortableOutputSlice(tx.TxOut))
}

type sortableInputSlice []*wire.TxIn

func (s sortableInputSlice) Len() int { return len(s) }
func (s sortableInputSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortableInputSlice) Less(i, j int) bool {
	a, b := &s[i].PreviousOutPoint, &s[j].PreviousOutPoint
	if a.Hash != b.Hash {
		// Txids compare in their displayed, byte-reversed order.
		for k := len(a.Hash) - 1; k >= 0; k-- {
			if a.Hash[k] != b.Hash[k] {
				return a.Hash[k] < b.Hash[k]
			}
		}
	}
	return a.Index < b.Index
}

type sortableOutputSlice []*wire.TxOut

func (s sortableOutputSlice) Len() int { return len(s) }
func (s sortableOutputSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s sortableOutputSlice) Less(i, j int) bool {
	if s[i].Value != s[j].Value {
		return s[i].Value < s[j].Value
	}
	return bytes.Compare(s[i].PkScript, s[j].PkScript) < 0
}
