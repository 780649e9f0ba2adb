// Copyright (c) 2015 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsort

import (
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"

	"github.com/opentxs-go/walletcore/wire"
)

func outpointHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func unsortedTx() *wire.MsgTx {
	tx := wire.NewMsgTx()
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(outpointHashPtr(2), 0), nil))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(outpointHashPtr(1), 1), nil))
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(outpointHashPtr(1), 0), nil))
	tx.AddTxOut(wire.NewTxOut(500, []byte{0x02}))
	tx.AddTxOut(wire.NewTxOut(100, []byte{0x01}))
	tx.AddTxOut(wire.NewTxOut(100, []byte{0x00}))
	return tx
}

func outpointHashPtr(b byte) *chainhash.Hash {
	h := outpointHash(b)
	return &h
}

func TestIsSortedFalseForUnsortedTx(t *testing.T) {
	tx := unsortedTx()
	if IsSorted(tx) {
		t.Fatal("IsSorted: expected false for an unsorted transaction")
	}
}

func TestInPlaceSortOrdersInputsAndOutputs(t *testing.T) {
	tx := unsortedTx()
	InPlaceSort(tx)

	if !IsSorted(tx) {
		t.Fatal("InPlaceSort: result is not reported as sorted")
	}

	for i := 0; i < len(tx.TxIn)-1; i++ {
		a, b := tx.TxIn[i].PreviousOutPoint, tx.TxIn[i+1].PreviousOutPoint
		if a.Hash == b.Hash {
			if a.Index > b.Index {
				t.Fatalf("inputs %d,%d out of order on index: %d > %d", i, i+1, a.Index, b.Index)
			}
			continue
		}
		if a.Hash[0] > b.Hash[0] {
			t.Fatalf("inputs %d,%d out of order on hash", i, i+1)
		}
	}

	for i := 0; i < len(tx.TxOut)-1; i++ {
		if tx.TxOut[i].Value > tx.TxOut[i+1].Value {
			t.Fatalf("outputs %d,%d out of order on value", i, i+1)
		}
	}
}

func TestSortDoesNotMutateOriginal(t *testing.T) {
	tx := unsortedTx()
	origFirst := tx.TxIn[0].PreviousOutPoint

	sorted := Sort(tx)
	if !IsSorted(sorted) {
		t.Fatal("Sort: result is not sorted")
	}
	if tx.TxIn[0].PreviousOutPoint != origFirst {
		t.Fatal("Sort: mutated the original transaction's input order")
	}
}
