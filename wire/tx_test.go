// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

func TestNewMsgTxDefaults(t *testing.T) {
	tx := NewMsgTx()
	if tx.Version != TxVersion {
		t.Errorf("Version: got %d, want %d", tx.Version, TxVersion)
	}
	if len(tx.TxIn) != 0 || len(tx.TxOut) != 0 {
		t.Error("NewMsgTx: expected no inputs or outputs")
	}
	if tx.HasWitness() {
		t.Error("HasWitness: expected false on a fresh transaction")
	}
}

func TestAddTxInOut(t *testing.T) {
	tx := NewMsgTx()
	var hash chainhash.Hash
	hash[0] = 0x01
	tx.AddTxIn(NewTxIn(NewOutPoint(&hash, 0), nil))
	tx.AddTxOut(NewTxOut(5000, []byte{0x76, 0xa9}))

	if len(tx.TxIn) != 1 || len(tx.TxOut) != 1 {
		t.Fatalf("got %d inputs and %d outputs, want 1 and 1", len(tx.TxIn), len(tx.TxOut))
	}
	if tx.TxIn[0].Sequence != MaxTxInSequenceNum {
		t.Errorf("Sequence: got %#x, want %#x", tx.TxIn[0].Sequence, MaxTxInSequenceNum)
	}
}

func TestHasWitness(t *testing.T) {
	tx := NewMsgTx()
	var hash chainhash.Hash
	tx.AddTxIn(NewTxIn(NewOutPoint(&hash, 0), nil))
	if tx.HasWitness() {
		t.Fatal("HasWitness: expected false with no witness set")
	}
	tx.TxIn[0].Witness = TxWitness{[]byte{0x01}}
	if !tx.HasWitness() {
		t.Fatal("HasWitness: expected true once a witness stack is set")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	tx := NewMsgTx()
	var hash chainhash.Hash
	tx.AddTxIn(NewTxIn(NewOutPoint(&hash, 0), []byte{0xaa}))
	tx.AddTxOut(NewTxOut(1000, []byte{0xbb}))

	cpy := tx.Copy()
	cpy.TxIn[0].SignatureScript[0] = 0xff
	cpy.TxOut[0].PkScript[0] = 0xff
	cpy.TxOut[0].Value = 9999

	if tx.TxIn[0].SignatureScript[0] != 0xaa {
		t.Error("Copy: mutating the copy's scriptSig affected the original")
	}
	if tx.TxOut[0].PkScript[0] != 0xbb {
		t.Error("Copy: mutating the copy's pkScript affected the original")
	}
	if tx.TxOut[0].Value != 1000 {
		t.Error("Copy: mutating the copy's value affected the original")
	}
}

func TestBytesAndTxHashDeterministic(t *testing.T) {
	tx := NewMsgTx()
	var hash chainhash.Hash
	hash[0] = 0x02
	tx.AddTxIn(NewTxIn(NewOutPoint(&hash, 1), []byte{0x01, 0x02}))
	tx.AddTxOut(NewTxOut(42, []byte{0x03, 0x04}))

	b1, err := tx.Bytes()
	if err != nil {
		t.Fatalf("Bytes: unexpected error: %v", err)
	}
	b2, err := tx.Bytes()
	if err != nil {
		t.Fatalf("Bytes: unexpected error: %v", err)
	}
	if !bytes.Equal(b1, b2) {
		t.Fatal("Bytes: expected deterministic serialization")
	}

	if tx.TxHash() != tx.TxHash() {
		t.Fatal("TxHash: expected a stable hash across calls")
	}
}
