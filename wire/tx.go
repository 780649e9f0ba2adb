// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire defines the minimal Bitcoin-style transaction wire format this
// core needs to build, sign, and hash UTXO transactions. It is deliberately
// narrower than a full P2P wire package: there is no block, inv, or handshake
// message framing here, since this core never speaks the P2P protocol
// directly — it hands finished transactions to a chain collaborator.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// TxVersion is the current latest supported transaction version.
const TxVersion = 2

// MaxVarIntPayload is the maximum payload size, in bytes, for a variable
// length integer.
const MaxVarIntPayload = 9

// ErrMalformedStrFlag is returned when decoding fails because the input is
// truncated.
var ErrMalformedStrFlag = errors.New("malformed wire encoding")

// OutPoint defines a Bitcoin data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new Bitcoin transaction outpoint.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// TxIn defines a Bitcoin transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Witness          TxWitness
	Sequence         uint32
}

// TxWitness defines the witness for a TxIn. A witness is to be interpreted as
// a slice of byte slices, or a stack with one or many elements.
type TxWitness [][]byte

// NewTxIn returns a new Bitcoin transaction input with the provided previous
// outpoint point and signature script with a default sequence of
// MaxTxInSequenceNum.
func NewTxIn(prevOut *OutPoint, signatureScript []byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Sequence:         MaxTxInSequenceNum,
	}
}

// MaxTxInSequenceNum is the maximum sequence number the sequence field of a
// transaction input can be.
const MaxTxInSequenceNum uint32 = 0xffffffff

// TxOut defines a Bitcoin transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// NewTxOut returns a new Bitcoin transaction output with the provided
// transaction value and public key script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

// MsgTx represents a Bitcoin-style UTXO transaction. MsgTx is used to hand a
// newly signed transaction to a chain collaborator; it is also used to
// calculate the TxHash and, for segwit inputs, the BIP143 sighash preimage.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns a new Bitcoin transaction. The return instance has a default version of TxVersion and
// there are no transaction inputs or outputs. Also, the lock time is set to
// zero to indicate the transaction is valid immediately as opposed to some
// time in future.
func NewMsgTx() *MsgTx {
	return &MsgTx{
		Version: TxVersion,
		TxIn:    make([]*TxIn, 0, defaultTxInOutAlloc),
		TxOut:   make([]*TxOut, 0, defaultTxInOutAlloc),
	}
}

const defaultTxInOutAlloc = 8

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// HasWitness returns true if any of the inputs carry segwit witness data.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) > 0 {
			return true
		}
	}
	return false
}

// Copy creates a deep copy of a transaction so that the original does not get
// modified when the copy is manipulated, which is needed, among other places,
// when building the legacy sighash preimage (which blanks every other
// input's signature script).
func (msg *MsgTx) Copy() *MsgTx {
	newTx := &MsgTx{
		Version:  msg.Version,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for _, oldTxIn := range msg.TxIn {
		newTxIn := TxIn{
			PreviousOutPoint: oldTxIn.PreviousOutPoint,
			Sequence:         oldTxIn.Sequence,
		}
		if oldTxIn.SignatureScript != nil {
			newTxIn.SignatureScript = make([]byte, len(oldTxIn.SignatureScript))
			copy(newTxIn.SignatureScript, oldTxIn.SignatureScript)
		}
		if oldTxIn.Witness != nil {
			newTxIn.Witness = make(TxWitness, len(oldTxIn.Witness))
			for i, item := range oldTxIn.Witness {
				newTxIn.Witness[i] = append([]byte(nil), item...)
			}
		}
		newTx.TxIn = append(newTx.TxIn, &newTxIn)
	}

	for _, oldTxOut := range msg.TxOut {
		newTxOut := TxOut{Value: oldTxOut.Value}
		if oldTxOut.PkScript != nil {
			newTxOut.PkScript = make([]byte, len(oldTxOut.PkScript))
			copy(newTxOut.PkScript, oldTxOut.PkScript)
		}
		newTx.TxOut = append(newTx.TxOut, &newTxOut)
	}

	return newTx
}

// Serialize encodes the transaction to w using the legacy (non-witness) wire
// format, which is also what the legacy sighash digest is computed over.
func (msg *MsgTx) Serialize(w io.Writer) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(msg.Version))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	if err := writeVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeTxIn(w, ti); err != nil {
			return err
		}
	}

	if err := writeVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeTxOut(w, to); err != nil {
			return err
		}
	}

	binary.LittleEndian.PutUint32(buf[:], msg.LockTime)
	_, err := w.Write(buf[:])
	return err
}

// Bytes returns the serialized legacy-format transaction.
func (msg *MsgTx) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxHash generates the chainhash.Hash for the transaction, the double
// SHA-256 of its legacy serialization, matching the txid convention used
// across both legacy and segwit Bitcoin-family transactions.
func (msg *MsgTx) TxHash() chainhash.Hash {
	b, _ := msg.Bytes()
	return chainhash.HashH(b)
}

func writeTxIn(w io.Writer, ti *TxIn) error {
	if _, err := w.Write(ti.PreviousOutPoint.Hash[:]); err != nil {
		return err
	}
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], ti.PreviousOutPoint.Index)
	if _, err := w.Write(idx[:]); err != nil {
		return err
	}

	if err := writeVarBytes(w, ti.SignatureScript); err != nil {
		return err
	}

	var seq [4]byte
	binary.LittleEndian.PutUint32(seq[:], ti.Sequence)
	_, err := w.Write(seq[:])
	return err
}

func writeTxOut(w io.Writer, to *TxOut) error {
	var val [8]byte
	binary.LittleEndian.PutUint64(val[:], uint64(to.Value))
	if _, err := w.Write(val[:]); err != nil {
		return err
	}
	return writeVarBytes(w, to.PkScript)
}

// writeVarInt serializes val to w using the Bitcoin variable length integer
// encoding.
func writeVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// writeVarBytes serializes a variable length byte array to w, preceded by
// its length encoded as a variable length integer, mirroring the teacher's
// ReadVarBytes/WriteVarBytes wire convention.
func writeVarBytes(w io.Writer, data []byte) error {
	if err := writeVarInt(w, uint64(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}
