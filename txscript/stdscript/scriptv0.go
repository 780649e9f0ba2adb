// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stdscript

import (
	"errors"
	"fmt"

	"github.com/opentxs-go/walletcore/txscript"
)

// MaxDataCarrierSize is the maximum number of bytes allowed in pushed data to
// be considered a standard provably pruneable nulldata script.
const MaxDataCarrierSize = 80

var (
	// ErrTooManyRequiredSigs is returned when a multisig script is requested
	// with more required signatures than supplied public keys.
	ErrTooManyRequiredSigs = errors.New("too many required signatures")

	// ErrPubKeyType is returned when a multisig script is requested with a
	// public key that is not strictly encoded in compressed form.
	ErrPubKeyType = errors.New("unsupported public key type")

	// ErrTooMuchNullData is returned when a null data script is requested
	// with more data than MaxDataCarrierSize allows.
	ErrTooMuchNullData = errors.New("too much data for a null data script")
)

// ExtractCompressedPubKey extracts a compressed public key from the passed
// script if it is a standard pay-to-compressed-secp256k1-pubkey script. It
// returns nil otherwise.
func ExtractCompressedPubKey(script []byte) []byte {
	// A pay-to-compressed-pubkey script is of the form:
	//  OP_DATA_33 <33-byte compressed pubkey> OP_CHECKSIG
	if len(script) == 35 &&
		script[34] == txscript.OP_CHECKSIG &&
		script[0] == txscript.OP_DATA_33 &&
		(script[1] == 0x02 || script[1] == 0x03) {

		return script[1:34]
	}
	return nil
}

// ExtractUncompressedPubKey extracts an uncompressed public key from the
// passed script if it is a standard pay-to-uncompressed-secp256k1-pubkey
// script. It returns nil otherwise.
func ExtractUncompressedPubKey(script []byte) []byte {
	// A pay-to-uncompressed-pubkey script is of the form:
	//  OP_DATA_65 <65-byte uncompressed pubkey> OP_CHECKSIG
	if len(script) == 67 &&
		script[66] == txscript.OP_CHECKSIG &&
		script[0] == txscript.OP_DATA_65 &&
		script[1] == 0x04 {

		return script[1:66]
	}
	return nil
}

// ExtractPubKey extracts either a compressed or uncompressed public key from
// the passed script if it is a standard pay-to-pubkey script of either form.
// It returns nil otherwise.
func ExtractPubKey(script []byte) []byte {
	if pubKey := ExtractCompressedPubKey(script); pubKey != nil {
		return pubKey
	}
	return ExtractUncompressedPubKey(script)
}

// IsPubKeyScript returns whether or not the passed script is a standard
// pay-to-pubkey script, compressed or uncompressed.
func IsPubKeyScript(script []byte) bool {
	return ExtractPubKey(script) != nil
}

// ExtractPubKeyHash extracts the public key hash from the passed script if it
// is a standard pay-to-pubkey-hash script. It returns nil otherwise.
func ExtractPubKeyHash(script []byte) []byte {
	// A pay-to-pubkey-hash script is of the form:
	//  OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
	if len(script) == 25 &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG {

		return script[3:23]
	}
	return nil
}

// IsPubKeyHashScript returns whether or not the passed script is a standard
// pay-to-pubkey-hash script.
func IsPubKeyHashScript(script []byte) bool {
	return ExtractPubKeyHash(script) != nil
}

// ExtractScriptHash extracts the script hash from the passed script if it is
// a standard pay-to-script-hash script. It returns nil otherwise.
func ExtractScriptHash(script []byte) []byte {
	// A pay-to-script-hash script is of the form:
	//  OP_HASH160 <20-byte hash> OP_EQUAL
	if len(script) == 23 &&
		script[0] == txscript.OP_HASH160 &&
		script[1] == txscript.OP_DATA_20 &&
		script[22] == txscript.OP_EQUAL {

		return script[2:22]
	}
	return nil
}

// IsScriptHashScript returns whether or not the passed script is a standard
// pay-to-script-hash script.
func IsScriptHashScript(script []byte) bool {
	return ExtractScriptHash(script) != nil
}

// ExtractWitnessV0PubKeyHash extracts the public key hash from the passed
// script if it is a standard segwit v0 pay-to-witness-pubkey-hash script. It
// returns nil otherwise.
func ExtractWitnessV0PubKeyHash(script []byte) []byte {
	// A P2WPKH script is of the form:
	//  OP_0 OP_DATA_20 <20-byte hash>
	if len(script) == 22 &&
		script[0] == txscript.OP_0 &&
		script[1] == txscript.OP_DATA_20 {

		return script[2:22]
	}
	return nil
}

// IsWitnessV0PubKeyHashScript returns whether or not the passed script is a
// standard segwit v0 pay-to-witness-pubkey-hash script.
func IsWitnessV0PubKeyHashScript(script []byte) bool {
	return ExtractWitnessV0PubKeyHash(script) != nil
}

// ExtractWitnessV0ScriptHash extracts the script hash from the passed script
// if it is a standard segwit v0 pay-to-witness-script-hash script. It returns
// nil otherwise.
func ExtractWitnessV0ScriptHash(script []byte) []byte {
	// A P2WSH script is of the form:
	//  OP_0 OP_DATA_32 <32-byte hash>
	if len(script) == 34 &&
		script[0] == txscript.OP_0 &&
		script[1] == txscript.OP_DATA_32 {

		return script[2:34]
	}
	return nil
}

// IsWitnessV0ScriptHashScript returns whether or not the passed script is a
// standard segwit v0 pay-to-witness-script-hash script.
func IsWitnessV0ScriptHashScript(script []byte) bool {
	return ExtractWitnessV0ScriptHash(script) != nil
}

// ExtractWitnessV1TaprootKey extracts the 32-byte x-only output key from the
// passed script if it is a standard segwit v1 taproot output script. It
// returns nil otherwise.
func ExtractWitnessV1TaprootKey(script []byte) []byte {
	// A P2TR script is of the form:
	//  OP_1 OP_DATA_32 <32-byte x-only pubkey>
	if len(script) == 34 &&
		script[0] == txscript.OP_1 &&
		script[1] == txscript.OP_DATA_32 {

		return script[2:34]
	}
	return nil
}

// IsWitnessV1TaprootScript returns whether or not the passed script is a
// standard segwit v1 taproot output script.
func IsWitnessV1TaprootScript(script []byte) bool {
	return ExtractWitnessV1TaprootKey(script) != nil
}

// MultiSigDetails houses details extracted from a standard bare ECDSA
// multisig script.
type MultiSigDetails struct {
	RequiredSigs uint16
	NumPubKeys   uint16
	PubKeys      [][]byte
	Valid        bool
}

// ExtractMultiSigScriptDetails attempts to extract details from the passed
// script if it is a standard bare ECDSA multisig script. The returned
// details struct has Valid set to false otherwise.
//
// The extractPubKeys flag indicates whether or not the pubkeys themselves
// should also be extracted, since doing so allocates and the caller might
// wish to avoid that when only testing script shape.
func ExtractMultiSigScriptDetails(script []byte, extractPubKeys bool) MultiSigDetails {
	// A multisig script is of the form:
	//  REQ_SIGS PUBKEY PUBKEY PUBKEY ... NUM_PUBKEYS OP_CHECKMULTISIG

	// The script can't possibly be a multisig script if it doesn't end with
	// OP_CHECKMULTISIG or have at least two small integer pushes preceding
	// it. Fail fast to avoid more work below.
	if len(script) < 3 || script[len(script)-1] != txscript.OP_CHECKMULTISIG {
		return MultiSigDetails{}
	}

	tokenizer := txscript.MakeScriptTokenizer(0, script)
	if !tokenizer.Next() || !txscript.IsSmallInt(tokenizer.Opcode()) {
		return MultiSigDetails{}
	}
	requiredSigs := txscript.AsSmallInt(tokenizer.Opcode())
	if requiredSigs == 0 {
		return MultiSigDetails{}
	}

	var numPubKeys int
	var pubKeys [][]byte
	if extractPubKeys {
		pubKeys = make([][]byte, 0, txscript.MaxPubKeysPerMultiSig)
	}
	for tokenizer.Next() {
		data := tokenizer.Data()
		if !txscript.IsStrictCompressedPubKeyEncoding(data) {
			break
		}
		numPubKeys++
		if extractPubKeys {
			pubKeys = append(pubKeys, data)
		}
	}
	if tokenizer.Done() {
		return MultiSigDetails{}
	}

	op := tokenizer.Opcode()
	if !txscript.IsSmallInt(op) || txscript.AsSmallInt(op) != numPubKeys {
		return MultiSigDetails{}
	}
	if numPubKeys < requiredSigs {
		return MultiSigDetails{}
	}
	if int32(len(tokenizer.Script()))-tokenizer.ByteIndex() != 1 {
		return MultiSigDetails{}
	}

	return MultiSigDetails{
		RequiredSigs: uint16(requiredSigs),
		NumPubKeys:   uint16(numPubKeys),
		PubKeys:      pubKeys,
		Valid:        true,
	}
}

// IsMultiSigScript returns whether or not the passed script is a standard
// bare ECDSA multisig script.
func IsMultiSigScript(script []byte) bool {
	return ExtractMultiSigScriptDetails(script, false).Valid
}

// IsNullDataScript returns whether or not the passed script is a standard
// null data script.
func IsNullDataScript(script []byte) bool {
	// A null data script is of the form:
	//  OP_RETURN <optional data>
	if len(script) < 1 || script[0] != txscript.OP_RETURN {
		return false
	}
	if len(script) == 1 {
		return true
	}

	tokenizer := txscript.MakeScriptTokenizer(0, script[1:])
	return tokenizer.Next() && tokenizer.Done() &&
		len(tokenizer.Data()) <= MaxDataCarrierSize
}

// MultiSigScript returns a valid bare multisig script where threshold of the
// given public keys are required to have signed the transaction for success.
//
// The provided public keys must be serialized in compressed form, or
// ErrPubKeyType is returned. ErrTooManyRequiredSigs is returned if the
// threshold exceeds the number of keys provided.
func MultiSigScript(threshold int, pubKeys ...[]byte) ([]byte, error) {
	if len(pubKeys) < threshold {
		return nil, fmt.Errorf("%w: %d required signatures with only %d public "+
			"keys available", ErrTooManyRequiredSigs, threshold, len(pubKeys))
	}

	builder := txscript.NewScriptBuilder().AddInt64(int64(threshold))
	for _, pubKey := range pubKeys {
		if !txscript.IsStrictCompressedPubKeyEncoding(pubKey) {
			return nil, fmt.Errorf("%w: %x", ErrPubKeyType, pubKey)
		}
		builder.AddData(pubKey)
	}
	builder.AddInt64(int64(len(pubKeys)))
	builder.AddOp(txscript.OP_CHECKMULTISIG)

	return builder.Script()
}

// PubKeyHashScript returns a standard pay-to-pubkey-hash script paying to the
// given 20-byte hash.
func PubKeyHashScript(pkHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(pkHash).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// ScriptHashScript returns a standard pay-to-script-hash script paying to the
// given 20-byte hash.
func ScriptHashScript(scriptHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_HASH160).
		AddData(scriptHash).
		AddOp(txscript.OP_EQUAL).
		Script()
}

// PubKeyScript returns a standard pay-to-pubkey script for the given
// compressed or uncompressed public key.
func PubKeyScript(pubKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(pubKey).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// WitnessV0PubKeyHashScript returns a standard segwit v0
// pay-to-witness-pubkey-hash script for the given 20-byte hash.
func WitnessV0PubKeyHashScript(pkHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(pkHash).
		Script()
}

// WitnessV0ScriptHashScript returns a standard segwit v0
// pay-to-witness-script-hash script for the given 32-byte hash.
func WitnessV0ScriptHashScript(scriptHash []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(scriptHash).
		Script()
}

// WitnessV1TaprootScript returns a standard segwit v1 taproot output script
// for the given 32-byte x-only output key.
func WitnessV1TaprootScript(outputKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_1).
		AddData(outputKey).
		Script()
}

// NullDataScript returns a standard provably pruneable null data script that
// carries the passed data. ErrTooMuchNullData is returned if the data
// exceeds MaxDataCarrierSize. Data of 76 bytes up to MaxDataCarrierSize is
// also rejected, with the script builder's error, since the builder only
// emits direct pushes of at most 75 bytes.
func NullDataScript(data []byte) ([]byte, error) {
	if len(data) > MaxDataCarrierSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit",
			ErrTooMuchNullData, len(data), MaxDataCarrierSize)
	}

	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData(data).
		Script()
}
