// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stdscript provides facilities for building and recognizing the
// standard output script shapes a transaction builder needs: pay-to-pubkey,
// pay-to-pubkey-hash, pay-to-script-hash, bare multisig, null data, and the
// two segwit shapes (P2WPKH, P2WSH) plus the taproot output key push (P2TR).
package stdscript

// ScriptType identifies the type of a recognized standard script. All other
// scripts are considered non-standard.
type ScriptType byte

const (
	// STNonStandard indicates a script is none of the recognized standard
	// forms.
	STNonStandard ScriptType = iota

	// STPubKeyEcdsaSecp256k1 identifies a pay-to-pubkey (P2PK) script that
	// imposes an encumbrance requiring a valid ECDSA signature for a specific
	// secp256k1 public key.
	STPubKeyEcdsaSecp256k1

	// STPubKeyHashEcdsaSecp256k1 identifies a pay-to-pubkey-hash (P2PKH)
	// script.
	STPubKeyHashEcdsaSecp256k1

	// STScriptHash identifies a pay-to-script-hash (P2SH) script.
	STScriptHash

	// STMultiSig identifies a bare n-of-m ECDSA multisig script.
	STMultiSig

	// STNullData identifies a provably prunable OP_RETURN script.
	STNullData

	// STWitnessV0PubKeyHash identifies a segwit v0 pay-to-witness-pubkey-hash
	// (P2WPKH) script.
	STWitnessV0PubKeyHash

	// STWitnessV0ScriptHash identifies a segwit v0 pay-to-witness-script-hash
	// (P2WSH) script.
	STWitnessV0ScriptHash

	// STWitnessV1Taproot identifies a segwit v1 taproot (P2TR) output script.
	STWitnessV1Taproot

	numScriptTypes
)

var scriptTypeToName = []string{
	STNonStandard:             "nonstandard",
	STPubKeyEcdsaSecp256k1:    "pubkey",
	STPubKeyHashEcdsaSecp256k1: "pubkeyhash",
	STScriptHash:              "scripthash",
	STMultiSig:                "multisig",
	STNullData:                "nulldata",
	STWitnessV0PubKeyHash:     "witness-v0-pubkeyhash",
	STWitnessV0ScriptHash:     "witness-v0-scripthash",
	STWitnessV1Taproot:        "witness-v1-taproot",
}

// String returns the ScriptType as a human-readable name.
func (t ScriptType) String() string {
	if t >= numScriptTypes {
		return "invalid"
	}
	return scriptTypeToName[t]
}

// DetermineScriptType returns the type of the script passed for the known
// standard types. STNonStandard is returned when the script does not parse
// or is not one of the known standard types.
func DetermineScriptType(script []byte) ScriptType {
	switch {
	case IsPubKeyScript(script):
		return STPubKeyEcdsaSecp256k1
	case IsPubKeyHashScript(script):
		return STPubKeyHashEcdsaSecp256k1
	case IsScriptHashScript(script):
		return STScriptHash
	case IsMultiSigScript(script):
		return STMultiSig
	case IsNullDataScript(script):
		return STNullData
	case IsWitnessV0PubKeyHashScript(script):
		return STWitnessV0PubKeyHash
	case IsWitnessV0ScriptHashScript(script):
		return STWitnessV0ScriptHash
	case IsWitnessV1TaprootScript(script):
		return STWitnessV1Taproot
	}

	return STNonStandard
}

// DetermineRequiredSigs attempts to identify the number of signatures
// required by the passed script for the known standard types. It returns 0
// when the script does not parse or is not one of the known standard types.
func DetermineRequiredSigs(script []byte) uint16 {
	switch DetermineScriptType(script) {
	case STPubKeyHashEcdsaSecp256k1, STScriptHash, STPubKeyEcdsaSecp256k1,
		STWitnessV0PubKeyHash, STWitnessV0ScriptHash, STWitnessV1Taproot:
		return 1

	case STMultiSig:
		details := ExtractMultiSigScriptDetails(script, false)
		if details.Valid {
			return details.RequiredSigs
		}
	}

	return 0
}
