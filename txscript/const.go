// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// MaxPubKeysPerMultiSig is the maximum number of public keys allowed in a
// bare multisig script that this package will recognize as standard. It
// matches the practical limit imposed by the small-integer encoding of the
// required-signature and pubkey-count opcodes (OP_1 through OP_16).
const MaxPubKeysPerMultiSig = 16
