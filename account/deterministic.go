// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package account

import (
	"sync"
	"time"

	"github.com/opentxs-go/walletcore/chaincfg"
	"github.com/opentxs-go/walletcore/hdkeychain"
	"github.com/opentxs-go/walletcore/keyutil"
)

// DefaultGapLimit is the default lookahead window used when a caller does
// not specify one explicitly.
const DefaultGapLimit = 20

// PrivateKeyUnlocker decrypts the root extended private key for a
// deterministic subaccount's account-level path, gated behind the
// MasterSecret the caller holds. It returns the serialized extended private
// key string (xprv-style); DeterministicSubaccount parses and caches it.
type PrivateKeyUnlocker func() (string, error)

// DeterministicSubaccount is a Subaccount specialized for single-seed BIP32
// derivation with gap-limit lookahead: an account-level extended key with
// two children, External (receive) and Internal (change).
type DeterministicSubaccount struct {
	*Subaccount

	mu       sync.Mutex
	net      *chaincfg.Params
	unlocker PrivateKeyUnlocker
	rootPriv *hdkeychain.ExtendedKey // cached; nil until first use
	rootPub  *hdkeychain.ExtendedKey

	gapLimit int

	// OnKeysGenerated, when set, is invoked after GenerateNext/Reserve
	// mint new indices on a subchain, so a blockchain collaborator can
	// extend its filter scan set. Modeled on original_source's
	// finish_allocation listener hook.
	OnKeysGenerated func(subchain Subchain, indices []uint32)
}

// NewDeterministic returns a DeterministicSubaccount identified by id, whose
// External and Internal chains derive from the account-level extended key
// obtained from unlocker (called at most once per process, on first key
// access, and cached thereafter).
func NewDeterministic(id string, net *chaincfg.Params, unlocker PrivateKeyUnlocker, gapLimit int) *DeterministicSubaccount {
	if gapLimit <= 0 {
		gapLimit = DefaultGapLimit
	}
	d := &DeterministicSubaccount{
		net:      net,
		unlocker: unlocker,
		gapLimit: gapLimit,
	}
	d.Subaccount = New(id, External, Internal, true, false, d)
	return d
}

// rootKeyLocked returns the cached account-level extended private key,
// decrypting it via the unlocker on first use. Caller must hold d.mu.
func (d *DeterministicSubaccount) rootKeyLocked() (*hdkeychain.ExtendedKey, error) {
	if d.rootPriv != nil {
		return d.rootPriv, nil
	}

	xprv, err := d.unlocker()
	if err != nil {
		return nil, err
	}
	key, err := hdkeychain.NewKeyFromString(xprv)
	if err != nil {
		return nil, err
	}
	d.rootPriv = key
	return key, nil
}

// DeriveElement implements KeySource: child path is
// root/{0=External,1=Internal}/index.
func (d *DeterministicSubaccount) DeriveElement(subchain Subchain, index uint32) (*Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	root, err := d.rootKeyLocked()
	if err != nil {
		return nil, err
	}

	branchIndex := uint32(0)
	if subchain == Internal {
		branchIndex = 1
	}
	branch, err := root.Child(branchIndex)
	if err != nil {
		return nil, err
	}
	child, err := branch.Child(index)
	if err != nil {
		return nil, err
	}

	pub, err := child.ECPubKey()
	if err != nil {
		return nil, err
	}
	pubBytes := pub.SerializeCompressed()

	return &Element{
		PublicKey:    pubBytes,
		PubKeyHash:   keyutil.Hash160(pubBytes),
		Availability: Unused,
	}, nil
}

// PrivateKey returns the decrypted extended private key for (subchain,
// index), requiring the root key to already be reachable through the
// unlocker (which is itself MasterSecret-gated by the caller's
// implementation).
func (d *DeterministicSubaccount) PrivateKey(subchain Subchain, index uint32) (*hdkeychain.ExtendedKey, error) {
	d.mu.Lock()
	root, err := d.rootKeyLocked()
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	branchIndex := uint32(0)
	if subchain == Internal {
		branchIndex = 1
	}
	branch, err := root.Child(branchIndex)
	if err != nil {
		return nil, err
	}
	return branch.Child(index)
}

// GenerateNext overrides Subaccount.GenerateNext to fire OnKeysGenerated
// after a successful mint.
func (d *DeterministicSubaccount) GenerateNext(subchain Subchain, count int) ([]uint32, error) {
	indices, err := d.Subaccount.GenerateNext(subchain, count)
	if len(indices) > 0 && d.OnKeysGenerated != nil {
		d.OnKeysGenerated(subchain, indices)
	}
	return indices, err
}

// Reserve overrides Subaccount.Reserve, defaulting the lookahead window to
// the subaccount's configured gap limit and firing OnKeysGenerated for any
// newly minted indices.
func (d *DeterministicSubaccount) Reserve(subchain Subchain, batch int, reason, contact, label string, timestamp time.Time) ([]uint32, error) {
	before, hadBefore, _ := d.Subaccount.LastGenerated(subchain)
	indices, err := d.Subaccount.Reserve(subchain, batch, reason, contact, label, timestamp, d.gapLimit)
	after, hasAfter, _ := d.Subaccount.LastGenerated(subchain)
	first := uint32(0)
	if hadBefore {
		first = before + 1
	}
	if hasAfter && (!hadBefore || after > before) && d.OnKeysGenerated != nil {
		newly := make([]uint32, 0, after-first+1)
		for i := first; i <= after; i++ {
			newly = append(newly, i)
		}
		d.OnKeysGenerated(subchain, newly)
	}
	return indices, err
}
