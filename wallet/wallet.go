// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet is the composition root wiring the core's key derivation,
// subaccount bookkeeping, compact-filter scanning, and transaction building
// components into one entry point, the way exccd's top-level daemon wires
// its RPC, mining, and peer-sync subsystems around a shared database and
// config struct.
package wallet

import (
	"errors"
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/opentxs-go/walletcore/account"
	"github.com/opentxs-go/walletcore/chaincfg"
	"github.com/opentxs-go/walletcore/gcs"
	"github.com/opentxs-go/walletcore/hdkeychain"
	"github.com/opentxs-go/walletcore/paymentcode"
	"github.com/opentxs-go/walletcore/secret"
	"github.com/opentxs-go/walletcore/txbuilder"
	"github.com/opentxs-go/walletcore/txscript/stdscript"
	"github.com/opentxs-go/walletcore/wire"
)

// log is this package's logger, following the teacher's per-package
// UseLogger convention; disabled until a caller installs one.
var log = slog.Disabled

// UseLogger sets the logger used by the wallet package.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Error kinds this package surfaces.
var (
	// ErrLocked describes an error in which a private-key operation was
	// attempted before the wallet's MasterSecret was unlocked.
	ErrLocked = errors.New("wallet: locked")

	// ErrUnknownAccount describes an error in which a caller referenced a
	// subaccount id the wallet does not hold.
	ErrUnknownAccount = errors.New("wallet: unknown account")

	// ErrWrongFilterParams describes an error in which a FilterSource
	// returned a filter built with different P/M constants than this
	// wallet's BIP158 parameters, making a MatchAny result meaningless.
	ErrWrongFilterParams = errors.New("wallet: filter built with unexpected P/M parameters")
)

// ChainSource is the collaborator a Wallet asks for UTXOs, fee rates, and
// broadcast, keeping all network I/O outside this package.
type ChainSource interface {
	UTXOsForAccount(accountID string) ([]txbuilder.UTXO, error)
	FeeRate() (int64, error)
	Broadcast(rawTx []byte) error
}

// FilterSource supplies the compact filter for a given block, letting a
// Wallet decide locally which blocks are worth fetching in full.
type FilterSource interface {
	FilterForBlock(blockHash []byte) (*gcs.Filter, error)
}

// BIP158 basic filter parameters: a Golomb-Rice coding parameter of 19 bits
// and a false-positive rate of 1/784931, the values every block's compact
// filter on the BTC-family chains this core targets is built with.
const (
	filterP = 19
	filterM = 784931
)

// filterKey derives the SipHash key a block's compact filter was built
// with: the first gcs.KeySize bytes of the block hash, per BIP158.
func filterKey(blockHash []byte) [gcs.KeySize]byte {
	var key [gcs.KeySize]byte
	copy(key[:], blockHash)
	return key
}

// Wallet is the top-level type a host program drives: it owns the
// MasterSecret gating private-key access, the deterministic and
// payment-code subaccounts derived from one seed, and the account index
// those subaccounts are looked up through.
type Wallet struct {
	mu sync.Mutex

	net    *chaincfg.Params
	secret *secret.MasterSecret
	index  *account.AccountIndex

	chain   ChainSource
	filters FilterSource

	gapLimit int
}

// Open constructs a Wallet for net, gating seed access behind secretStore
// and prompt via a MasterSecret, with an idle timeout of idleTimeoutSeconds
// seconds (zero or negative disables the idle timeout).
func Open(net *chaincfg.Params, secretStore secret.Store, prompt secret.Prompt, idleTimeoutSeconds int64, chain ChainSource, filters FilterSource) *Wallet {
	timeout := time.Duration(idleTimeoutSeconds) * time.Second
	if idleTimeoutSeconds <= 0 {
		timeout = -1
	}
	ms := secret.New("wallet-seed", secretStore, prompt, timeout)
	return &Wallet{
		net:      net,
		secret:   ms,
		index:    account.NewAccountIndex(),
		chain:    chain,
		filters:  filters,
		gapLimit: account.DefaultGapLimit,
	}
}

// Close releases the wallet's MasterSecret, clearing cached key material.
func (w *Wallet) Close() {
	w.secret.Close()
}

// unlockSeed returns the wallet's root seed, prompting through the
// MasterSecret's collaborators on first use.
func (w *Wallet) unlockSeed() ([]byte, error) {
	return w.secret.GetSecret("derive wallet keys", true)
}

// NewDeterministicAccount creates and registers a DeterministicSubaccount
// identified by id, deriving from the wallet's seed via root key m/44'.
func (w *Wallet) NewDeterministicAccount(id string) (*account.DeterministicSubaccount, error) {
	unlocker := func() (string, error) {
		seed, err := w.unlockSeed()
		if err != nil {
			return "", err
		}
		master, err := hdkeychain.NewMaster(seed, w.net)
		if err != nil {
			return "", err
		}
		purpose, err := master.Child(hdkeychain.HardenedKeyStart + 44)
		if err != nil {
			return "", err
		}
		return purpose.String()
	}

	sub := account.NewDeterministic(id, w.net, unlocker, w.gapLimit)

	w.mu.Lock()
	w.index.Insert(sub.Subaccount)
	w.mu.Unlock()

	return sub, nil
}

// NewPaymentCodeChannel creates and registers a BIP47 notification
// subaccount for a payment channel with remote, using localSend/localReceive
// as the local party's sending and receiving extended keys.
func (w *Wallet) NewPaymentCodeChannel(id string, remote *paymentcode.PaymentCode, localSend, localReceive *hdkeychain.ExtendedKey) (*paymentcode.Subaccount, error) {
	local, err := paymentcode.FromExtendedKey(localSend)
	if err != nil {
		return nil, err
	}

	sub := paymentcode.NewSubaccount(id, local, remote, localSend, localReceive)

	w.mu.Lock()
	w.index.Insert(sub.Subaccount)
	w.mu.Unlock()

	return sub, nil
}

// Account looks up a previously registered subaccount by id.
func (w *Wallet) Account(id string) (*account.Subaccount, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sub, ok := w.index.Lookup(id)
	if !ok {
		return nil, ErrUnknownAccount
	}
	return sub, nil
}

// BuildTransaction drives a txbuilder.Builder through every phase for a
// simple single-destination spend from accountID: CreateOutputs,
// AddInputs (pulling candidate UTXOs from the wallet's ChainSource until
// funded), AddChange (requesting a fresh internal-chain element from the
// deterministic subaccount), Sort, and Sign.
func (w *Wallet) BuildTransaction(accountID string, destScript []byte, amount int64, source txbuilder.KeySource) (*wire.MsgTx, error) {
	feerate, err := w.chain.FeeRate()
	if err != nil {
		return nil, err
	}

	utxos, err := w.chain.UTXOsForAccount(accountID)
	if err != nil {
		return nil, err
	}

	b := txbuilder.New(feerate)
	b.CreateOutput(destScript, amount)

	for _, u := range utxos {
		if b.IsFunded() {
			break
		}
		b.AddInput(u, source)
	}
	if !b.IsFunded() {
		return nil, txbuilder.ErrBuildFunding
	}

	sub, err := w.Account(accountID)
	if err != nil {
		return nil, err
	}
	det, ok := sub.Source().(*account.DeterministicSubaccount)
	if !ok {
		return nil, ErrUnknownAccount
	}

	changeIndices, err := det.Reserve(account.Internal, 1, "change", "", "", time.Now())
	if err != nil {
		return nil, err
	}
	changeElement, err := det.BalanceElement(account.Internal, changeIndices[0])
	if err != nil {
		return nil, err
	}
	changeScript, err := stdscript.PubKeyHashScript(changeElement.PubKeyHash)
	if err != nil {
		return nil, err
	}
	if _, err := b.AddChange(changeScript); err != nil {
		return nil, err
	}

	b.Sort()

	return b.Sign()
}

// ScanBlock reports whether the block identified by blockHash is relevant to
// any subaccount this wallet holds, by matching every watched public key hash
// (or, for elements without one, public key) against the block's BIP158
// compact filter. A host program uses
// this to decide whether a block is worth fetching in full, the same
// local-filtering role exccd's own compact-filter index plays for SPV peers.
func (w *Wallet) ScanBlock(blockHash []byte) (bool, error) {
	filter, err := w.filters.FilterForBlock(blockHash)
	if err != nil {
		return false, err
	}
	if filter.P() != filterP || filter.M() != filterM {
		return false, ErrWrongFilterParams
	}

	w.mu.Lock()
	subs := w.index.All()
	w.mu.Unlock()

	var watched [][]byte
	for _, sub := range subs {
		watched = append(watched, sub.WatchedElements()...)
	}
	if len(watched) == 0 {
		return false, nil
	}

	key := filterKey(blockHash)
	return filter.MatchAny(key, watched), nil
}
