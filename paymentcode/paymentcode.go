// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package paymentcode implements the BIP47 payment-code type and the
// notification-channel subaccount built on top of it: two parties exchange
// payment codes once (out of band, via a notification transaction) and can
// thereafter each derive an unbounded sequence of one-time addresses for the
// other without further interaction.
package paymentcode

import (
	"crypto/sha256"
	"errors"

	"github.com/EXCCoin/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/opentxs-go/walletcore/account"
	"github.com/opentxs-go/walletcore/hdkeychain"
)

// paymentCodeVersion is the only payment-code payload version this core
// understands.
const paymentCodeVersion = 0x01

// payloadLen is the fixed length of a BIP47 payment-code payload: 1-byte
// version, 1-byte features, 33-byte pubkey, 32-byte chain code, 13 reserved
// bytes.
const payloadLen = 1 + 1 + 33 + 32 + 13

// base58CheckVersion is the version byte BIP47 payment codes use for
// base58check encoding.
const base58CheckVersion = 0x47

// ErrInvalidPaymentCode describes an error in which a payment-code string or
// payload is malformed.
var ErrInvalidPaymentCode = errors.New("paymentcode: invalid payment code")

// PaymentCode is a BIP47 payment code: a public key and chain code that lets
// its owner be paid without publishing a reusable address.
type PaymentCode struct {
	PubKey    [33]byte
	ChainCode [32]byte
}

// FromExtendedKey derives a PaymentCode from the notification-level extended
// key (conventionally m/47'/coin'/account').
func FromExtendedKey(key *hdkeychain.ExtendedKey) (*PaymentCode, error) {
	pub, err := key.ECPubKey()
	if err != nil {
		return nil, err
	}

	pc := &PaymentCode{}
	copy(pc.PubKey[:], pub.SerializeCompressed())
	copy(pc.ChainCode[:], key.ChainCode())
	return pc, nil
}

// String returns the base58check-encoded payment code.
func (pc *PaymentCode) String() string {
	payload := make([]byte, 0, payloadLen)
	payload = append(payload, paymentCodeVersion, 0x00)
	payload = append(payload, pc.PubKey[:]...)
	payload = append(payload, pc.ChainCode[:]...)
	payload = append(payload, make([]byte, 13)...)

	b := make([]byte, 0, 1+len(payload)+4)
	b = append(b, base58CheckVersion)
	b = append(b, payload...)
	sum := sha256.Sum256(b)
	sum2 := sha256.Sum256(sum[:])
	b = append(b, sum2[:4]...)
	return base58.Encode(b)
}

// Parse decodes a base58check-encoded payment code string.
func Parse(s string) (*PaymentCode, error) {
	decoded := base58.Decode(s)
	if len(decoded) != 1+payloadLen+4 {
		return nil, ErrInvalidPaymentCode
	}
	if decoded[0] != base58CheckVersion {
		return nil, ErrInvalidPaymentCode
	}

	payload := decoded[1 : len(decoded)-4]
	checksum := decoded[len(decoded)-4:]
	sum := sha256.Sum256(decoded[:len(decoded)-4])
	sum2 := sha256.Sum256(sum[:])
	for i := range checksum {
		if checksum[i] != sum2[i] {
			return nil, ErrInvalidPaymentCode
		}
	}
	if payload[0] != paymentCodeVersion {
		return nil, ErrInvalidPaymentCode
	}

	pc := &PaymentCode{}
	copy(pc.PubKey[:], payload[2:35])
	copy(pc.ChainCode[:], payload[35:67])
	return pc, nil
}

// childPubKey returns the n-th normal (non-hardened) CKDpub child of the
// payment code's own public key and chain code, without requiring the
// private key — the same derivation hdkeychain.ExtendedKey.Child performs
// for a public-only key.
func (pc *PaymentCode) childPubKey(index uint32) (*secp256k1.JacobianPoint, *secp256k1.ModNScalar, error) {
	key := hdkeychain.NewExtendedKey([4]byte{}, [4]byte{}, pc.PubKey[:], pc.ChainCode[:], []byte{0, 0, 0, 0}, 0, 0, false)
	child, err := key.Child(index)
	if err != nil {
		return nil, nil, err
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return nil, nil, err
	}
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	return &j, nil, nil
}

// sharedSecretScalar computes s = SHA256(x-coordinate of the ECDH shared
// point), the scalar BIP47 tweaks a public or private key by.
func sharedSecretScalar(priv *secp256k1.PrivateKey, pubPoint *secp256k1.JacobianPoint) secp256k1.ModNScalar {
	var scalar secp256k1.ModNScalar
	scalar.Set(&priv.Key)

	var shared secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&scalar, pubPoint, &shared)
	shared.ToAffine()

	xBytes := shared.X.Bytes()
	digest := sha256.Sum256(xBytes[:])

	var s secp256k1.ModNScalar
	s.SetByteSlice(digest[:])
	return s
}

// OutgoingPubKey returns the public key the local party uses to pay the
// remote payment code's index-th address: remotePub_n tweaked by the shared
// secret derived from the local sending private key and the remote chain.
func OutgoingPubKey(localSendPriv *hdkeychain.ExtendedKey, remote *PaymentCode, index uint32) ([]byte, error) {
	priv, err := localSendPriv.ECPrivKey()
	if err != nil {
		return nil, err
	}

	remoteChildPoint, _, err := remote.childPubKey(index)
	if err != nil {
		return nil, err
	}

	s := sharedSecretScalar(priv, remoteChildPoint)
	sPoint := secp256k1.NewPrivateKey(&s).PubKey()
	var sJ, sumJ secp256k1.JacobianPoint
	sPoint.AsJacobian(&sJ)
	secp256k1.AddNonConst(remoteChildPoint, &sJ, &sumJ)
	sumJ.ToAffine()

	tweaked := secp256k1.NewPublicKey(&sumJ.X, &sumJ.Y)
	return tweaked.SerializeCompressed(), nil
}

// IncomingPrivateKey returns the private key the local party receives
// payments at for the index-th address sent by remote: the local receiving
// extended key's index-th child private scalar, tweaked by the same shared
// secret the sender computed.
func IncomingPrivateKey(localReceivePriv *hdkeychain.ExtendedKey, remote *PaymentCode, index uint32) (*secp256k1.PrivateKey, error) {
	child, err := localReceivePriv.Child(index)
	if err != nil {
		return nil, err
	}
	priv, err := child.ECPrivKey()
	if err != nil {
		return nil, err
	}

	remotePub, err := remote.rootJacobian()
	if err != nil {
		return nil, err
	}

	s := sharedSecretScalar(priv, remotePub)

	var childScalar secp256k1.ModNScalar
	childScalar.Set(&priv.Key)
	childScalar.Add(&s)

	return secp256k1.NewPrivateKey(&childScalar), nil
}

func (pc *PaymentCode) rootJacobian() (*secp256k1.JacobianPoint, error) {
	pub, err := secp256k1.ParsePubKey(pc.PubKey[:])
	if err != nil {
		return nil, err
	}
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	return &j, nil
}

// Subaccount wraps a bidirectional BIP47 channel between a local and remote
// payment code as an account.Subaccount over the Outgoing/Incoming
// subchains, plus notification-txid bookkeeping.
type Subaccount struct {
	*account.Subaccount

	local         *PaymentCode
	remote        *PaymentCode
	localReceive  *hdkeychain.ExtendedKey // local's receiving extended key (for Incoming)
	localSend     *hdkeychain.ExtendedKey // local's sending extended key (for Outgoing)

	outgoingNotifications map[string]bool
	incomingNotifications map[string]bool
}

// NewSubaccount returns a PaymentCodeSubaccount identified by id for the
// channel between local and remote, using localSend/localReceive for
// Outgoing/Incoming derivation respectively.
func NewSubaccount(id string, local, remote *PaymentCode, localSend, localReceive *hdkeychain.ExtendedKey) *Subaccount {
	s := &Subaccount{
		local:                 local,
		remote:                remote,
		localSend:             localSend,
		localReceive:          localReceive,
		outgoingNotifications: make(map[string]bool),
		incomingNotifications: make(map[string]bool),
	}
	s.Subaccount = account.New(id, account.Outgoing, account.Incoming, false, false, s)
	return s
}

// DeriveElement implements account.KeySource.
func (s *Subaccount) DeriveElement(subchain account.Subchain, index uint32) (*account.Element, error) {
	switch subchain {
	case account.Outgoing:
		pub, err := OutgoingPubKey(s.localSend, s.remote, index)
		if err != nil {
			return nil, err
		}
		return &account.Element{PublicKey: pub, Availability: account.Unused}, nil
	case account.Incoming:
		priv, err := IncomingPrivateKey(s.localReceive, s.remote, index)
		if err != nil {
			return nil, err
		}
		pub := priv.PubKey().SerializeCompressed()
		return &account.Element{PublicKey: pub, Availability: account.Unused}, nil
	default:
		return nil, account.ErrUnknownSubchain
	}
}

// AddNotification records txid as the outgoing notification for this
// channel.
func (s *Subaccount) AddNotification(txid string) {
	s.outgoingNotifications[txid] = true
}

// ReorgNotification removes txid from the outgoing notification set.
func (s *Subaccount) ReorgNotification(txid string) {
	delete(s.outgoingNotifications, txid)
}

// IsNotified reports whether the outgoing notification transaction has been
// broadcast.
func (s *Subaccount) IsNotified() bool {
	return len(s.outgoingNotifications) > 0
}

// GenerateNotificationElements produces the three 33-byte pushes that make
// up a BIP47 1-of-3 bare multisig notification output: the local payment
// code's designated public key, and a masked 65-byte payload (a version byte,
// the public key's 32-byte x coordinate and the 32-byte chain code, XORed with
// a repeating 32-byte shared-secret mask) split across two pushes: its first
// 33 bytes fill the second push and its last 32 bytes follow a zero byte in
// the third, reflecting the original
// notification-payload layout this module's PaymentCode.cpp analogue
// produces.
func (s *Subaccount) GenerateNotificationElements() ([3][33]byte, error) {
	var out [3][33]byte
	copy(out[0][:], s.local.PubKey[:])

	priv, err := s.localSend.ECPrivKey()
	if err != nil {
		return out, err
	}
	remoteJ, err := s.remote.rootJacobian()
	if err != nil {
		return out, err
	}
	scalar := sharedSecretScalar(priv, remoteJ)
	mask := scalar.Bytes()

	payload := make([]byte, 65)
	payload[0] = 0x01 // payload version
	copy(payload[1:33], s.local.PubKey[1:33])
	copy(payload[33:65], s.local.ChainCode[:])
	for i := range payload {
		payload[i] ^= mask[i%len(mask)]
	}

	copy(out[1][:], payload[0:33])
	copy(out[2][1:], payload[33:65])
	return out, nil
}
