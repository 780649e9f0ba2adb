// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hdkeychain provides an API for BIP32 hierarchical deterministic
// extended keys.
//
// References:
//
//	[BIP32]: BIP0032 - Hierarchical Deterministic Wallets
//	https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki
package hdkeychain

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/binary"
	"errors"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/opentxs-go/walletcore/chaincfg"
	"github.com/opentxs-go/walletcore/keyutil"
)

const (
	// RecommendedSeedLen is the recommended length in bytes for a seed to a
	// master node.
	RecommendedSeedLen = 32 // 256 bits

	// HardenedKeyStart is the index at which a hardened key starts. Each
	// extended key has 2^31 normal child keys and 2^31 hardened child keys.
	// Thus the range for normal child keys is [0, 2^31 - 1] and the range for
	// hardened child keys is [2^31, 2^32 - 1].
	HardenedKeyStart = uint32(0x80000000) // 2^31

	// MinSeedBytes is the minimum number of bytes allowed for a seed to a
	// master node.
	MinSeedBytes = 16 // 128 bits

	// MaxSeedBytes is the maximum number of bytes allowed for a seed to a
	// master node.
	MaxSeedBytes = 64 // 512 bits

	// serializedKeyLen is the length of a serialized public or private
	// extended key. It consists of 4 bytes version, 1 byte depth, 4 bytes
	// parent fingerprint, 4 bytes child number, 32 bytes chain code, and 33
	// bytes pubkey/privkey data.
	serializedKeyLen = 4 + 1 + 4 + 4 + 32 + 33

	// maxUint8 is the max positive integer which can be serialized in a
	// uint8.
	maxUint8 = 1<<8 - 1
)

var (
	// ErrDeriveHardFromPublic describes an error in which the caller
	// attempted to derive a hardened extended key from a public key.
	ErrDeriveHardFromPublic = errors.New("cannot derive a hardened key " +
		"from a public key")

	// ErrDeriveBeyondMaxDepth describes an error in which the caller has
	// attempted to derive more than 255 keys from a root key.
	ErrDeriveBeyondMaxDepth = errors.New("cannot derive a key with more " +
		"than 255 indices in its path")

	// ErrNotPrivExtKey describes an error in which the caller attempted to
	// extract a private key from a public extended key.
	ErrNotPrivExtKey = errors.New("unable to create private keys from a " +
		"public extended key")

	// ErrInvalidChild describes an error in which the child at a specific
	// index is invalid per BIP32 (extraordinarily rare, probability
	// 1/2^127).
	ErrInvalidChild = errors.New("the extended key at this index is invalid")

	// ErrUnusableSeed describes an error in which the provided seed is not
	// usable due to the derived key falling outside of the valid range for
	// secp256k1 private keys (extraordinarily rare).
	ErrUnusableSeed = errors.New("unusable seed")

	// ErrInvalidSeedLen describes an error in which the provided seed or
	// seed length is not in the allowed range.
	ErrInvalidSeedLen = errors.New("seed length must be between 128 and " +
		"512 bits")

	// ErrBadChecksum describes an error in which the checksum encoded in a
	// serialized extended key does not match the checksum of the serialized
	// data.
	ErrBadChecksum = errors.New("bad extended key checksum")

	// ErrInvalidKeyLen describes an error in which the provided serialized
	// key is not the expected length.
	ErrInvalidKeyLen = errors.New("the provided serialized extended key " +
		"length is invalid")

	// ErrZeroedKey describes an error in which an operation is attempted
	// against a key whose underlying material has been zeroed.
	ErrZeroedKey = errors.New("zeroed extended key")
)

// masterKey is the master key used along with a random seed used to generate
// the master node in the hierarchical tree.
var masterKey = []byte("Bitcoin seed")

// ExtendedKey houses all the information needed to support a BIP32
// hierarchical deterministic extended key.
type ExtendedKey struct {
	privVer   [4]byte
	pubVer    [4]byte
	key       []byte // 33 bytes: serialized compressed pubkey, or 32 raw privkey bytes
	pubKey    []byte // 33 bytes: always the compressed public key
	chainCode []byte
	parentFP  []byte
	depth     uint8
	childNum  uint32
	isPrivate bool
}

// NewExtendedKey returns a new instance of an extended key with the given
// fields. No error checking is performed here as it's only intended to be a
// convenience method used to create a populated struct.
func NewExtendedKey(privVer, pubVer [4]byte, key, chainCode, parentFP []byte,
	depth uint8, childNum uint32, isPrivate bool) *ExtendedKey {

	return &ExtendedKey{
		privVer:   privVer,
		pubVer:    pubVer,
		key:       key,
		chainCode: chainCode,
		parentFP:  parentFP,
		depth:     depth,
		childNum:  childNum,
		isPrivate: isPrivate,
	}
}

// IsPrivate returns whether or not the extended key is a private extended
// key.
func (k *ExtendedKey) IsPrivate() bool {
	return k.isPrivate
}

// Depth returns the current derivation level with respect to the root.
func (k *ExtendedKey) Depth() uint8 {
	return k.depth
}

// ParentFingerprint returns a fingerprint of the parent extended key from
// which this one was derived.
func (k *ExtendedKey) ParentFingerprint() uint32 {
	return binary.BigEndian.Uint32(k.parentFP)
}

// ChildIndex returns the child index used to derive this key.
func (k *ExtendedKey) ChildIndex() uint32 {
	return k.childNum
}

// ChainCode returns the chain code for this extended key.
func (k *ExtendedKey) ChainCode() []byte {
	chainCode := make([]byte, len(k.chainCode))
	copy(chainCode, k.chainCode)
	return chainCode
}

// fingerprint returns the first four bytes of HASH160(pubkey).
func (k *ExtendedKey) fingerprint() ([]byte, error) {
	pubKeyBytes, err := k.pubKeyBytes()
	if err != nil {
		return nil, err
	}
	return keyutil.Hash160(pubKeyBytes)[:4], nil
}

// pubKeyBytes returns bytes for the serialized compressed public key
// associated with this extended key, regardless of whether it is a private
// or public key.
func (k *ExtendedKey) pubKeyBytes() ([]byte, error) {
	if !k.isPrivate {
		return k.key, nil
	}
	if k.pubKey == nil {
		if len(k.key) == 0 {
			return nil, ErrZeroedKey
		}
		privKey := secp256k1.PrivKeyFromBytes(k.key)
		k.pubKey = privKey.PubKey().SerializeCompressed()
	}
	return k.pubKey, nil
}

// Child returns a derived child extended key at the given index.
//
// When this extended key is a private extended key (as determined by the
// IsPrivate function), a private extended key will be derived. Otherwise the
// derived extended key will also be a public extended key.
//
// When the index is greater than or equal to the HardenedKeyStart constant,
// the derived extended key will be a hardened extended key. It is only
// possible to derive a hardened extended key from a private extended key.
// Consequently, this function will return ErrDeriveHardFromPublic if a
// hardened child extended key is requested from a public extended key.
//
// NOTE: There is an extremely small chance (< 1 in 2^127) the specific child
// index does not derive to a usable child. The ErrInvalidChild error will be
// returned if this should occur.
func (k *ExtendedKey) Child(i uint32) (*ExtendedKey, error) {
	isChildHardened := i >= HardenedKeyStart
	if !k.isPrivate && isChildHardened {
		return nil, ErrDeriveHardFromPublic
	}
	if len(k.key) == 0 {
		return nil, ErrZeroedKey
	}
	if k.depth == maxUint8 {
		return nil, ErrDeriveBeyondMaxDepth
	}

	keyLen := 33
	data := make([]byte, keyLen+4)
	if isChildHardened {
		copy(data[1:], k.key)
	} else {
		pubKeyBytes, err := k.pubKeyBytes()
		if err != nil {
			return nil, err
		}
		copy(data, pubKeyBytes)
	}
	binary.BigEndian.PutUint32(data[keyLen:], i)

	hmac512 := hmac.New(sha512.New, k.chainCode)
	hmac512.Write(data)
	ilr := hmac512.Sum(nil)

	il := ilr[:32]
	childChainCode := ilr[32:]

	var ilNum secp256k1.ModNScalar
	overflow := ilNum.SetByteSlice(il)
	if overflow || ilNum.IsZero() {
		return nil, ErrInvalidChild
	}

	var childKey *ExtendedKey
	if k.isPrivate {
		var keyNum secp256k1.ModNScalar
		keyNum.SetByteSlice(k.key)
		ilNum.Add(&keyNum)
		if ilNum.IsZero() {
			return nil, ErrInvalidChild
		}
		childKeyBytes := ilNum.Bytes()

		fp, err := k.fingerprint()
		if err != nil {
			return nil, err
		}
		childKey = NewExtendedKey(k.privVer, k.pubVer, childKeyBytes[:], childChainCode,
			fp, k.depth+1, i, true)
	} else {
		pubKey, err := secp256k1.ParsePubKey(k.key)
		if err != nil {
			return nil, err
		}

		ilPoint := ilNum.Bytes()
		ilPriv := secp256k1.PrivKeyFromBytes(ilPoint[:])
		var ilJ, pubJ, sumJ secp256k1.JacobianPoint
		ilPriv.PubKey().AsJacobian(&ilJ)
		pubKey.AsJacobian(&pubJ)
		secp256k1.AddNonConst(&ilJ, &pubJ, &sumJ)
		if (sumJ.X.IsZero() && sumJ.Y.IsZero()) || sumJ.Z.IsZero() {
			return nil, ErrInvalidChild
		}
		sumJ.ToAffine()
		childPubKey := secp256k1.NewPublicKey(&sumJ.X, &sumJ.Y)

		fp, err := k.fingerprint()
		if err != nil {
			return nil, err
		}
		childKey = NewExtendedKey(k.privVer, k.pubVer,
			childPubKey.SerializeCompressed(), childChainCode, fp, k.depth+1, i, false)
	}

	return childKey, nil
}

// Neuter returns a new extended public key from this extended private key.
// The same extended key will be returned unaltered if it is already a
// public key.
func (k *ExtendedKey) Neuter() (*ExtendedKey, error) {
	if !k.isPrivate {
		return k, nil
	}

	pubKeyBytes, err := k.pubKeyBytes()
	if err != nil {
		return nil, err
	}

	return NewExtendedKey(k.privVer, k.pubVer, pubKeyBytes, k.chainCode, k.parentFP,
		k.depth, k.childNum, false), nil
}

// ECPubKey converts the extended key to a secp256k1 public key and returns
// it.
func (k *ExtendedKey) ECPubKey() (*secp256k1.PublicKey, error) {
	pubKeyBytes, err := k.pubKeyBytes()
	if err != nil {
		return nil, err
	}
	if len(pubKeyBytes) == 0 {
		return nil, errors.New("pubkey string is empty")
	}
	return secp256k1.ParsePubKey(pubKeyBytes)
}

// ECPrivKey converts the extended key to a secp256k1 private key and returns
// it. As you might imagine this is only possible if the extended key is a
// private extended key (as determined by the IsPrivate function). The
// ErrNotPrivExtKey error will be returned if this function is called on a
// public extended key.
func (k *ExtendedKey) ECPrivKey() (*secp256k1.PrivateKey, error) {
	if !k.isPrivate {
		return nil, ErrNotPrivExtKey
	}
	if len(k.key) == 0 {
		return nil, ErrZeroedKey
	}
	return secp256k1.PrivKeyFromBytes(k.key), nil
}

// Address converts the extended key to a standard pay-to-pubkey-hash address
// for the passed network.
func (k *ExtendedKey) Address(net *chaincfg.Params) (*keyutil.AddressPubKeyHash, error) {
	pubKeyBytes, err := k.pubKeyBytes()
	if err != nil {
		return nil, err
	}
	return keyutil.NewAddressPubKeyHash(keyutil.Hash160(pubKeyBytes), net.PubKeyHashAddrID)
}

// String returns the extended key as a human-readable base58-encoded string.
func (k *ExtendedKey) String() (string, error) {
	if len(k.key) == 0 {
		return "", ErrZeroedKey
	}

	var childNumBytes [4]byte
	binary.BigEndian.PutUint32(childNumBytes[:], k.childNum)

	serializedBytes := make([]byte, 0, serializedKeyLen)
	if k.isPrivate {
		serializedBytes = append(serializedBytes, k.privVer[:]...)
	} else {
		serializedBytes = append(serializedBytes, k.pubVer[:]...)
	}
	serializedBytes = append(serializedBytes, k.depth)
	serializedBytes = append(serializedBytes, k.parentFP...)
	serializedBytes = append(serializedBytes, childNumBytes[:]...)
	serializedBytes = append(serializedBytes, k.chainCode...)
	if k.isPrivate {
		serializedBytes = append(serializedBytes, 0x00)
		serializedBytes = paddedAppend(32, serializedBytes, k.key)
	} else {
		pubKeyBytes, err := k.pubKeyBytes()
		if err != nil {
			return "", err
		}
		serializedBytes = append(serializedBytes, pubKeyBytes...)
	}

	checksum := chainhash.HashB(chainhash.HashB(serializedBytes))[:4]
	serializedBytes = append(serializedBytes, checksum...)
	return base58Encode(serializedBytes), nil
}

// paddedAppend appends the src byte slice to dst, ensuring the appended
// bytes are padded with zeroes at the front so the total size of the appended
// data is padLen.
func paddedAppend(padLen int, dst, src []byte) []byte {
	for i := 0; i < padLen-len(src); i++ {
		dst = append(dst, 0)
	}
	return append(dst, src...)
}

// Zero manually clears all of the fields of the extended key, effectively
// rendering it unusable. This is intended to be used to explicitly clear key
// material from memory once it is no longer needed.
func (k *ExtendedKey) Zero() {
	zero(k.key)
	zero(k.pubKey)
	zero(k.chainCode)
	zero(k.parentFP)
	k.key = nil
	k.pubKey = nil
	k.chainCode = nil
	k.parentFP = nil
	k.privVer = [4]byte{}
	k.pubVer = [4]byte{}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// IsForNet returns whether or not the extended key is associated with the
// passed network.
func (k *ExtendedKey) IsForNet(net *chaincfg.Params) bool {
	return k.privVer == net.HDKeyID.Priv && k.pubVer == net.HDKeyID.Pub
}

// SetNet associates the extended key, and any child keys yet to be derived
// from it, with the passed network.
func (k *ExtendedKey) SetNet(net *chaincfg.Params) {
	k.privVer = net.HDKeyID.Priv
	k.pubVer = net.HDKeyID.Pub
}

// NewMaster creates a new master node for use in creating a hierarchical
// deterministic key chain. The seed must be between 128 and 512 bits and
// should be generated by a cryptographically secure random generation
// source.
func NewMaster(seed []byte, net *chaincfg.Params) (*ExtendedKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, ErrInvalidSeedLen
	}

	hmac512 := hmac.New(sha512.New, masterKey)
	hmac512.Write(seed)
	lr := hmac512.Sum(nil)

	secretKey := lr[:len(lr)/2]
	chainCode := lr[len(lr)/2:]

	var keyNum secp256k1.ModNScalar
	overflow := keyNum.SetByteSlice(secretKey)
	if overflow || keyNum.IsZero() {
		return nil, ErrUnusableSeed
	}

	parentFP := []byte{0x00, 0x00, 0x00, 0x00}
	return NewExtendedKey(net.HDKeyID.Priv, net.HDKeyID.Pub, secretKey, chainCode,
		parentFP, 0, 0, true), nil
}

// GenerateSeed returns a cryptographically secure random seed that can be
// used as the input for the NewMaster function to generate a new master
// node.
//
// The length is in bytes and it must be between 16 and 64 (128 to 512 bits).
// The recommended length is 32 (256 bits) as defined by the RecommendedSeedLen
// constant.
func GenerateSeed(length uint8) ([]byte, error) {
	if length < MinSeedBytes || length > MaxSeedBytes {
		return nil, ErrInvalidSeedLen
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
