// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package secret implements the password-gated master secret that every
// private-key access in this core passes through: a random 32-byte value,
// encrypted at rest under a user passphrase, held in plaintext only while a
// session is active and only inside a locked allocation.
package secret

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/decred/slog"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// log is this package's logging backend, set by UseLogger the way the
// teacher's own packages wire a per-package slog.Logger.
var log = slog.Disabled

// UseLogger sets the logger used by this package.
func UseLogger(logger slog.Logger) {
	log = logger
}

const (
	secretLen    = 32
	saltLen      = 16
	maxUnlockTry = 3

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = chacha20poly1305.KeySize
)

// Error kinds surfaced to callers, per the core's error taxonomy: a failed
// password prompt, a failed unlock, and a secret too large to encrypt under
// this scheme's length-prefix convention.
var (
	// ErrCallback describes an error in which the password prompt
	// collaborator failed or returned unusable data.
	ErrCallback = errors.New("secret: password callback failed")

	// ErrUnlock describes an error in which the stored ciphertext could not
	// be decrypted, after exhausting the retry budget.
	ErrUnlock = errors.New("secret: unlock failed")

	// ErrSecretTooLarge describes an error in which the plaintext secret to
	// encrypt exceeds what this scheme can address.
	ErrSecretTooLarge = errors.New("secret: secret exceeds maximum size")
)

// Prompt is the password prompt collaborator. AskOnce and AskTwice ask the
// user for a password associated with reason, within scope (an opaque
// per-profile tag so one prompt implementation can service several wallets
// at once). AskTwice additionally confirms the password was entered
// correctly twice, for the first-unlock case.
type Prompt interface {
	AskOnce(reason, scope string) (string, error)
	AskTwice(reason, scope string) (string, error)
}

// NullPrompt is a Prompt that always returns an empty password, used for
// headless tests per spec's null-object default.
type NullPrompt struct{}

// AskOnce implements Prompt.
func (NullPrompt) AskOnce(reason, scope string) (string, error) { return "", nil }

// AskTwice implements Prompt.
func (NullPrompt) AskTwice(reason, scope string) (string, error) { return "", nil }

// Store persists and retrieves the master secret's ciphertext. It is the
// narrow slice of the storage plugin (spec §6) this package needs.
type Store interface {
	LoadCiphertext(scope string) ([]byte, bool, error)
	SaveCiphertext(scope string, blob []byte) error
}

// MasterSecret gates plaintext access to a random 32-byte secret behind a
// password-unlockable symmetric key with an inactivity timeout. All state is
// guarded by one mutex, matching the teacher's small stateful-guard idiom.
type MasterSecret struct {
	mu sync.Mutex

	scope  string
	prompt Prompt
	store  Store

	plaintext  []byte // locked allocation; nil when locked
	unlockedAt time.Time
	timeout    time.Duration // negative means never expire

	quit chan struct{}
	wg   sync.WaitGroup
}

// New returns a MasterSecret for the given profile scope, backed by store
// for ciphertext persistence and prompt for password collection. timeout is
// the idle window after which the plaintext is cleared; a negative timeout
// disables expiry.
func New(scope string, store Store, prompt Prompt, timeout time.Duration) *MasterSecret {
	if prompt == nil {
		prompt = NullPrompt{}
	}
	m := &MasterSecret{
		scope:   scope,
		prompt:  prompt,
		store:   store,
		timeout: timeout,
		quit:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.idleTimer()
	return m
}

// SetTimeout updates the idle timeout. A negative value disables expiry.
func (m *MasterSecret) SetTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
}

// Close stops the idle timer goroutine and zeroes the cached plaintext. It
// does not touch the persisted ciphertext.
func (m *MasterSecret) Close() {
	close(m.quit)
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// idleTimer clears the plaintext once the idle timeout has elapsed since the
// last access, checking in 250ms quanta per spec's concurrency model.
func (m *MasterSecret) idleTimer() {
	defer m.wg.Done()
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.plaintext != nil && m.timeout >= 0 && time.Since(m.unlockedAt) >= m.timeout {
				m.clearLocked()
			}
			m.mu.Unlock()
		}
	}
}

// clearLocked zeroes and releases the cached plaintext. Caller must hold mu.
func (m *MasterSecret) clearLocked() {
	if m.plaintext == nil {
		return
	}
	zero(m.plaintext)
	unlockMemory(m.plaintext)
	m.plaintext = nil
}

// GetSecret returns the 32-byte master secret, unlocking it (via the
// password prompt) if it is not already cached from a prior access within
// the idle timeout. reason is passed through to the prompt for display.
// askTwice requests the two-prompt confirmation flow used for first-launch
// creation.
func (m *MasterSecret) GetSecret(reason string, askTwice bool) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plaintext != nil {
		m.unlockedAt = time.Now()
		return m.copyPlaintextLocked(), nil
	}

	ciphertext, found, err := m.store.LoadCiphertext(m.scope)
	if err != nil {
		return nil, ErrUnlock
	}

	if !found {
		return m.createLocked(reason, askTwice)
	}
	return m.unlockLocked(reason, ciphertext)
}

// createLocked generates a fresh secret, obtains a confirmed password, seals
// the secret, and persists the ciphertext. Caller must hold mu.
func (m *MasterSecret) createLocked(reason string, askTwice bool) ([]byte, error) {
	plaintext := make([]byte, secretLen)
	if _, err := rand.Read(plaintext); err != nil {
		return nil, ErrCallback
	}

	var password string
	var err error
	if askTwice {
		password, err = m.prompt.AskTwice(reason, m.scope)
	} else {
		password, err = m.prompt.AskOnce(reason, m.scope)
	}
	if err != nil {
		return nil, ErrCallback
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, ErrCallback
	}

	blob, err := seal(password, salt, plaintext)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveCiphertext(m.scope, blob); err != nil {
		return nil, ErrUnlock
	}

	lockMemory(plaintext)
	m.plaintext = plaintext
	m.unlockedAt = time.Now()
	return m.copyPlaintextLocked(), nil
}

// unlockLocked asks for the password up to maxUnlockTry times, attempting to
// decrypt ciphertext on each try. Caller must hold mu.
func (m *MasterSecret) unlockLocked(reason string, ciphertext []byte) ([]byte, error) {
	for try := 0; try < maxUnlockTry; try++ {
		password, err := m.prompt.AskOnce(reason, m.scope)
		if err != nil {
			return nil, ErrCallback
		}

		plaintext, err := open(password, ciphertext)
		if err == nil {
			lockMemory(plaintext)
			m.plaintext = plaintext
			m.unlockedAt = time.Now()
			return m.copyPlaintextLocked(), nil
		}
		log.Debugf("secret: unlock attempt %d/%d failed", try+1, maxUnlockTry)
	}
	return nil, ErrUnlock
}

// copyPlaintextLocked returns a fresh copy of the cached plaintext so
// callers never hold a reference into the package's locked allocation.
// Caller must hold mu.
func (m *MasterSecret) copyPlaintextLocked() []byte {
	cp := make([]byte, len(m.plaintext))
	copy(cp, m.plaintext)
	return cp
}

// deriveKey derives a ChaCha20-Poly1305 key from password and salt using
// Argon2id, standing in for the prescribed "Argon2id-equivalent KDF keyed by
// password with a stable per-profile salt."
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// seal encrypts plaintext under a key derived from password and salt,
// returning salt ‖ nonce ‖ ciphertext.
func seal(password string, salt, plaintext []byte) ([]byte, error) {
	if len(plaintext) > 1<<31-1 {
		return nil, ErrSecretTooLarge
	}

	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrCallback
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, ErrCallback
	}

	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// open decrypts a blob produced by seal.
func open(password string, blob []byte) ([]byte, error) {
	if len(blob) < saltLen+chacha20poly1305.NonceSize {
		return nil, ErrUnlock
	}

	salt := blob[:saltLen]
	nonce := blob[saltLen : saltLen+chacha20poly1305.NonceSize]
	ciphertext := blob[saltLen+chacha20poly1305.NonceSize:]

	key := deriveKey(password, salt)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, ErrUnlock
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrUnlock
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
