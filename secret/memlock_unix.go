// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build !windows

package secret

import "golang.org/x/sys/unix"

// lockMemory pins b's backing array out of swap, best-effort: a failure here
// is not fatal to secret handling, it only weakens the no-swap guarantee, so
// it is logged rather than propagated.
func lockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	if err := unix.Mlock(b); err != nil {
		log.Warnf("secret: mlock failed: %v", err)
	}
}

// unlockMemory releases a locked allocation obtained from lockMemory.
func unlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}
