// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

//go:build windows

package secret

// lockMemory is a no-op on platforms where this core has no locked-page
// primitive wired in. The plaintext is still zeroed on release; it is just
// not pinned out of swap.
func lockMemory(b []byte) {}

// unlockMemory is a no-op counterpart to lockMemory.
func unlockMemory(b []byte) {}
