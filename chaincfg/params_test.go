// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"bytes"
	"testing"
)

func TestHDPrivateKeyToPublicKeyIDKnownNetworks(t *testing.T) {
	tests := []*Params{&MainNetParams, &TestNetParams, &RegNetParams, &SimNetParams}
	for _, net := range tests {
		got, err := HDPrivateKeyToPublicKeyID(net.HDKeyID.Priv[:])
		if err != nil {
			t.Errorf("%s: unexpected error: %v", net.Name, err)
			continue
		}
		if !bytes.Equal(got, net.HDKeyID.Pub[:]) {
			t.Errorf("%s: got %x, want %x", net.Name, got, net.HDKeyID.Pub)
		}
	}
}

func TestHDPrivateKeyToPublicKeyIDUnknown(t *testing.T) {
	if _, err := HDPrivateKeyToPublicKeyID([]byte{0xde, 0xad, 0xbe, 0xef}); err != ErrUnknownHDKeyID {
		t.Fatalf("got %v, want ErrUnknownHDKeyID", err)
	}
}

func TestHDPrivateKeyToPublicKeyIDWrongLength(t *testing.T) {
	if _, err := HDPrivateKeyToPublicKeyID([]byte{0x01, 0x02}); err != ErrUnknownHDKeyID {
		t.Fatalf("got %v, want ErrUnknownHDKeyID", err)
	}
}
