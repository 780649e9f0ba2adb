// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "testing"

func TestTokenizerWalksPubKeyHashScript(t *testing.T) {
	script := []byte{OP_DUP, OP_HASH160, 0x02, 0xaa, 0xbb, OP_EQUALVERIFY, OP_CHECKSIG}
	tok := MakeScriptTokenizer(0, script)

	wantOps := []byte{OP_DUP, OP_HASH160, 0x02, OP_EQUALVERIFY, OP_CHECKSIG}
	var gotOps []byte
	for tok.Next() {
		gotOps = append(gotOps, tok.Opcode())
	}
	if tok.Err() != nil {
		t.Fatalf("Err: unexpected error: %v", tok.Err())
	}
	if !tok.Done() {
		t.Fatal("Done: expected true after exhausting the script")
	}
	if len(gotOps) != len(wantOps) {
		t.Fatalf("got %d opcodes, want %d", len(gotOps), len(wantOps))
	}
}

func TestTokenizerExposesPushedData(t *testing.T) {
	script := []byte{0x02, 0xaa, 0xbb}
	tok := MakeScriptTokenizer(0, script)
	if !tok.Next() {
		t.Fatalf("Next: expected a token, err=%v", tok.Err())
	}
	data := tok.Data()
	if len(data) != 2 || data[0] != 0xaa || data[1] != 0xbb {
		t.Fatalf("Data: got %x, want aabb", data)
	}
}

func TestTokenizerErrorsOnTruncatedPush(t *testing.T) {
	script := []byte{0x05, 0xaa} // claims a 5-byte push but only provides one byte
	tok := MakeScriptTokenizer(0, script)
	if tok.Next() {
		t.Fatal("Next: expected false for a truncated push")
	}
	if tok.Err() == nil {
		t.Fatal("Err: expected a non-nil error for a truncated push")
	}
}
