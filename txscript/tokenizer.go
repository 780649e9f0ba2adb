// Copyright (c) 2019-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "fmt"

// ScriptTokenizer provides a facility for easily and efficiently tokenizing
// transaction scripts without creating allocations. Each successive opcode is
// parsed with the Next function, which returns false when iteration is
// complete, either through successfully parsing all opcodes or through
// encountering an error. In the case of failure, the Err function may be used
// to obtain the specific parse error.
//
// This is a trimmed adaptation of the teacher's consensus-grade tokenizer:
// it understands only the small set of opcodes the standard script templates
// in this package use (small data pushes, small integers, and the single-byte
// opcodes), since building and recognizing those templates — not executing an
// arbitrary script — is this package's job.
type ScriptTokenizer struct {
	script []byte
	offset int32
	op     byte
	data   []byte
	err    error
}

// MakeScriptTokenizer returns a new instance of a script tokenizer for the
// passed script.
func MakeScriptTokenizer(scriptVersion uint16, script []byte) ScriptTokenizer {
	return ScriptTokenizer{script: script}
}

// Done returns true when either all opcodes have been exhausted or a parse
// failure was encountered and therefore the state has an associated error.
func (t *ScriptTokenizer) Done() bool {
	return t.err != nil || int(t.offset) >= len(t.script)
}

// Next attempts to parse the next opcode and returns whether or not it was
// successful. It will not be successful either when iteration has already
// completed or an error has already been encountered.
func (t *ScriptTokenizer) Next() bool {
	if t.Done() {
		return false
	}

	op := t.script[t.offset]
	switch {
	case op >= OP_DATA_1 && op <= 0x4b:
		dataLen := int32(op)
		if t.offset+1+dataLen > int32(len(t.script)) {
			t.err = fmt.Errorf("opcode %#x pushes %d bytes, but script only has %d "+
				"remaining", op, dataLen, len(t.script)-int(t.offset)-1)
			return false
		}

		t.op = op
		t.data = t.script[t.offset+1 : t.offset+1+dataLen]
		t.offset += 1 + dataLen

	default:
		t.op = op
		t.data = nil
		t.offset++
	}

	return true
}

// Script returns the full script associated with the tokenizer.
func (t *ScriptTokenizer) Script() []byte {
	return t.script
}

// ByteIndex returns the current offset into the full script that will be
// parsed next and therefore also implies everything before it has already
// been parsed.
func (t *ScriptTokenizer) ByteIndex() int32 {
	return t.offset
}

// Opcode returns the current opcode associated with the tokenizer.
func (t *ScriptTokenizer) Opcode() byte {
	return t.op
}

// Data returns the data associated with the most recently successfully parsed
// opcode.
func (t *ScriptTokenizer) Data() []byte {
	return t.data
}

// Err returns any errors currently associated with the tokenizer. This will
// only be non-nil in the case a parsing error was encountered.
func (t *ScriptTokenizer) Err() error {
	return t.err
}
