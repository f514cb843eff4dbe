package inscription

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// ContentTypeTag is the envelope field tag that precedes the content
	// type push.
	ContentTypeTag byte = 1

	// MaxPushSize is the largest single data push allowed in a tapscript.
	// Bodies larger than this are split over multiple pushes.
	MaxPushSize = txscript.MaxScriptElementSize
)

var (
	// ProtocolID is the marker pushed right after OP_IF that identifies
	// the envelope as an ordinal inscription.
	ProtocolID = []byte("ord")

	// ErrInvalidScript is returned if an envelope can't be built from the
	// given inscription or if a script isn't a well-formed envelope.
	ErrInvalidScript = errors.New("invalid inscription script")
)

// appendPush appends a literal data push of the given bytes to the script.
// Unlike the txscript.ScriptBuilder, small values are never replaced by their
// OP_N counterparts, which is what envelope parsers expect.
func appendPush(script, data []byte) []byte {
	switch n := len(data); {
	case n == 0:
		return append(script, txscript.OP_0)

	case n < txscript.OP_PUSHDATA1:
		script = append(script, byte(n))

	case n <= 0xff:
		script = append(script, txscript.OP_PUSHDATA1, byte(n))

	default:
		script = append(
			script, txscript.OP_PUSHDATA2, byte(n), byte(n>>8),
		)
	}

	return append(script, data...)
}

// EnvelopeScript builds the tapscript leaf that commits to the inscription:
//
//	<x-only key> OP_CHECKSIG OP_FALSE OP_IF
//	  "ord" 0x01 <content type> OP_0 <body chunk>...
//	OP_ENDIF
//
// Only the OP_CHECKSIG governs the spend, the OP_IF branch is never executed
// and is read out of the witness by indexers. The body is split into pushes
// of at most MaxPushSize bytes. The resulting script is allowed to exceed the
// legacy script size limit as it is only ever revealed in a tapscript.
func EnvelopeScript(key *btcec.PublicKey, ins *Inscription) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: missing key", ErrInvalidScript)
	}
	if ins == nil {
		return nil, fmt.Errorf("%w: missing inscription",
			ErrInvalidScript)
	}

	switch {
	case len(ins.ContentType) == 0:
		return nil, fmt.Errorf("%w: empty content type",
			ErrInvalidScript)

	case len(ins.ContentType) > MaxPushSize:
		return nil, fmt.Errorf("%w: content type of %d bytes exceeds "+
			"max push size of %d", ErrInvalidScript,
			len(ins.ContentType), MaxPushSize)
	}

	header, err := txscript.NewScriptBuilder().
		AddData(schnorr.SerializePubKey(key)).
		AddOp(txscript.OP_CHECKSIG).
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData(ProtocolID).
		AddOp(txscript.OP_DATA_1).
		AddOp(ContentTypeTag).
		Script()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}

	script := appendPush(header, ins.ContentType)
	script = append(script, txscript.OP_0)

	if len(ins.Body) == 0 {
		script = appendPush(script, nil)
	}
	for i := 0; i < len(ins.Body); i += MaxPushSize {
		end := i + MaxPushSize
		if end > len(ins.Body) {
			end = len(ins.Body)
		}

		script = appendPush(script, ins.Body[i:end])
	}

	return append(script, txscript.OP_ENDIF), nil
}

// isPush returns true if the opcode pushes data onto the stack.
func isPush(op byte) bool {
	return op <= txscript.OP_PUSHDATA4
}

// fieldTag returns the envelope field tag encoded by the current token.
// Older envelopes used OP_1 instead of a literal push of 0x01.
func fieldTag(tok *txscript.ScriptTokenizer) ([]byte, bool) {
	op := tok.Opcode()
	switch {
	case isPush(op):
		return tok.Data(), true

	case op >= txscript.OP_1 && op <= txscript.OP_16:
		return []byte{op - txscript.OP_1 + 1}, true

	default:
		return nil, false
	}
}

// ParseEnvelope extracts the signing key and the inscription from a leaf
// script built by EnvelopeScript.
func ParseEnvelope(script []byte) (*btcec.PublicKey, *Inscription, error) {
	mkErr := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidScript,
			fmt.Sprintf(format, args...))
	}

	tok := txscript.MakeScriptTokenizer(0, script)

	// expectOp advances the tokenizer and makes sure the next token is the
	// given opcode.
	expectOp := func(op byte) error {
		if !tok.Next() || tok.Opcode() != op {
			return mkErr("expected opcode %x at offset %d", op,
				tok.ByteIndex())
		}
		return nil
	}

	if !tok.Next() || len(tok.Data()) != schnorr.PubKeyBytesLen {
		return nil, nil, mkErr("missing x-only key push")
	}
	key, err := schnorr.ParsePubKey(tok.Data())
	if err != nil {
		return nil, nil, mkErr("invalid key: %v", err)
	}

	for _, op := range []byte{
		txscript.OP_CHECKSIG, txscript.OP_FALSE, txscript.OP_IF,
	} {
		if err := expectOp(op); err != nil {
			return nil, nil, err
		}
	}

	if !tok.Next() || !bytes.Equal(tok.Data(), ProtocolID) {
		return nil, nil, mkErr("missing protocol id")
	}

	var (
		ins     Inscription
		inBody  bool
		hasBody bool
	)
	for tok.Next() {
		op := tok.Opcode()
		if op == txscript.OP_ENDIF {
			break
		}

		if inBody {
			if !isPush(op) {
				return nil, nil, mkErr("non push opcode %x in "+
					"body", op)
			}
			ins.Body = append(ins.Body, tok.Data()...)
			continue
		}

		// OP_0 separates the fields from the body.
		if op == txscript.OP_0 {
			inBody = true
			hasBody = true
			continue
		}

		tag, ok := fieldTag(&tok)
		if !ok || len(tag) != 1 {
			return nil, nil, mkErr("invalid field tag")
		}
		if !tok.Next() || !isPush(tok.Opcode()) {
			return nil, nil, mkErr("missing value for tag %x",
				tag[0])
		}

		switch tag[0] {
		case ContentTypeTag:
			ins.ContentType = append([]byte(nil), tok.Data()...)

		default:
			log.Tracef("Skipping unknown envelope field with "+
				"tag=%x", tag[0])
		}
	}
	if err := tok.Err(); err != nil {
		return nil, nil, mkErr("%v", err)
	}

	// The envelope must be terminated and be the last part of the script.
	if tok.Opcode() != txscript.OP_ENDIF {
		return nil, nil, mkErr("unterminated envelope")
	}
	if tok.Next() || tok.Err() != nil {
		return nil, nil, mkErr("trailing data after envelope")
	}
	if len(ins.ContentType) == 0 {
		return nil, nil, mkErr("missing content type")
	}
	if hasBody && ins.Body == nil {
		ins.Body = []byte{}
	}

	return key, &ins, nil
}
