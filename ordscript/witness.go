package ordscript

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

const (
	// maxWitnessItems is the maximum number of items we'll read from a
	// serialized witness stack.
	maxWitnessItems = 500_000

	// maxWitnessItemSize is the largest single witness item we'll read.
	// This is bounded by the maximum block weight.
	maxWitnessItemSize = 4_000_000
)

// ErrInvalidWitness is returned if a serialized witness stack can't be
// decoded.
var ErrInvalidWitness = errors.New("invalid witness stack")

// EncodeWitnessStack serializes the witness items the way they appear in a
// segwit transaction: a compact size item count followed by each item with a
// compact size length prefix.
func EncodeWitnessStack(items [][]byte) []byte {
	size := wire.VarIntSerializeSize(uint64(len(items)))
	for _, item := range items {
		size += wire.VarIntSerializeSize(uint64(len(item))) + len(item)
	}

	var buf bytes.Buffer
	buf.Grow(size)

	// Writing to a bytes.Buffer can't fail.
	_ = writeWitnessStack(&buf, items)

	return buf.Bytes()
}

func writeWitnessStack(w io.Writer, items [][]byte) error {
	err := wire.WriteVarInt(w, 0, uint64(len(items)))
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := wire.WriteVarBytes(w, 0, item); err != nil {
			return err
		}
	}

	return nil
}

// DecodeWitnessStack is the inverse of EncodeWitnessStack. The input must
// contain exactly one serialized stack.
func DecodeWitnessStack(b []byte) ([][]byte, error) {
	r := bytes.NewReader(b)
	items, err := readWitnessStack(r)
	if err != nil {
		return nil, err
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes",
			ErrInvalidWitness, r.Len())
	}

	return items, nil
}

func readWitnessStack(r io.Reader) ([][]byte, error) {
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: reading item count: %v",
			ErrInvalidWitness, err)
	}
	if count > maxWitnessItems {
		return nil, fmt.Errorf("%w: too many items (%d)",
			ErrInvalidWitness, count)
	}

	items := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		item, err := wire.ReadVarBytes(
			r, 0, maxWitnessItemSize, "witness item",
		)
		if err != nil {
			return nil, fmt.Errorf("%w: reading item %d: %v",
				ErrInvalidWitness, i, err)
		}

		items = append(items, item)
	}

	return items, nil
}
