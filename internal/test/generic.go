package test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// RunUnknownTypeTest is a generic test for the behavior of a TLV decoding
// function when it encounters a type it doesn't know. An unknown even type
// appended to the encoded item must make decoding fail with an error matching
// unknownTypeErr, an unknown odd type must be skipped.
func RunUnknownTypeTest[T any](t *testing.T, knownItem T,
	unknownTypeErr error, encode func(*bytes.Buffer, T) error,
	decode func(*bytes.Buffer) (T, error), verify func(T)) {

	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, knownItem))

	unknownTypeValue := []byte("I could be anything, really")
	unknownEvenType := append([]byte{
		byte(40),                    // Type 40 is unknown.
		byte(len(unknownTypeValue)), // Length of the value.
	}, unknownTypeValue...)
	buf.Write(unknownEvenType)

	_, err := decode(&buf)
	require.ErrorIs(t, err, unknownTypeErr)

	unknownOddType := append([]byte{
		byte(39),                    // Type 39 is unknown.
		byte(len(unknownTypeValue)), // Length of the value.
	}, unknownTypeValue...)
	buf.Reset()

	require.NoError(t, encode(&buf, knownItem))
	buf.Write(unknownOddType)

	parsedItem, err := decode(&buf)
	require.NoError(t, err)
	verify(parsedItem)
}
