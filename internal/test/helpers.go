package test

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// RandBool rolls a random boolean.
func RandBool() bool {
	return rand.Int()%2 == 0
}

func RandPrivKey(t *testing.T) *btcec.PrivateKey {
	privKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return privKey
}

func SchnorrPubKey(t *testing.T, privKey *btcec.PrivateKey) *btcec.PublicKey {
	return SchnorrKey(t, privKey.PubKey())
}

func SchnorrKey(t *testing.T, pubKey *btcec.PublicKey) *btcec.PublicKey {
	key, err := schnorr.ParsePubKey(schnorr.SerializePubKey(pubKey))
	require.NoError(t, err)
	return key
}

func RandPubKey(t *testing.T) *btcec.PublicKey {
	return SchnorrPubKey(t, RandPrivKey(t))
}

func RandBytes(num int) []byte {
	randBytes := make([]byte, num)
	_, _ = rand.Read(randBytes)
	return randBytes
}

// RandHash returns a random 32 byte hash.
func RandHash() chainhash.Hash {
	var h chainhash.Hash
	_, _ = rand.Read(h[:])
	return h
}

// RandOutPoint returns an outpoint with a random hash and a small random
// index.
func RandOutPoint() wire.OutPoint {
	return wire.OutPoint{
		Hash:  RandHash(),
		Index: uint32(rand.Int31n(16)),
	}
}

// ParseHex decodes a hex string and fails the test if that isn't possible.
func ParseHex(t testing.TB, str string) []byte {
	t.Helper()

	b, err := hex.DecodeString(str)
	require.NoError(t, err)
	return b
}

// ParsePrivKey parses a hex encoded raw private key.
func ParsePrivKey(t testing.TB, str string) *btcec.PrivateKey {
	t.Helper()

	privKey, _ := btcec.PrivKeyFromBytes(ParseHex(t, str))
	return privKey
}
