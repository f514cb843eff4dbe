package ordscript

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	// ErrInvalidKeyLength is returned if a serialized public or private
	// key doesn't have the expected number of bytes.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidKey is returned if a serialized key has the right length
	// but doesn't describe a valid key.
	ErrInvalidKey = errors.New("invalid key")
)

// ToXOnly strips the parity byte from a 33 byte compressed public key and
// returns the remaining 32 byte x coordinate.
func ToXOnly(pubKey []byte) ([]byte, error) {
	if len(pubKey) != btcec.PubKeyBytesLenCompressed {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrInvalidKeyLength, btcec.PubKeyBytesLenCompressed,
			len(pubKey))
	}

	return append([]byte(nil), pubKey[1:]...), nil
}

// ParseCompressedKey parses a 33 byte compressed public key.
func ParseCompressedKey(pubKey []byte) (*btcec.PublicKey, error) {
	if len(pubKey) != btcec.PubKeyBytesLenCompressed {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrInvalidKeyLength, btcec.PubKeyBytesLenCompressed,
			len(pubKey))
	}

	if pubKey[0] != secp256k1.PubKeyFormatCompressedEven &&
		pubKey[0] != secp256k1.PubKeyFormatCompressedOdd {

		return nil, fmt.Errorf("%w: unknown format byte %x",
			ErrInvalidKey, pubKey[0])
	}

	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return key, nil
}

// ParseXOnlyKey parses a 32 byte BIP-340 public key.
func ParseXOnlyKey(xOnly []byte) (*btcec.PublicKey, error) {
	if len(xOnly) != schnorr.PubKeyBytesLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrInvalidKeyLength, schnorr.PubKeyBytesLen, len(xOnly))
	}

	key, err := schnorr.ParsePubKey(xOnly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return key, nil
}

// ParsePrivKey parses a raw 32 byte private key scalar. Zero and values not
// below the group order are rejected.
func ParsePrivKey(privKey []byte) (*btcec.PrivateKey, error) {
	if len(privKey) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrInvalidKeyLength, btcec.PrivKeyBytesLen,
			len(privKey))
	}

	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(privKey); overflow ||
		scalar.IsZero() {

		return nil, fmt.Errorf("%w: private key out of range",
			ErrInvalidKey)
	}

	key, _ := btcec.PrivKeyFromBytes(privKey)

	return key, nil
}
