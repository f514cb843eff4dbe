package ordscript

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/input"
)

// ErrSigning is returned if no valid signature for the envelope leaf could be
// produced.
var ErrSigning = errors.New("unable to sign reveal transaction")

// Signer is the interface used to sign the reveal transaction. The signer is
// asked to produce a BIP-340 signature for the script path spend described by
// the sign descriptor. Implementations may be backed by a local key, a remote
// node or a hardware device, the passed context should be used to bound the
// time spent waiting for them.
type Signer interface {
	// SignRevealTx signs the input of the reveal transaction that is
	// described by the sign descriptor.
	SignRevealTx(ctx context.Context, signDesc *lndclient.SignDescriptor,
		tx *wire.MsgTx, prevOut *wire.TxOut) (*schnorr.Signature, error)
}

// PrivKeySigner is a Signer that holds the private key in memory.
type PrivKeySigner struct {
	privKey *btcec.PrivateKey
}

// NewPrivKeySigner creates a signer for the given private key.
func NewPrivKeySigner(privKey *btcec.PrivateKey) *PrivKeySigner {
	return &PrivKeySigner{
		privKey: privKey,
	}
}

// PubKey returns the public key of the signer.
func (p *PrivKeySigner) PubKey() *btcec.PublicKey {
	return p.privKey.PubKey()
}

// SignRevealTx creates a tapscript signature for the leaf in the sign
// descriptor.
//
// NOTE: This is part of the Signer interface.
func (p *PrivKeySigner) SignRevealTx(_ context.Context,
	signDesc *lndclient.SignDescriptor, tx *wire.MsgTx,
	prevOut *wire.TxOut) (*schnorr.Signature, error) {

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		prevOut.PkScript, prevOut.Value,
	)

	fullSignDesc := &input.SignDescriptor{
		KeyDesc:           signDesc.KeyDesc,
		WitnessScript:     signDesc.WitnessScript,
		SignMethod:        signDesc.SignMethod,
		Output:            signDesc.Output,
		HashType:          signDesc.HashType,
		SigHashes:         txscript.NewTxSigHashes(tx, prevOutFetcher),
		PrevOutputFetcher: prevOutFetcher,
		InputIndex:        signDesc.InputIndex,
	}

	return p.signOutputRaw(tx, fullSignDesc)
}

func (p *PrivKeySigner) signOutputRaw(tx *wire.MsgTx,
	signDesc *input.SignDescriptor) (*schnorr.Signature, error) {

	if signDesc.SignMethod != input.TaprootScriptSpendSignMethod {
		return nil, fmt.Errorf("unsupported sign method %v",
			signDesc.SignMethod)
	}

	// The envelope leaf can only be spent with the key it commits to, so
	// we refuse to sign for anything else.
	keyDesc := signDesc.KeyDesc
	if keyDesc.PubKey != nil && !bytes.Equal(
		schnorr.SerializePubKey(keyDesc.PubKey),
		schnorr.SerializePubKey(p.privKey.PubKey()),
	) {

		return nil, fmt.Errorf("signer key %x doesn't match %x",
			schnorr.SerializePubKey(p.privKey.PubKey()),
			schnorr.SerializePubKey(keyDesc.PubKey))
	}

	if !txscript.IsPayToTaproot(signDesc.Output.PkScript) {
		return nil, fmt.Errorf("output script not taproot")
	}

	rawSig, err := txscript.RawTxInTapscriptSignature(
		tx, signDesc.SigHashes, signDesc.InputIndex,
		signDesc.Output.Value, signDesc.Output.PkScript,
		txscript.NewBaseTapLeaf(signDesc.WitnessScript),
		signDesc.HashType, p.privKey,
	)
	if err != nil {
		return nil, err
	}

	// A non default sighash type is appended to the signature. We only
	// hand out the plain signature.
	if len(rawSig) > schnorr.SignatureSize {
		rawSig = rawSig[:schnorr.SignatureSize]
	}

	return schnorr.ParseSignature(rawSig)
}

// A compile time assertion to ensure PrivKeySigner meets the Signer
// interface.
var _ Signer = (*PrivKeySigner)(nil)
