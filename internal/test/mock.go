package test

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/input"
	"github.com/lightningnetwork/lnd/keychain"
	"github.com/lightningnetwork/lnd/lnrpc/signrpc"
)

// SignOutputRawRequest contains input data for a tx signing request.
type SignOutputRawRequest struct {
	Tx              *wire.MsgTx
	SignDescriptors []*lndclient.SignDescriptor
	PrevOutputs     []*wire.TxOut
}

// NewMockSigner creates a mock lnd signer that holds the given private key for
// every key locator it is asked about.
func NewMockSigner(privKey *btcec.PrivateKey) *MockSigner {
	return &MockSigner{
		PrivKey:              privKey,
		SignOutputRawChannel: make(chan SignOutputRawRequest, 10),
	}
}

// MockSigner is an lndclient.SignerClient that creates real tapscript
// signatures with a single private key. All calls to SignOutputRaw are
// recorded on SignOutputRawChannel, if the channel is full the request is
// dropped.
type MockSigner struct {
	lndclient.SignerClient

	PrivKey *btcec.PrivateKey

	// FailWith, if set, is returned by SignOutputRaw.
	FailWith error

	SignOutputRawChannel chan SignOutputRawRequest
}

func (s *MockSigner) RawClientWithMacAuth(
	ctx context.Context) (context.Context, time.Duration,
	signrpc.SignerClient) {

	return ctx, 0, nil
}

// SignOutputRaw signs every descriptor with the script path method.
func (s *MockSigner) SignOutputRaw(_ context.Context, tx *wire.MsgTx,
	signDescriptors []*lndclient.SignDescriptor,
	prevOutputs []*wire.TxOut) ([][]byte, error) {

	select {
	case s.SignOutputRawChannel <- SignOutputRawRequest{
		Tx:              tx,
		SignDescriptors: signDescriptors,
		PrevOutputs:     prevOutputs,
	}:
	default:
	}

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	if len(prevOutputs) != len(tx.TxIn) {
		return nil, fmt.Errorf("mock signer: got %d prev outputs for "+
			"%d inputs", len(prevOutputs), len(tx.TxIn))
	}

	prevOutFetcher := txscript.NewMultiPrevOutFetcher(nil)
	for idx, txIn := range tx.TxIn {
		prevOutFetcher.AddPrevOut(
			txIn.PreviousOutPoint, prevOutputs[idx],
		)
	}
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)

	rawSigs := make([][]byte, 0, len(signDescriptors))
	for _, desc := range signDescriptors {
		if desc.SignMethod != input.TaprootScriptSpendSignMethod {
			return nil, fmt.Errorf("mock signer: unsupported sign "+
				"method %v", desc.SignMethod)
		}

		leaf := txscript.NewBaseTapLeaf(desc.WitnessScript)
		rawSig, err := txscript.RawTxInTapscriptSignature(
			tx, sigHashes, desc.InputIndex, desc.Output.Value,
			desc.Output.PkScript, leaf, desc.HashType, s.PrivKey,
		)
		if err != nil {
			return nil, err
		}

		rawSigs = append(rawSigs, rawSig)
	}

	return rawSigs, nil
}

func (s *MockSigner) SignMessage(_ context.Context, msg []byte,
	_ keychain.KeyLocator, _ ...lndclient.SignMessageOption) ([]byte,
	error) {

	sig, err := schnorr.Sign(s.PrivKey, msg)
	if err != nil {
		return nil, err
	}

	return sig.Serialize(), nil
}

func (s *MockSigner) DeriveSharedKey(context.Context, *btcec.PublicKey,
	*keychain.KeyLocator) ([32]byte, error) {

	return [32]byte{4, 5, 6}, nil
}

// NewMockWalletKit creates a wallet kit mock that derives the public key of
// the given private key for every key locator.
func NewMockWalletKit(privKey *btcec.PrivateKey) *MockWalletKit {
	return &MockWalletKit{
		PrivKey: privKey,
	}
}

// MockWalletKit is an lndclient.WalletKitClient that only knows about one key.
type MockWalletKit struct {
	lndclient.WalletKitClient

	PrivKey *btcec.PrivateKey
}

// DeriveKey returns a key descriptor for the mock key at the given locator.
func (w *MockWalletKit) DeriveKey(_ context.Context,
	loc *keychain.KeyLocator) (*keychain.KeyDescriptor, error) {

	return &keychain.KeyDescriptor{
		KeyLocator: *loc,
		PubKey:     w.PrivKey.PubKey(),
	}, nil
}
