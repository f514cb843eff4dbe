package inscribe

import (
	"context"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/inscribe/internal/test"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/keychain"
	"github.com/stretchr/testify/require"
)

// TestLndRpcRevealSigner makes sure the lnd backed signer produces the same
// reveal transaction as the in-memory key.
func TestLndRpcRevealSigner(t *testing.T) {
	t.Parallel()

	privKey := test.RandPrivKey(t)
	mockSigner := test.NewMockSigner(privKey)
	lnd := &lndclient.LndServices{
		Signer:    mockSigner,
		WalletKit: test.NewMockWalletKit(privKey),
	}
	keyLoc := keychain.KeyLocator{
		Family: 212,
		Index:  3,
	}
	signer := NewLndRpcRevealSigner(lnd, keyLoc)

	ctx := context.Background()
	pubKey, err := signer.PubKey(ctx)
	require.NoError(t, err)
	require.True(t, privKey.PubKey().IsEqual(pubKey))

	commitData, err := ordscript.NewCommitTxData(
		pubKey.SerializeCompressed(), inscription.NewText("lnd"),
		&address.RegTestNet,
	)
	require.NoError(t, err)

	toAddr, err := address.TaprootAddress(
		schnorr.SerializePubKey(test.RandPubKey(t)), &address.RegTestNet,
	)
	require.NoError(t, err)

	commitTxID := test.RandHash()
	params := &ordscript.RevealParams{
		CommitTxData: commitData,
		CommitTxResult: &ordscript.CommitTxResult{
			TxID:          commitTxID.String(),
			SendUtxoIndex: 2,
			SendAmount:    10_000,
		},
		ToAddress: toAddr.EncodeAddress(),
		Amount:    546,
	}

	revealTx, err := ordscript.NewRevealTx(ctx, params, signer)
	require.NoError(t, err)

	// The request must carry the configured key locator and a single
	// script path sign descriptor.
	req := <-mockSigner.SignOutputRawChannel
	require.Len(t, req.SignDescriptors, 1)
	require.Equal(t, keyLoc, req.SignDescriptors[0].KeyDesc.KeyLocator)
	require.Equal(t, commitData.Script, req.SignDescriptors[0].WitnessScript)
	require.Len(t, req.PrevOutputs, 1)
	require.Equal(t, commitData.OutputScript, req.PrevOutputs[0].PkScript)

	localTx, err := ordscript.NewRevealTx(
		ctx, params, ordscript.NewPrivKeySigner(privKey),
	)
	require.NoError(t, err)
	require.Equal(t, localTx.RawTx, revealTx.RawTx)
	require.Equal(t, localTx.TxID, revealTx.TxID)

	// Errors of the node are reported as signing errors.
	mockSigner.FailWith = errors.New("wallet locked")
	_, err = ordscript.NewRevealTx(ctx, params, signer)
	require.ErrorIs(t, err, ordscript.ErrSigning)

	// A node holding another key produces an invalid signature.
	otherSigner := NewLndRpcRevealSigner(&lndclient.LndServices{
		Signer: test.NewMockSigner(test.RandPrivKey(t)),
	}, keyLoc)
	_, err = ordscript.NewRevealTx(ctx, params, otherSigner)
	require.ErrorIs(t, err, ordscript.ErrSigning)
}
