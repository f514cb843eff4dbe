package ordscript

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/inscribe/internal/test"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/input"
	"github.com/stretchr/testify/require"
)

// TestRevealTxVector builds the reveal transaction of the test vectors and
// compares it to the reference serialization.
func TestRevealTxVector(t *testing.T) {
	t.Parallel()

	privKey, _ := vectorKeys(t)
	params := vectorRevealParams(t)

	revealTx, err := NewRevealTx(
		context.Background(), params, NewPrivKeySigner(privKey),
	)
	require.NoError(t, err)

	require.Len(t, revealTx.Signature, schnorr.SignatureSize*2)
	require.Equal(
		t, vectorRawTxTemplate,
		redactSignature(revealTx.RawTx, revealTx.Signature),
	)
	require.Equal(t, vectorRevealTxID, revealTx.TxID)
	require.Equal(t, vectorRevealTxID+"i0", revealTx.InscriptionID)
	require.EqualValues(t, vectorVirtualSize, revealTx.VirtualSize)

	// Our own serialization must match the one of the wire package.
	var buf bytes.Buffer
	require.NoError(t, revealTx.Tx.Serialize(&buf))
	require.Equal(t, revealTx.RawTx, hex.EncodeToString(buf.Bytes()))
	require.EqualValues(
		t, mempool.GetTxVirtualSize(btcutil.NewTx(revealTx.Tx)),
		revealTx.VirtualSize,
	)

	assertSpendable(t, revealTx.Tx, params.CommitTxData, vectorSendAmount)

	// Signing is deterministic, so building the transaction again yields
	// the exact same result.
	again, err := NewRevealTx(
		context.Background(), vectorRevealParams(t),
		NewPrivKeySigner(privKey),
	)
	require.NoError(t, err)
	require.Equal(t, revealTx.RawTx, again.RawTx)
}

// TestRevealTxSizes builds reveal transactions for inscriptions of various
// sizes and checks the virtual size formula, the inscription id and that the
// transactions are valid spends.
func TestRevealTxSizes(t *testing.T) {
	t.Parallel()

	privKey := test.RandPrivKey(t)
	pubKey := privKey.PubKey().SerializeCompressed()

	toAddr, err := address.TaprootAddress(
		schnorr.SerializePubKey(test.RandPubKey(t)), &address.RegTestNet,
	)
	require.NoError(t, err)

	for _, size := range []int{0, 1, 75, 76, 255, 256, 520, 521, 12_000} {
		ins, err := inscription.New(
			"application/octet-stream", test.RandBytes(size),
		)
		require.NoError(t, err)

		commitData, err := NewCommitTxData(
			pubKey, ins, &address.RegTestNet,
		)
		require.NoError(t, err)

		commitTxID := test.RandHash()
		const sendAmount = 50_000
		revealTx, err := NewRevealTx(
			context.Background(), &RevealParams{
				CommitTxData: commitData,
				CommitTxResult: &CommitTxResult{
					TxID:       commitTxID.String(),
					SendAmount: sendAmount,
				},
				ToAddress: toAddr.EncodeAddress(),
				Amount:    10_000,
			}, NewPrivKeySigner(privKey),
		)
		require.NoError(t, err)

		rawTx, err := hex.DecodeString(revealTx.RawTx)
		require.NoError(t, err)

		baseSize := revealTx.Tx.SerializeSizeStripped()
		require.EqualValues(
			t, (3*baseSize+len(rawTx)+3)/4, revealTx.VirtualSize,
		)
		require.Equal(t, revealTx.TxID+"i0", revealTx.InscriptionID)
		require.Equal(
			t, commitTxID, revealTx.Tx.TxIn[0].PreviousOutPoint.Hash,
		)
		require.Equal(
			t, uint32(wire.MaxTxInSequenceNum),
			revealTx.Tx.TxIn[0].Sequence,
		)
		require.Zero(t, revealTx.Tx.LockTime)

		estimate, err := EstimateRevealVSize(
			commitData, toAddr.EncodeAddress(),
		)
		require.NoError(t, err)
		require.Equal(t, revealTx.VirtualSize, estimate)

		assertSpendable(t, revealTx.Tx, commitData, sendAmount)

		_, extracted, err := ExtractInscription(revealTx.Tx)
		require.NoError(t, err)
		require.True(t, ins.Equal(extracted))
	}
}

// failingSigner is a Signer that always fails or returns a fixed signature.
type failingSigner struct {
	err error
	sig *schnorr.Signature
}

func (f *failingSigner) SignRevealTx(context.Context,
	*lndclient.SignDescriptor, *wire.MsgTx, *wire.TxOut) (*schnorr.Signature,
	error) {

	return f.sig, f.err
}

// TestRevealTxSigningErrors makes sure signatures that don't match the
// committed key are rejected.
func TestRevealTxSigningErrors(t *testing.T) {
	t.Parallel()

	privKey, _ := vectorKeys(t)

	// Signing with another key is refused by the signer itself.
	_, err := NewRevealTx(
		context.Background(), vectorRevealParams(t),
		NewPrivKeySigner(test.RandPrivKey(t)),
	)
	require.ErrorIs(t, err, ErrSigning)

	// A backend error is reported as a signing error.
	backendErr := errors.New("device disconnected")
	_, err = NewRevealTx(
		context.Background(), vectorRevealParams(t),
		&failingSigner{err: backendErr},
	)
	require.ErrorIs(t, err, ErrSigning)
	require.ErrorContains(t, err, backendErr.Error())

	// A signature over another message doesn't verify.
	var msg [32]byte
	wrongSig, err := schnorr.Sign(privKey, msg[:])
	require.NoError(t, err)
	_, err = NewRevealTx(
		context.Background(), vectorRevealParams(t),
		&failingSigner{sig: wrongSig},
	)
	require.ErrorIs(t, err, ErrSigning)
}

// TestRevealTxParamErrors tests the validation of the reveal params.
func TestRevealTxParamErrors(t *testing.T) {
	t.Parallel()

	privKey, _ := vectorKeys(t)
	signer := NewPrivKeySigner(privKey)

	testCases := []struct {
		name      string
		modify    func(*RevealParams)
		expectErr error
	}{{
		name: "amount below dust",
		modify: func(p *RevealParams) {
			p.Amount = 329
		},
		expectErr: ErrInsufficientAmount,
	}, {
		name: "amount below custom dust limit",
		modify: func(p *RevealParams) {
			p.DustLimit = 1000
		},
		expectErr: ErrInsufficientAmount,
	}, {
		name: "amount above commit value",
		modify: func(p *RevealParams) {
			p.Amount = vectorSendAmount + 1
		},
		expectErr: ErrInsufficientAmount,
	}, {
		name: "short txid",
		modify: func(p *RevealParams) {
			p.CommitTxResult.TxID = vectorCommitTxID[2:]
		},
		expectErr: ErrInvalidCommitResult,
	}, {
		name: "txid not hex",
		modify: func(p *RevealParams) {
			p.CommitTxResult.TxID = "zz" + vectorCommitTxID[2:]
		},
		expectErr: ErrInvalidCommitResult,
	}, {
		name: "zero commit value",
		modify: func(p *RevealParams) {
			p.CommitTxResult.SendAmount = 0
		},
		expectErr: ErrInvalidCommitResult,
	}, {
		name: "missing commit result",
		modify: func(p *RevealParams) {
			p.CommitTxResult = nil
		},
		expectErr: ErrInvalidCommitResult,
	}, {
		name: "bad address",
		modify: func(p *RevealParams) {
			p.ToAddress = "bc1qnotanaddress"
		},
		expectErr: address.ErrAddressDecode,
	}, {
		name: "address of other network",
		modify: func(p *RevealParams) {
			p.CommitTxData.ChainParams = &address.TestNet3
		},
		expectErr: address.ErrAddressDecode,
	}}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			params := vectorRevealParams(t)
			testCase.modify(params)

			_, err := NewRevealTx(
				context.Background(), params, signer,
			)
			require.ErrorIs(t, err, testCase.expectErr)
		})
	}
}

// TestRevealTxDustLimit checks the default dust limit and that it can be
// lowered.
func TestRevealTxDustLimit(t *testing.T) {
	t.Parallel()

	privKey, _ := vectorKeys(t)

	params := vectorRevealParams(t)
	_, pkScript, err := address.DecodeAddress(
		params.ToAddress, &address.MainNet,
	)
	require.NoError(t, err)
	require.EqualValues(t, 330, DustLimit(pkScript))

	params.Amount = 330
	_, err = NewRevealTx(
		context.Background(), params, NewPrivKeySigner(privKey),
	)
	require.NoError(t, err)

	params = vectorRevealParams(t)
	params.Amount = 1
	params.DustLimit = 1
	revealTx, err := NewRevealTx(
		context.Background(), params, NewPrivKeySigner(privKey),
	)
	require.NoError(t, err)
	require.EqualValues(t, 1, revealTx.Tx.TxOut[0].Value)
}

// TestExtractInscription tests reading inscriptions out of reveal witnesses.
func TestExtractInscription(t *testing.T) {
	t.Parallel()

	privKey, _ := vectorKeys(t)
	revealTx, err := NewRevealTx(
		context.Background(), vectorRevealParams(t),
		NewPrivKeySigner(privKey),
	)
	require.NoError(t, err)

	tx, err := DecodeRawTx(revealTx.RawTx)
	require.NoError(t, err)
	require.Equal(t, revealTx.TxID, tx.TxHash().String())

	key, ins, err := ExtractInscription(tx)
	require.NoError(t, err)
	require.Equal(t, vectorXOnly, hex.EncodeToString(
		schnorr.SerializePubKey(key),
	))
	require.True(t, inscription.NewText(vectorText).Equal(ins))

	// An annex is skipped.
	withAnnex := tx.Copy()
	withAnnex.TxIn[0].Witness = append(
		withAnnex.TxIn[0].Witness, []byte{annexTag, 0x01},
	)
	_, ins, err = ExtractInscription(withAnnex)
	require.NoError(t, err)
	require.True(t, inscription.NewText(vectorText).Equal(ins))

	// A key spend carries no envelope.
	keySpend := tx.Copy()
	keySpend.TxIn[0].Witness = wire.TxWitness{test.RandBytes(64)}
	_, _, err = ExtractInscription(keySpend)
	require.ErrorIs(t, err, inscription.ErrInvalidScript)

	_, _, err = ExtractInscription(wire.NewMsgTx(2))
	require.ErrorIs(t, err, inscription.ErrInvalidScript)

	_, err = DecodeRawTx("00")
	require.Error(t, err)
	_, err = DecodeRawTx("xyz")
	require.Error(t, err)
}

// TestPrivKeySigner tests the software signer directly.
func TestPrivKeySigner(t *testing.T) {
	t.Parallel()

	privKey, _ := vectorKeys(t)
	signer := NewPrivKeySigner(privKey)
	require.True(t, privKey.PubKey().IsEqual(signer.PubKey()))

	params := vectorRevealParams(t)
	tx, prevOut, err := newUnsignedRevealTx(params)
	require.NoError(t, err)

	signDesc := revealSignDesc(params.CommitTxData, prevOut)
	sig, err := signer.SignRevealTx(
		context.Background(), signDesc, tx, prevOut,
	)
	require.NoError(t, err)

	sigHash, err := revealSigHash(tx, prevOut, params.CommitTxData.TapLeaf)
	require.NoError(t, err)
	require.True(t, sig.Verify(sigHash, params.CommitTxData.InternalKey))

	// Key path spends aren't supported.
	keySpendDesc := *signDesc
	keySpendDesc.SignMethod = input.TaprootKeySpendSignMethod
	_, err = signer.SignRevealTx(
		context.Background(), &keySpendDesc, tx, prevOut,
	)
	require.Error(t, err)

	// Neither are non taproot outputs.
	p2wpkhOut := *prevOut
	p2wpkhOut.PkScript = append([]byte{txscript.OP_0, 20}, make(
		[]byte, 20,
	)...)
	nonTaprootDesc := *signDesc
	nonTaprootDesc.Output = &p2wpkhOut
	_, err = signer.SignRevealTx(
		context.Background(), &nonTaprootDesc, tx, &p2wpkhOut,
	)
	require.Error(t, err)

	// Signing without a key in the descriptor works as well.
	noKeyDesc := *signDesc
	noKeyDesc.KeyDesc.PubKey = nil
	_, err = signer.SignRevealTx(
		context.Background(), &noKeyDesc, tx, prevOut,
	)
	require.NoError(t, err)

	otherKeyDesc := *signDesc
	otherKeyDesc.KeyDesc.PubKey = test.RandPubKey(t)
	_, err = signer.SignRevealTx(
		context.Background(), &otherKeyDesc, tx, prevOut,
	)
	require.Error(t, err)
}
