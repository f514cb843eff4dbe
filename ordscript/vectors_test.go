package ordscript

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/inscribe/internal/test"
	"github.com/stretchr/testify/require"
)

const (
	vectorPrivKey = "fc7458de3d5616e7803fdc81d688b9642641be32fee74c4558ce6" +
		"80cac3d4111"

	vectorPubKey = "03d734e09fc6ed105225ff316c6fa74f89096f90a437b1c7001af6" +
		"d0b244d6f151"

	vectorXOnly = "d734e09fc6ed105225ff316c6fa74f89096f90a437b1c7001af6d0" +
		"b244d6f151"

	vectorText = `{"p":"tap","op":"token-transfer","tick":"test","amt":1}`

	vectorScript = "20d734e09fc6ed105225ff316c6fa74f89096f90a437b1c7001af" +
		"6d0b244d6f151ac0063036f7264010118746578742f706c61696e3b63686" +
		"1727365743d7574662d3800377b2270223a22746170222c226f70223a2274" +
		"6f6b656e2d7472616e73666572222c227469636b223a2274657374222c226" +
		"16d74223a317d68"

	vectorTapLeaf = "5eec06e26b36c9f18d28bd6106b10d671e2edf622d992e20bf9ee" +
		"74d14cfcc07"

	vectorOutputKey = "00ac1f3d4afe29ed54eb4474289aebee9b692f2313c6b9d4558" +
		"98187ab1cf016"

	vectorControlBlock = "c0" + vectorXOnly

	vectorRevealAddress = "bc1pqzkp7022lc57648tg36z3xhta6dkjterz0rtn4z43xq" +
		"c02cu7qtql324nw"

	vectorToAddress = "bc1pcf8yrw8vf5y3lxlmkjqlme7wpqywmqsdhr5ngzwvgpx63ww" +
		"706fq3y4x0q"

	vectorCommitTxID = "d2e8358a8f6257ed6fc5eabe4e85951b702918a7a5d5b79a45e" +
		"535e1d5d65fb2"

	vectorSendAmount = 2325

	vectorAmount = 549

	vectorRevealTxID = "e79beb0fe7d1aaa6a1ffd589ad95f52c54b1137b9c6620f0fcc" +
		"56631db8f020c"

	vectorVirtualSize = 151

	vectorRawTxTemplate = "02000000000101b25fd6d5e135e5459ab7d5a5a718297" +
		"01b95854ebeeac56fed57628f8a35e8d20100000000ffffffff0125020000" +
		"00000000225120c24e41b8ec4d091f9bfbb481fde7ce0808ed820db8e9340" +
		"9cc404da8b9de7e920340<SIGNATURE>7d" + vectorScript + "21" +
		vectorControlBlock + "00000000"
)

// vectorKeys returns the private and compressed public key of the test
// vectors.
func vectorKeys(t *testing.T) (*btcec.PrivateKey, []byte) {
	t.Helper()

	privKey := test.ParsePrivKey(t, vectorPrivKey)
	return privKey, privKey.PubKey().SerializeCompressed()
}

// vectorCommitData derives the commit data of the test vector inscription.
func vectorCommitData(t *testing.T) *CommitTxData {
	t.Helper()

	_, pubKey := vectorKeys(t)
	commitData, err := NewCommitTxData(
		pubKey, inscription.NewText(vectorText), &address.MainNet,
	)
	require.NoError(t, err)

	return commitData
}

// vectorRevealParams returns the reveal params of the test vectors.
func vectorRevealParams(t *testing.T) *RevealParams {
	t.Helper()

	return &RevealParams{
		CommitTxData: vectorCommitData(t),
		CommitTxResult: &CommitTxResult{
			TxID:          vectorCommitTxID,
			SendUtxoIndex: 1,
			SendAmount:    vectorSendAmount,
		},
		ToAddress: vectorToAddress,
		Amount:    vectorAmount,
	}
}

// redactSignature replaces the signature in a raw transaction with a
// placeholder.
func redactSignature(rawTx, sig string) string {
	return strings.Replace(rawTx, sig, "<SIGNATURE>", 1)
}

// assertSpendable runs the reveal transaction through the script engine.
func assertSpendable(t *testing.T, tx *wire.MsgTx, commitData *CommitTxData,
	value int64) {

	t.Helper()

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		commitData.OutputScript, value,
	)
	vm, err := txscript.NewEngine(
		commitData.OutputScript, tx, 0,
		txscript.StandardVerifyFlags|txscript.ScriptVerifyTaproot, nil,
		txscript.NewTxSigHashes(tx, prevOutFetcher), value,
		prevOutFetcher,
	)
	require.NoError(t, err)
	require.NoError(t, vm.Execute())
}
