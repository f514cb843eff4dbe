package ordscript

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/input"
	"github.com/lightningnetwork/lnd/keychain"
)

const (
	// RevealTxVersion is the version of the reveal transaction.
	RevealTxVersion = 2

	// InscriptionOutputIndex is the index of the reveal output that
	// carries the inscription.
	InscriptionOutputIndex = 0

	// segwitMarker and segwitFlag follow the version of a transaction
	// that carries witness data.
	segwitMarker byte = 0x00
	segwitFlag   byte = 0x01

	// annexTag is the first byte of an optional annex witness item.
	annexTag byte = 0x50
)

var (
	// ErrInsufficientAmount is returned if the reveal output amount is
	// below the dust limit or can't be paid for by the commit output.
	ErrInsufficientAmount = errors.New("insufficient amount")

	// ErrInvalidCommitResult is returned if the funded commit output
	// can't be referenced.
	ErrInvalidCommitResult = errors.New("invalid commit tx result")
)

// CommitTxResult references the confirmed or broadcast output that paid to
// the reveal address.
type CommitTxResult struct {
	// TxID is the hex encoded id of the commit transaction in the usual
	// byte reversed display order.
	TxID string

	// SendUtxoIndex is the index of the output that paid to the reveal
	// address.
	SendUtxoIndex uint32

	// SendAmount is the value of that output.
	SendAmount btcutil.Amount
}

// OutPoint returns the outpoint of the funded commit output.
func (c *CommitTxResult) OutPoint() (*wire.OutPoint, error) {
	if len(c.TxID) != hex.EncodedLen(chainhash.HashSize) {
		return nil, fmt.Errorf("%w: txid must be %d hex chars, got %d",
			ErrInvalidCommitResult,
			hex.EncodedLen(chainhash.HashSize), len(c.TxID))
	}

	hash, err := chainhash.NewHashFromStr(c.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommitResult, err)
	}

	return wire.NewOutPoint(hash, c.SendUtxoIndex), nil
}

// RevealParams holds everything needed to build the reveal transaction
// except for the signature.
type RevealParams struct {
	// CommitTxData is the data the commit output was derived from.
	CommitTxData *CommitTxData

	// CommitTxResult references the funded commit output.
	CommitTxResult *CommitTxResult

	// ToAddress receives the inscription. It must belong to the network
	// of the commit data.
	ToAddress string

	// Amount is the value of the inscription output. The difference to
	// the commit output value is paid as fee.
	Amount btcutil.Amount

	// DustLimit overrides the minimum amount of the inscription output.
	// If zero, the relay dust threshold of the output is used.
	DustLimit btcutil.Amount
}

// RevealTx is a fully signed reveal transaction.
type RevealTx struct {
	// TxID is the id of the reveal transaction.
	TxID string

	// InscriptionID is the ordinal id of the inscription, <txid>i0.
	InscriptionID string

	// RawTx is the hex encoded transaction including the witness.
	RawTx string

	// Signature is the hex encoded 64 byte BIP-340 signature.
	Signature string

	// VirtualSize is the size of the transaction in virtual bytes.
	VirtualSize int64

	// Tx is the signed transaction.
	Tx *wire.MsgTx
}

// InscriptionID returns the ordinal id of an inscription revealed in the
// given transaction.
func InscriptionID(txid string, index uint32) string {
	return fmt.Sprintf("%si%d", txid, index)
}

// DustLimit returns the minimum value of an output with the given pkScript
// that is still relayed by default nodes.
func DustLimit(pkScript []byte) btcutil.Amount {
	return btcutil.Amount(mempool.GetDustThreshold(
		wire.NewTxOut(0, pkScript),
	))
}

// checkRevealAmount makes sure the inscription output is neither dust nor
// spends more than the commit output holds.
func checkRevealAmount(amount, sendAmount, dustLimit btcutil.Amount) error {
	switch {
	case amount < dustLimit:
		return fmt.Errorf("%w: output amount %v below dust limit %v",
			ErrInsufficientAmount, amount, dustLimit)

	case amount > sendAmount:
		return fmt.Errorf("%w: output amount %v exceeds commit output "+
			"value %v", ErrInsufficientAmount, amount, sendAmount)
	}

	return nil
}

// newUnsignedRevealTx validates the params and assembles the reveal
// transaction without a witness. The spent commit output is returned as well.
func newUnsignedRevealTx(params *RevealParams) (*wire.MsgTx, *wire.TxOut,
	error) {

	commitData := params.CommitTxData
	if commitData == nil {
		return nil, nil, fmt.Errorf("missing commit tx data")
	}
	if params.CommitTxResult == nil {
		return nil, nil, fmt.Errorf("%w: missing commit result",
			ErrInvalidCommitResult)
	}

	commitResult := params.CommitTxResult
	outPoint, err := commitResult.OutPoint()
	if err != nil {
		return nil, nil, err
	}
	if commitResult.SendAmount <= 0 {
		return nil, nil, fmt.Errorf("%w: commit output value %v",
			ErrInvalidCommitResult, commitResult.SendAmount)
	}

	net := commitData.ChainParams
	if net == nil {
		net = &address.MainNet
	}
	_, pkScript, err := address.DecodeAddress(params.ToAddress, net)
	if err != nil {
		return nil, nil, err
	}

	dustLimit := params.DustLimit
	if dustLimit == 0 {
		dustLimit = DustLimit(pkScript)
	}

	err = checkRevealAmount(
		params.Amount, commitResult.SendAmount, dustLimit,
	)
	if err != nil {
		return nil, nil, err
	}

	tx := wire.NewMsgTx(RevealTxVersion)
	tx.AddTxIn(wire.NewTxIn(outPoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(int64(params.Amount), pkScript))

	prevOut := wire.NewTxOut(
		int64(commitResult.SendAmount), commitData.OutputScript,
	)

	return tx, prevOut, nil
}

// revealSigHash computes the BIP-341 script path sighash of the single
// reveal input.
func revealSigHash(tx *wire.MsgTx, prevOut *wire.TxOut,
	leaf txscript.TapLeaf) ([]byte, error) {

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(
		prevOut.PkScript, prevOut.Value,
	)

	return txscript.CalcTapscriptSignaturehash(
		txscript.NewTxSigHashes(tx, prevOutFetcher),
		txscript.SigHashDefault, tx, 0, prevOutFetcher, leaf,
	)
}

// verifyRevealSig makes sure the signature is valid for the envelope leaf
// and the committed internal key.
func verifyRevealSig(tx *wire.MsgTx, prevOut *wire.TxOut,
	leaf txscript.TapLeaf, internalKey *btcec.PublicKey,
	sig *schnorr.Signature) error {

	sigHash, err := revealSigHash(tx, prevOut, leaf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	if !sig.Verify(sigHash, internalKey) {
		return fmt.Errorf("%w: signature invalid for internal key %x",
			ErrSigning, schnorr.SerializePubKey(internalKey))
	}

	return nil
}

// revealSignDesc returns the sign descriptor for the script path spend of the
// envelope leaf.
func revealSignDesc(commitData *CommitTxData,
	prevOut *wire.TxOut) *lndclient.SignDescriptor {

	return &lndclient.SignDescriptor{
		KeyDesc: keychain.KeyDescriptor{
			PubKey: commitData.InternalKey,
		},
		SignMethod:    input.TaprootScriptSpendSignMethod,
		WitnessScript: commitData.Script,
		Output:        prevOut,
		HashType:      txscript.SigHashDefault,
		InputIndex:    0,
	}
}

// NewRevealTx builds, signs and serializes the transaction that spends the
// commit output through the envelope leaf.
func NewRevealTx(ctx context.Context, params *RevealParams,
	signer Signer) (*RevealTx, error) {

	tx, prevOut, err := newUnsignedRevealTx(params)
	if err != nil {
		return nil, err
	}

	commitData := params.CommitTxData
	signDesc := revealSignDesc(commitData, prevOut)
	sig, err := signer.SignRevealTx(ctx, signDesc, tx, prevOut)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	err = verifyRevealSig(
		tx, prevOut, commitData.TapLeaf, commitData.InternalKey, sig,
	)
	if err != nil {
		return nil, err
	}

	tx.TxIn[0].Witness = wire.TxWitness{
		sig.Serialize(), commitData.Script, commitData.ControlBlock,
	}

	return finishRevealTx(tx, sig)
}

// finishRevealTx serializes a signed reveal transaction.
func finishRevealTx(tx *wire.MsgTx, sig *schnorr.Signature) (*RevealTx,
	error) {

	rawTx, err := serializeRevealTx(tx)
	if err != nil {
		return nil, err
	}

	txid := tx.TxHash().String()
	revealTx := &RevealTx{
		TxID:          txid,
		InscriptionID: InscriptionID(txid, InscriptionOutputIndex),
		RawTx:         hex.EncodeToString(rawTx),
		Signature:     hex.EncodeToString(sig.Serialize()),
		VirtualSize: VirtualSize(
			tx.SerializeSizeStripped(), len(rawTx),
		),
		Tx: tx,
	}

	log.Infof("Created reveal tx %v (vsize=%d) for inscription %v",
		revealTx.TxID, revealTx.VirtualSize, revealTx.InscriptionID)
	log.Tracef("Reveal tx: %v", spew.Sdump(tx))

	return revealTx, nil
}

// serializeRevealTx writes the transaction in the segwit format: version,
// marker and flag, inputs and outputs, one witness stack per input and the
// lock time.
func serializeRevealTx(tx *wire.MsgTx) ([]byte, error) {
	var stripped bytes.Buffer
	if err := tx.SerializeNoWitness(&stripped); err != nil {
		return nil, err
	}
	base := stripped.Bytes()

	// The version and the lock time are both 4 bytes at the very start
	// and end of the stripped serialization.
	raw := make([]byte, 0, tx.SerializeSize())
	raw = append(raw, base[:4]...)
	raw = append(raw, segwitMarker, segwitFlag)
	raw = append(raw, base[4:len(base)-4]...)
	for _, txIn := range tx.TxIn {
		raw = append(raw, EncodeWitnessStack(txIn.Witness)...)
	}
	raw = append(raw, base[len(base)-4:]...)

	return raw, nil
}

// VirtualSize returns the BIP-141 virtual size of a transaction given its
// size without and with the witness data.
func VirtualSize(baseSize, totalSize int) int64 {
	weight := int64(baseSize*(blockchain.WitnessScaleFactor-1) + totalSize)
	return (weight + blockchain.WitnessScaleFactor - 1) /
		blockchain.WitnessScaleFactor
}

// DecodeRawTx decodes a hex encoded transaction.
func DecodeRawTx(rawTx string) (*wire.MsgTx, error) {
	txBytes, err := hex.DecodeString(rawTx)
	if err != nil {
		return nil, fmt.Errorf("unable to decode raw tx: %w", err)
	}

	tx := wire.NewMsgTx(RevealTxVersion)
	if err := tx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return nil, fmt.Errorf("unable to deserialize tx: %w", err)
	}

	return tx, nil
}

// ExtractInscription reads the inscription and the key of its envelope out of
// the first input witness of a reveal transaction. An annex, if present, is
// skipped.
func ExtractInscription(tx *wire.MsgTx) (*btcec.PublicKey,
	*inscription.Inscription, error) {

	if len(tx.TxIn) == 0 {
		return nil, nil, fmt.Errorf("%w: tx has no inputs",
			inscription.ErrInvalidScript)
	}

	witness := tx.TxIn[0].Witness
	if len(witness) >= 2 && len(witness[len(witness)-1]) > 0 &&
		witness[len(witness)-1][0] == annexTag {

		witness = witness[:len(witness)-1]
	}

	// A script path spend ends with the leaf script and the control
	// block.
	if len(witness) < 2 {
		return nil, nil, fmt.Errorf("%w: not a script path spend",
			inscription.ErrInvalidScript)
	}

	return inscription.ParseEnvelope(witness[len(witness)-2])
}
