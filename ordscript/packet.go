package ordscript

import (
	"bytes"
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/lightninglabs/inscribe/inscription"
)

// NewRevealPacket creates an unsigned PSBT of the reveal transaction. The
// input carries all the information an external signer needs for the script
// path spend of the envelope leaf.
func NewRevealPacket(params *RevealParams) (*psbt.Packet, error) {
	tx, prevOut, err := newUnsignedRevealTx(params)
	if err != nil {
		return nil, err
	}

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, fmt.Errorf("unable to create packet: %w", err)
	}

	commitData := params.CommitTxData
	internalKey := commitData.InternalKeyXOnly()
	merkleRoot := commitData.MerkleRoot()

	pIn := &packet.Inputs[0]
	pIn.WitnessUtxo = prevOut
	pIn.SighashType = txscript.SigHashDefault
	pIn.TaprootInternalKey = internalKey
	pIn.TaprootMerkleRoot = merkleRoot[:]
	pIn.TaprootLeafScript = []*psbt.TaprootTapLeafScript{{
		ControlBlock: append([]byte(nil), commitData.ControlBlock...),
		Script:       append([]byte(nil), commitData.Script...),
		LeafVersion:  commitData.TapLeaf.LeafVersion,
	}}

	return packet, nil
}

// SignRevealPacket adds a script spend signature for the envelope leaf to a
// packet created by NewRevealPacket.
func SignRevealPacket(ctx context.Context, packet *psbt.Packet,
	signer Signer) error {

	leafScript, err := revealLeafScript(packet)
	if err != nil {
		return err
	}

	// Rebuilding the commit data from the packet makes sure we only ever
	// sign for a well formed envelope.
	commitData, err := packetCommitData(packet, leafScript)
	if err != nil {
		return err
	}

	if err := checkRevealOutput(packet); err != nil {
		return err
	}

	pIn := &packet.Inputs[0]
	signDesc := revealSignDesc(commitData, pIn.WitnessUtxo)
	sig, err := signer.SignRevealTx(
		ctx, signDesc, packet.UnsignedTx, pIn.WitnessUtxo,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSigning, err)
	}

	leafHash := commitData.TapLeafHash
	pIn.TaprootScriptSpendSig = append(
		pIn.TaprootScriptSpendSig, &psbt.TaprootScriptSpendSig{
			XOnlyPubKey: commitData.InternalKeyXOnly(),
			LeafHash:    leafHash[:],
			Signature:   sig.Serialize(),
			SigHash:     txscript.SigHashDefault,
		},
	)

	return nil
}

// FinalizeRevealPacket verifies the script spend signature of a reveal packet,
// finalizes it and returns the extracted reveal transaction.
func FinalizeRevealPacket(packet *psbt.Packet) (*RevealTx, error) {
	leafScript, err := revealLeafScript(packet)
	if err != nil {
		return nil, err
	}
	commitData, err := packetCommitData(packet, leafScript)
	if err != nil {
		return nil, err
	}

	// The outputs may have been changed after signing.
	if err := checkRevealOutput(packet); err != nil {
		return nil, err
	}

	pIn := &packet.Inputs[0]
	if len(pIn.TaprootScriptSpendSig) != 1 {
		return nil, fmt.Errorf("%w: expected one script spend sig, "+
			"got %d", ErrSigning, len(pIn.TaprootScriptSpendSig))
	}

	spendSig := pIn.TaprootScriptSpendSig[0]
	if spendSig.SigHash != txscript.SigHashDefault {
		return nil, fmt.Errorf("%w: unsupported sighash type %v",
			ErrSigning, spendSig.SigHash)
	}
	sig, err := schnorr.ParseSignature(spendSig.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}

	tx := packet.UnsignedTx.Copy()
	err = verifyRevealSig(
		tx, pIn.WitnessUtxo, commitData.TapLeaf,
		commitData.InternalKey, sig,
	)
	if err != nil {
		return nil, err
	}

	pIn.FinalScriptWitness = EncodeWitnessStack([][]byte{
		sig.Serialize(), commitData.Script, commitData.ControlBlock,
	})

	// The envelope leaf may be larger than the script size limit the psbt
	// extractor enforces on witness items, so we extract ourselves.
	witness, err := DecodeWitnessStack(pIn.FinalScriptWitness)
	if err != nil {
		return nil, err
	}
	tx.TxIn[0].Witness = witness

	return finishRevealTx(tx, sig)
}

// revealLeafScript returns the envelope leaf of a reveal packet.
func revealLeafScript(packet *psbt.Packet) (*psbt.TaprootTapLeafScript,
	error) {

	if len(packet.Inputs) != 1 || len(packet.UnsignedTx.TxIn) != 1 {
		return nil, fmt.Errorf("reveal packet must have exactly one " +
			"input")
	}

	pIn := &packet.Inputs[0]
	switch {
	case pIn.WitnessUtxo == nil:
		return nil, fmt.Errorf("reveal input is missing witness utxo")

	case len(pIn.TaprootLeafScript) != 1:
		return nil, fmt.Errorf("reveal input must have exactly one " +
			"leaf script")
	}

	return pIn.TaprootLeafScript[0], nil
}

// checkRevealOutput applies the amount rules of NewRevealTx to the single
// inscription output of a reveal packet. As the packet doesn't carry a dust
// limit override, the relay dust threshold of the output script is used.
func checkRevealOutput(packet *psbt.Packet) error {
	if len(packet.UnsignedTx.TxOut) != 1 {
		return fmt.Errorf("reveal packet must have exactly one output")
	}

	txOut := packet.UnsignedTx.TxOut[0]
	return checkRevealAmount(
		btcutil.Amount(txOut.Value),
		btcutil.Amount(packet.Inputs[0].WitnessUtxo.Value),
		DustLimit(txOut.PkScript),
	)
}

// packetCommitData re-derives the commit data from the leaf script of a
// reveal packet and checks it against the rest of the input.
func packetCommitData(packet *psbt.Packet,
	leafScript *psbt.TaprootTapLeafScript) (*CommitTxData, error) {

	internalKey, ins, err := inscription.ParseEnvelope(leafScript.Script)
	if err != nil {
		return nil, err
	}

	commitData, err := newCommitTxData(internalKey, ins, nil)
	if err != nil {
		return nil, err
	}

	pIn := &packet.Inputs[0]
	switch {
	case !bytes.Equal(commitData.Script, leafScript.Script):
		return nil, fmt.Errorf("leaf script is not a canonical envelope")

	case !bytes.Equal(commitData.ControlBlock, leafScript.ControlBlock):
		return nil, fmt.Errorf("control block doesn't match leaf script")

	case !bytes.Equal(commitData.OutputScript, pIn.WitnessUtxo.PkScript):
		return nil, fmt.Errorf("witness utxo doesn't pay to the " +
			"envelope commitment")

	case len(pIn.TaprootInternalKey) != 0 && !bytes.Equal(
		pIn.TaprootInternalKey, commitData.InternalKeyXOnly(),
	):
		return nil, fmt.Errorf("internal key doesn't match envelope")
	}

	return commitData, nil
}
