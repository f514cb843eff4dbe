package ordscript

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightningnetwork/lnd/lnwallet/chainfee"
)

// EstimateRevealVSize returns the virtual size of the reveal transaction for
// the commit data paying to the given address. The size doesn't depend on the
// commit outpoint, the amounts or the signature value, so the estimate is
// exact.
func EstimateRevealVSize(commitData *CommitTxData,
	toAddress string) (int64, error) {

	net := commitData.ChainParams
	if net == nil {
		net = &address.MainNet
	}
	_, pkScript, err := address.DecodeAddress(toAddress, net)
	if err != nil {
		return 0, err
	}

	dummySig := make([]byte, schnorr.SignatureSize)
	tx := wire.NewMsgTx(RevealTxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{}, nil, wire.TxWitness{
		dummySig, commitData.Script, commitData.ControlBlock,
	}))
	tx.AddTxOut(wire.NewTxOut(0, pkScript))

	return mempool.GetTxVirtualSize(btcutil.NewTx(tx)), nil
}

// RequiredCommitAmount returns the value the commit output needs to have so
// the reveal transaction of the given size pays the fee rate and still
// creates an output of the given amount.
func RequiredCommitAmount(vsize int64, feeRate chainfee.SatPerKVByte,
	amount btcutil.Amount) btcutil.Amount {

	return feeRate.FeeForVSize(vsize) + amount
}
