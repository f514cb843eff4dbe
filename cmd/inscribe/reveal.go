package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/urfave/cli"
)

const (
	commitTxIDName   = "commit_txid"
	commitVoutName   = "commit_vout"
	commitAmountName = "commit_amount"
	dustLimitName    = "dustlimit"
)

// revealFlags are the flags needed to build an unsigned reveal transaction.
var revealFlags = []cli.Flag{
	cli.StringFlag{
		Name:  commitRecName,
		Usage: "the hex encoded commit record",
	},
	cli.StringFlag{
		Name:  commitTxIDName,
		Usage: "the id of the transaction that funds the commit output",
	},
	cli.Uint64Flag{
		Name:  commitVoutName,
		Usage: "the index of the commit output",
	},
	cli.Int64Flag{
		Name:  commitAmountName,
		Usage: "the value of the commit output in satoshis",
	},
	cli.StringFlag{
		Name:  toAddrName,
		Usage: "the address to send the inscription to",
	},
	cli.Int64Flag{
		Name: amountName,
		Usage: "optional, the value of the inscription output, the " +
			"rest of the commit output is paid as fee",
	},
	cli.Int64Flag{
		Name:  dustLimitName,
		Usage: "optional, override of the minimum inscription output value",
	},
}

var revealCommand = cli.Command{
	Name:      "reveal",
	ShortName: "r",
	Usage:     "Create the signed reveal transaction",
	Description: `
	Create and sign the transaction that spends the commit output through
	the inscription script and sends the inscription to the given address.
	The transaction is not broadcast.
	`,
	Flags:  append(append([]cli.Flag{}, revealFlags...), signerFlags...),
	Action: reveal,
}

// revealResp is the serializable form of a reveal transaction.
type revealResp struct {
	TxID          string `json:"txid"`
	InscriptionID string `json:"inscription_id"`
	RawTx         string `json:"raw_tx"`
	Signature     string `json:"signature"`
	VirtualSize   int64  `json:"vsize"`
}

func newRevealResp(revealTx *ordscript.RevealTx) *revealResp {
	return &revealResp{
		TxID:          revealTx.TxID,
		InscriptionID: revealTx.InscriptionID,
		RawTx:         revealTx.RawTx,
		Signature:     revealTx.Signature,
		VirtualSize:   revealTx.VirtualSize,
	}
}

func reveal(ctx *cli.Context) error {
	if !ctx.IsSet(commitRecName) || !ctx.IsSet(toAddrName) {
		_ = cli.ShowCommandHelp(ctx, "reveal")
		return nil
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	params, err := parseRevealParams(ctx, e)
	if err != nil {
		return err
	}

	signer, err := getSigner(ctx, e)
	if err != nil {
		return err
	}
	defer signer.cleanUp()

	revealTx, err := ordscript.NewRevealTx(e.ctx, params, signer)
	if err != nil {
		return fmt.Errorf("unable to create reveal tx: %w", err)
	}

	printJSON(newRevealResp(revealTx))
	return nil
}

// parseRevealParams assembles the reveal parameters from the command line.
func parseRevealParams(ctx *cli.Context,
	e *env) (*ordscript.RevealParams, error) {

	commitData, err := decodeCommitRecord(ctx)
	if err != nil {
		return nil, err
	}

	if commitData.ChainParams.Name != e.cfg.ActiveNetParams.Name {
		return nil, fmt.Errorf("commit record is for network %s, "+
			"configured network is %s", commitData.ChainParams.Name,
			e.cfg.ActiveNetParams.Name)
	}

	if !ctx.IsSet(commitTxIDName) || !ctx.IsSet(commitAmountName) {
		return nil, fmt.Errorf("--%s and --%s must be set",
			commitTxIDName, commitAmountName)
	}

	vout := ctx.Uint64(commitVoutName)
	if vout > uint64(^uint32(0)) {
		return nil, fmt.Errorf("invalid commit output index %d", vout)
	}

	toAddr := ctx.String(toAddrName)
	_, pkScript, err := address.DecodeAddress(
		toAddr, commitData.ChainParams,
	)
	if err != nil {
		return nil, err
	}

	dustLimit := btcutil.Amount(e.cfg.DustLimit)
	if ctx.IsSet(dustLimitName) {
		dustLimit = btcutil.Amount(ctx.Int64(dustLimitName))
	}

	return &ordscript.RevealParams{
		CommitTxData: commitData,
		CommitTxResult: &ordscript.CommitTxResult{
			TxID:          ctx.String(commitTxIDName),
			SendUtxoIndex: uint32(vout),
			SendAmount: btcutil.Amount(
				ctx.Int64(commitAmountName),
			),
		},
		ToAddress: toAddr,
		Amount:    outputAmount(ctx, e, pkScript),
		DustLimit: dustLimit,
	}, nil
}
