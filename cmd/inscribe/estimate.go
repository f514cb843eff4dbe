package main

import (
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/lightningnetwork/lnd/lnwallet/chainfee"
	"github.com/urfave/cli"
)

var estimateCommand = cli.Command{
	Name:      "estimate",
	ShortName: "e",
	Usage:     "Estimate the amount the commit output needs",
	Description: `
	Estimate the virtual size of the reveal transaction for a commit
	record and the value the commit output needs to pay the reveal fee
	at the given fee rate and still create the inscription output.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  commitRecName,
			Usage: "the hex encoded commit record",
		},
		cli.StringFlag{
			Name:  toAddrName,
			Usage: "the address to send the inscription to",
		},
		cli.Int64Flag{
			Name:  amountName,
			Usage: "optional, the value of the inscription output",
		},
		cli.Uint64Flag{
			Name:  feeRateName,
			Usage: "optional, the fee rate in sat/vB",
		},
	},
	Action: estimateAmount,
}

// estimateResp is the result of a fee estimation.
type estimateResp struct {
	RevealVSize    int64 `json:"reveal_vsize"`
	FeeRate        int64 `json:"fee_rate_sat_per_vbyte"`
	Fee            int64 `json:"fee"`
	Amount         int64 `json:"amount"`
	RequiredAmount int64 `json:"required_amount"`
}

func estimateAmount(ctx *cli.Context) error {
	if !ctx.IsSet(commitRecName) || !ctx.IsSet(toAddrName) {
		_ = cli.ShowCommandHelp(ctx, "estimate")
		return nil
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	commitData, err := decodeCommitRecord(ctx)
	if err != nil {
		return err
	}

	resp, err := estimate(ctx, e, commitData)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

// estimate sizes the reveal transaction of the commit data.
func estimate(ctx *cli.Context, e *env,
	commitData *ordscript.CommitTxData) (*estimateResp, error) {

	toAddr := ctx.String(toAddrName)
	vsize, err := ordscript.EstimateRevealVSize(commitData, toAddr)
	if err != nil {
		return nil, err
	}

	_, pkScript, err := address.DecodeAddress(
		toAddr, commitData.ChainParams,
	)
	if err != nil {
		return nil, err
	}
	amount := outputAmount(ctx, e, pkScript)

	satPerVByte := e.cfg.FeeRate
	feeRate := e.cfg.FeeRatePerKVByte()
	if ctx.IsSet(feeRateName) {
		satPerVByte = ctx.Uint64(feeRateName)
		feeRate = chainfee.SatPerKVByte(satPerVByte * 1000)
	}

	required := ordscript.RequiredCommitAmount(vsize, feeRate, amount)

	return &estimateResp{
		RevealVSize:    vsize,
		FeeRate:        int64(satPerVByte),
		Fee:            int64(required - amount),
		Amount:         int64(amount),
		RequiredAmount: int64(required),
	}, nil
}
