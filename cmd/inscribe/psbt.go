package main

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/urfave/cli"
)

const psbtName = "psbt"

var psbtCommand = cli.Command{
	Name:      "psbt",
	ShortName: "p",
	Usage:     "Create the reveal transaction with an external signer",
	Category:  "PSBT",
	Subcommands: []cli.Command{
		psbtCreateCommand,
		psbtSignCommand,
		psbtFinalizeCommand,
	},
}

var psbtCreateCommand = cli.Command{
	Name:  "create",
	Usage: "Create the unsigned reveal PSBT",
	Description: `
	Create a PSBT of the unsigned reveal transaction that carries the
	taproot script spend information a signer needs.
	`,
	Flags:  revealFlags,
	Action: psbtCreate,
}

func psbtCreate(ctx *cli.Context) error {
	if !ctx.IsSet(commitRecName) || !ctx.IsSet(toAddrName) {
		_ = cli.ShowCommandHelp(ctx, "create")
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

	packet, err := ordscript.NewRevealPacket(params)
	if err != nil {
		return fmt.Errorf("unable to create reveal PSBT: %w", err)
	}

	return printPacket(packet)
}

var psbtSignCommand = cli.Command{
	Name:  "sign",
	Usage: "Sign the reveal PSBT",
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  psbtName,
			Usage: "the base64 encoded reveal PSBT",
		},
	}, signerFlags...),
	Action: psbtSign,
}

func psbtSign(ctx *cli.Context) error {
	if !ctx.IsSet(psbtName) {
		_ = cli.ShowCommandHelp(ctx, "sign")
		return nil
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	packet, err := parsePacket(ctx)
	if err != nil {
		return err
	}

	signer, err := getSigner(ctx, e)
	if err != nil {
		return err
	}
	defer signer.cleanUp()

	if err := ordscript.SignRevealPacket(e.ctx, packet, signer); err != nil {
		return fmt.Errorf("unable to sign reveal PSBT: %w", err)
	}

	return printPacket(packet)
}

var psbtFinalizeCommand = cli.Command{
	Name:  "finalize",
	Usage: "Finalize a signed reveal PSBT",
	Description: `
	Verify the signature of a signed reveal PSBT and extract the final
	reveal transaction.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  psbtName,
			Usage: "the base64 encoded signed reveal PSBT",
		},
	},
	Action: psbtFinalize,
}

func psbtFinalize(ctx *cli.Context) error {
	if !ctx.IsSet(psbtName) {
		_ = cli.ShowCommandHelp(ctx, "finalize")
		return nil
	}

	if _, err := setup(ctx); err != nil {
		return err
	}

	packet, err := parsePacket(ctx)
	if err != nil {
		return err
	}

	revealTx, err := ordscript.FinalizeRevealPacket(packet)
	if err != nil {
		return fmt.Errorf("unable to finalize reveal PSBT: %w", err)
	}

	printJSON(newRevealResp(revealTx))
	return nil
}

func parsePacket(ctx *cli.Context) (*psbt.Packet, error) {
	packet, err := psbt.NewFromRawBytes(
		strings.NewReader(strings.TrimSpace(ctx.String(psbtName))),
		true,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to decode PSBT: %w", err)
	}

	return packet, nil
}

func printPacket(packet *psbt.Packet) error {
	b64, err := packet.B64Encode()
	if err != nil {
		return fmt.Errorf("unable to encode PSBT: %w", err)
	}

	printJSON(struct {
		Psbt string `json:"psbt"`
	}{
		Psbt: b64,
	})
	return nil
}
