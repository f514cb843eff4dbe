package main

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/urfave/cli"
)

const rawTxName = "rawtx"

var decodeCommand = cli.Command{
	Name:      "decode",
	ShortName: "d",
	Usage:     "Decode the inscription of a reveal transaction",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  rawTxName,
			Usage: "the hex encoded reveal transaction",
		},
	},
	Action: decode,
}

// decodeResp is the inscription found in a reveal transaction.
type decodeResp struct {
	TxID          string `json:"txid"`
	InscriptionID string `json:"inscription_id"`
	Key           string `json:"key"`
	ContentType   string `json:"content_type"`
	Body          string `json:"body"`
	Text          string `json:"text,omitempty"`
}

func decode(ctx *cli.Context) error {
	if !ctx.IsSet(rawTxName) {
		_ = cli.ShowCommandHelp(ctx, "decode")
		return nil
	}

	tx, err := ordscript.DecodeRawTx(ctx.String(rawTxName))
	if err != nil {
		return err
	}

	key, ins, err := ordscript.ExtractInscription(tx)
	if err != nil {
		return fmt.Errorf("unable to extract inscription: %w", err)
	}

	txid := tx.TxHash().String()
	resp := &decodeResp{
		TxID: txid,
		InscriptionID: ordscript.InscriptionID(
			txid, ordscript.InscriptionOutputIndex,
		),
		Key:         hex.EncodeToString(schnorr.SerializePubKey(key)),
		ContentType: string(ins.ContentType),
		Body:        hex.EncodeToString(ins.Body),
	}
	if utf8.Valid(ins.Body) {
		resp.Text = string(ins.Body)
	}

	printJSON(resp)
	return nil
}
