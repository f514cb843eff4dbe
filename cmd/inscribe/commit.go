package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/urfave/cli"
)

const (
	textName        = "text"
	fileName        = "file"
	contentTypeName = "content_type"
	pubKeyName      = "pubkey"
	toAddrName      = "to"
	amountName      = "amount"
	feeRateName     = "feerate"
	commitRecName   = "commit_record"
)

var commitCommand = cli.Command{
	Name:      "commit",
	ShortName: "c",
	Usage:     "Derive the address inscriptions are committed to",
	Description: `
	Derive the taproot commit address for one or more inscriptions. Each
	inscription is committed to in its own output. Send funds to the
	reveal address, then use the returned commit record to create the
	reveal transaction.

	If --to is set, the reveal transaction size and the amount the commit
	output needs at the configured fee rate are estimated as well.
	`,
	Flags: append([]cli.Flag{
		cli.StringSliceFlag{
			Name:  textName,
			Usage: "a text to inscribe, can be repeated",
		},
		cli.StringSliceFlag{
			Name:  fileName,
			Usage: "a file to inscribe, can be repeated",
		},
		cli.StringFlag{
			Name: contentTypeName,
			Usage: "optional, the MIME type of the files, detected " +
				"from the file if not set",
		},
		cli.StringFlag{
			Name: pubKeyName,
			Usage: "the hex encoded compressed public key that " +
				"owns the commit output",
		},
		cli.StringFlag{
			Name:  toAddrName,
			Usage: "optional, the address to send the inscription to",
		},
		cli.Int64Flag{
			Name:  amountName,
			Usage: "optional, the value of the inscription output",
		},
		cli.Uint64Flag{
			Name:  feeRateName,
			Usage: "optional, the fee rate in sat/vB",
		},
	}, signerFlags...),
	Action: commit,
}

// commitResp is the result of a single commit derivation.
type commitResp struct {
	InternalKey    string `json:"internal_key"`
	ContentType    string `json:"content_type"`
	BodySize       int    `json:"body_size"`
	RevealAddress  string `json:"reveal_address"`
	OutputKey      string `json:"output_key"`
	OutputScript   string `json:"output_script"`
	TapLeafHash    string `json:"tap_leaf_hash"`
	ControlBlock   string `json:"control_block"`
	CommitRecord   string `json:"commit_record"`
	RevealVSize    int64  `json:"reveal_vsize,omitempty"`
	RequiredAmount int64  `json:"required_amount,omitempty"`
}

func commit(ctx *cli.Context) error {
	inscriptions, err := parseInscriptions(ctx)
	if err != nil {
		return err
	}
	if len(inscriptions) == 0 {
		_ = cli.ShowCommandHelp(ctx, "commit")
		return nil
	}

	e, err := setup(ctx)
	if err != nil {
		return err
	}

	var pubKey []byte
	if ctx.IsSet(pubKeyName) {
		pubKey, err = hex.DecodeString(ctx.String(pubKeyName))
		if err != nil {
			return fmt.Errorf("unable to decode pubkey: %w", err)
		}
	} else {
		signer, err := getSigner(ctx, e)
		if err != nil {
			return err
		}
		defer signer.cleanUp()

		pubKey = signer.pubKey.SerializeCompressed()
	}

	commits, err := ordscript.NewCommitTxDataBatch(
		e.ctx, pubKey, inscriptions, e.cfg.ActiveNetParams,
	)
	if err != nil {
		return fmt.Errorf("unable to derive commit data: %w", err)
	}

	resps := make([]*commitResp, 0, len(commits))
	for _, commitData := range commits {
		resp, err := newCommitResp(ctx, e, commitData)
		if err != nil {
			return err
		}
		resps = append(resps, resp)
	}

	if len(resps) == 1 {
		printJSON(resps[0])
		return nil
	}

	printJSON(resps)
	return nil
}

// newCommitResp creates the response for the given commit data and adds the
// fee estimate if a recipient is known.
func newCommitResp(ctx *cli.Context, e *env,
	commitData *ordscript.CommitTxData) (*commitResp, error) {

	record, err := encodeCommitRecord(commitData)
	if err != nil {
		return nil, err
	}

	resp := &commitResp{
		InternalKey:   hex.EncodeToString(commitData.InternalKeyXOnly()),
		ContentType:   string(commitData.Inscription.ContentType),
		BodySize:      len(commitData.Inscription.Body),
		RevealAddress: commitData.RevealAddress,
		OutputKey:     hex.EncodeToString(commitData.OutputKey.XOnly[:]),
		OutputScript:  hex.EncodeToString(commitData.OutputScript),
		TapLeafHash:   hex.EncodeToString(commitData.TapLeafHash[:]),
		ControlBlock:  commitData.ControlBlockHex(),
		CommitRecord:  record,
	}

	if !ctx.IsSet(toAddrName) {
		return resp, nil
	}

	est, err := estimate(ctx, e, commitData)
	if err != nil {
		return nil, err
	}
	resp.RevealVSize = est.RevealVSize
	resp.RequiredAmount = est.RequiredAmount

	return resp, nil
}

// parseInscriptions creates the inscriptions from all texts and files given on
// the command line.
func parseInscriptions(ctx *cli.Context) ([]*inscription.Inscription,
	error) {

	var inscriptions []*inscription.Inscription
	for _, text := range ctx.StringSlice(textName) {
		inscriptions = append(inscriptions, inscription.NewText(text))
	}

	for _, file := range ctx.StringSlice(fileName) {
		body, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("unable to read %s: %w", file,
				err)
		}

		contentType := ctx.String(contentTypeName)
		if contentType == "" {
			contentType = detectContentType(file, body)
		}

		ins, err := inscription.New(contentType, body)
		if err != nil {
			return nil, err
		}
		inscriptions = append(inscriptions, ins)
	}

	return inscriptions, nil
}

// detectContentType guesses the MIME type of a file from its extension and
// falls back to sniffing the content.
func detectContentType(file string, body []byte) string {
	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType != "" {
		return contentType
	}

	return http.DetectContentType(body)
}

// encodeCommitRecord serializes the commit data into its hex encoded record.
func encodeCommitRecord(commitData *ordscript.CommitTxData) (string, error) {
	var b bytes.Buffer
	if err := commitData.Encode(&b); err != nil {
		return "", fmt.Errorf("unable to encode commit record: %w", err)
	}

	return hex.EncodeToString(b.Bytes()), nil
}

// decodeCommitRecord parses the commit record passed on the command line.
func decodeCommitRecord(ctx *cli.Context) (*ordscript.CommitTxData, error) {
	if !ctx.IsSet(commitRecName) {
		return nil, fmt.Errorf("--%s must be set", commitRecName)
	}

	record, err := hex.DecodeString(ctx.String(commitRecName))
	if err != nil {
		return nil, fmt.Errorf("unable to decode commit record: %w",
			err)
	}

	commitData, err := ordscript.DecodeCommitTxData(
		bytes.NewReader(record),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid commit record: %w", err)
	}

	return commitData, nil
}

// outputAmount returns the value of the inscription output. If none is set,
// the configured default or the dust limit of the output is used.
func outputAmount(ctx *cli.Context, e *env,
	pkScript []byte) btcutil.Amount {

	switch {
	case ctx.IsSet(amountName):
		return btcutil.Amount(ctx.Int64(amountName))

	case e.cfg.Amount > 0:
		return btcutil.Amount(e.cfg.Amount)

	case e.cfg.DustLimit > 0:
		return btcutil.Amount(e.cfg.DustLimit)

	default:
		return ordscript.DustLimit(pkScript)
	}
}
