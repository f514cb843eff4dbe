package ordscript

import (
	"context"

	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/fn"
	"github.com/lightninglabs/inscribe/inscription"
)

// NewCommitTxDataBatch derives the commit data of many inscriptions for the
// same key in parallel. The returned slice has the order of the inscriptions.
func NewCommitTxDataBatch(ctx context.Context, pubKey []byte,
	inscriptions []*inscription.Inscription,
	net *address.ChainParams) ([]*CommitTxData, error) {

	internalKey, err := parseInternalKey(pubKey)
	if err != nil {
		return nil, err
	}

	log.Debugf("Deriving commit data for %d inscriptions",
		len(inscriptions))

	return fn.ParMap(
		ctx, inscriptions, func(_ context.Context,
			ins *inscription.Inscription) (*CommitTxData, error) {

			return newCommitTxData(internalKey, ins, net)
		},
	)
}
