package ordscript

import (
	"context"
	"fmt"
	"testing"

	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/inscribe/internal/test"
	"github.com/stretchr/testify/require"
)

// TestCommitTxDataBatch makes sure the batch derivation matches the single
// derivation and preserves the order of the inscriptions.
func TestCommitTxDataBatch(t *testing.T) {
	t.Parallel()

	pubKey := test.RandPrivKey(t).PubKey().SerializeCompressed()

	inscriptions := make([]*inscription.Inscription, 50)
	for i := range inscriptions {
		inscriptions[i] = inscription.NewText(fmt.Sprintf("#%d", i))
	}

	batch, err := NewCommitTxDataBatch(
		context.Background(), pubKey, inscriptions, &address.SigNet,
	)
	require.NoError(t, err)
	require.Len(t, batch, len(inscriptions))

	for i, ins := range inscriptions {
		single, err := NewCommitTxData(pubKey, ins, &address.SigNet)
		require.NoError(t, err)

		require.True(t, ins.Equal(batch[i].Inscription))
		require.Equal(t, single.RevealAddress, batch[i].RevealAddress)
		require.Equal(t, single.ControlBlock, batch[i].ControlBlock)
	}

	// A single bad inscription fails the whole batch.
	inscriptions[17] = &inscription.Inscription{}
	_, err = NewCommitTxDataBatch(
		context.Background(), pubKey, inscriptions, &address.SigNet,
	)
	require.ErrorIs(t, err, inscription.ErrInvalidScript)

	_, err = NewCommitTxDataBatch(
		context.Background(), pubKey[:32], inscriptions,
		&address.SigNet,
	)
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}
