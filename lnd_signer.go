package inscribe

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/keychain"
)

// LndRpcRevealSigner is an implementation of the ordscript.Signer interface
// backed by an active lnd node. All signatures are created with the key at a
// fixed key locator of the node's wallet.
type LndRpcRevealSigner struct {
	lnd    *lndclient.LndServices
	keyLoc keychain.KeyLocator
}

// NewLndRpcRevealSigner returns a new signer instance backed by the passed
// connection to a remote lnd node.
func NewLndRpcRevealSigner(lnd *lndclient.LndServices,
	keyLoc keychain.KeyLocator) *LndRpcRevealSigner {

	return &LndRpcRevealSigner{
		lnd:    lnd,
		keyLoc: keyLoc,
	}
}

// PubKey derives the public key the signer signs with.
func (l *LndRpcRevealSigner) PubKey(ctx context.Context) (*btcec.PublicKey,
	error) {

	keyDesc, err := l.lnd.WalletKit.DeriveKey(ctx, &l.keyLoc)
	if err != nil {
		return nil, fmt.Errorf("unable to derive key %v: %w", l.keyLoc,
			err)
	}

	return keyDesc.PubKey, nil
}

// SignRevealTx generates a signature according to the passed signing
// descriptor and reveal transaction.
//
// NOTE: This is part of the ordscript.Signer interface.
func (l *LndRpcRevealSigner) SignRevealTx(ctx context.Context,
	signDesc *lndclient.SignDescriptor, tx *wire.MsgTx,
	prevOut *wire.TxOut) (*schnorr.Signature, error) {

	// lnd identifies the signing key by its locator, the public key is
	// only used to find the tweak, if any.
	desc := *signDesc
	desc.KeyDesc.KeyLocator = l.keyLoc

	log.Debugf("Requesting reveal tx signature from lnd for key %v",
		l.keyLoc)

	sigs, err := l.lnd.Signer.SignOutputRaw(
		ctx, tx, []*lndclient.SignDescriptor{&desc},
		[]*wire.TxOut{prevOut},
	)
	if err != nil {
		return nil, err
	}
	if len(sigs) != 1 {
		return nil, fmt.Errorf("expected one signature, got %d",
			len(sigs))
	}

	return schnorr.ParseSignature(sigs[0])
}

// A compile time assertion to ensure LndRpcRevealSigner meets the
// ordscript.Signer interface.
var _ ordscript.Signer = (*LndRpcRevealSigner)(nil)
