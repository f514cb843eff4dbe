package ordscript

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
)

// TweakedKey is a taproot output key in its x-only form together with the
// parity of the full point. The parity is folded into the control block.
type TweakedKey struct {
	// XOnly is the BIP-340 serialization of the output key.
	XOnly [32]byte

	// OddY is true if the y coordinate of the output key is odd.
	OddY bool
}

// NewTweakedKey splits the given output key into its x coordinate and
// parity.
func NewTweakedKey(key *btcec.PublicKey) TweakedKey {
	var t TweakedKey
	compressed := key.SerializeCompressed()
	copy(t.XOnly[:], compressed[1:])
	t.OddY = compressed[0] == secp256k1.PubKeyFormatCompressedOdd

	return t
}

// Parity returns 1 if the y coordinate of the key is odd and 0 otherwise.
func (t TweakedKey) Parity() byte {
	if t.OddY {
		return 1
	}
	return 0
}

// PubKey returns the full output key.
func (t TweakedKey) PubKey() (*btcec.PublicKey, error) {
	var compressed [btcec.PubKeyBytesLenCompressed]byte
	compressed[0] = secp256k1.PubKeyFormatCompressedEven | t.Parity()
	copy(compressed[1:], t.XOnly[:])

	return btcec.ParsePubKey(compressed[:])
}

// CommitTxData is everything needed to fund an inscription and later spend
// the funded output with the reveal transaction. It is fully determined by
// the internal key, the inscription and the network.
type CommitTxData struct {
	// InternalKey is the x-only internal key of the taproot output. The
	// same key signs the envelope leaf.
	InternalKey *btcec.PublicKey

	// Inscription is the content committed to by the leaf script.
	Inscription *inscription.Inscription

	// Script is the envelope leaf script.
	Script []byte

	// TapLeaf is the single leaf of the tapscript tree.
	TapLeaf txscript.TapLeaf

	// TapscriptTree is the indexed tree holding the envelope leaf and its
	// inclusion proof.
	TapscriptTree *txscript.IndexedTapScriptTree

	// TapLeafHash is the tagged hash of TapLeaf. As there's only one leaf
	// it is also the merkle root of the tree.
	TapLeafHash chainhash.Hash

	// OutputKey is the tweaked taproot output key.
	OutputKey TweakedKey

	// ControlBlock is the serialized control block proving the leaf is
	// committed to by the output key.
	ControlBlock []byte

	// OutputScript is the P2TR pkScript of the commit output.
	OutputScript []byte

	// RevealAddress is the bech32m address that needs to be funded.
	RevealAddress string

	// ChainParams is the network the reveal address is encoded for.
	ChainParams *address.ChainParams
}

// NewCommitTxData derives the commit data for an inscription from a 33 byte
// compressed public key. The derivation is deterministic.
func NewCommitTxData(pubKey []byte, ins *inscription.Inscription,
	net *address.ChainParams) (*CommitTxData, error) {

	internalKey, err := parseInternalKey(pubKey)
	if err != nil {
		return nil, err
	}

	return newCommitTxData(internalKey, ins, net)
}

// parseInternalKey turns a compressed public key into the x-only internal key
// of the commit output.
func parseInternalKey(pubKey []byte) (*btcec.PublicKey, error) {
	xOnly, err := ToXOnly(pubKey)
	if err != nil {
		return nil, err
	}
	if _, err := ParseCompressedKey(pubKey); err != nil {
		return nil, err
	}

	return ParseXOnlyKey(xOnly)
}

// newCommitTxData derives the commit data from an already parsed x-only
// internal key.
func newCommitTxData(internalKey *btcec.PublicKey, ins *inscription.Inscription,
	net *address.ChainParams) (*CommitTxData, error) {

	if net == nil {
		net = &address.MainNet
	}

	script, err := inscription.EnvelopeScript(internalKey, ins)
	if err != nil {
		return nil, err
	}

	leaf := txscript.NewBaseTapLeaf(script)
	tree := txscript.AssembleTaprootScriptTree(leaf)
	merkleRoot := tree.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(
		internalKey, merkleRoot[:],
	)
	tweakedKey := NewTweakedKey(outputKey)

	// The proof of a single leaf tree is empty, so the control block only
	// carries the leaf version, the output key parity and the internal
	// key.
	controlBlock := tree.LeafMerkleProofs[0].ToControlBlock(internalKey)
	if controlBlock.OutputKeyYIsOdd != tweakedKey.OddY {
		return nil, fmt.Errorf("control block parity mismatch")
	}
	controlBlockBytes, err := controlBlock.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("unable to encode control block: %w",
			err)
	}

	err = txscript.VerifyTaprootLeafCommitment(
		&controlBlock, tweakedKey.XOnly[:], script,
	)
	if err != nil {
		return nil, fmt.Errorf("invalid leaf commitment: %w", err)
	}

	outputScript, err := PayToTaprootScript(outputKey)
	if err != nil {
		return nil, err
	}

	revealAddr, err := address.TaprootAddress(tweakedKey.XOnly[:], net)
	if err != nil {
		return nil, err
	}

	commitData := &CommitTxData{
		InternalKey:   internalKey,
		Inscription:   ins.Copy(),
		Script:        script,
		TapLeaf:       leaf,
		TapscriptTree: tree,
		TapLeafHash:   leaf.TapHash(),
		OutputKey:     tweakedKey,
		ControlBlock:  controlBlockBytes,
		OutputScript:  outputScript,
		RevealAddress: revealAddr.EncodeAddress(),
		ChainParams:   net,
	}

	log.Debugf("Derived commit data for %v: reveal_addr=%v, tapleaf=%v",
		ins, commitData.RevealAddress, commitData.TapLeafHash)
	log.Tracef("Commit data: %v", spew.Sdump(commitData))

	return commitData, nil
}

// MerkleRoot returns the root of the tapscript tree.
func (c *CommitTxData) MerkleRoot() chainhash.Hash {
	return c.TapscriptTree.RootNode.TapHash()
}

// InternalKeyXOnly returns the 32 byte serialization of the internal key.
func (c *CommitTxData) InternalKeyXOnly() []byte {
	return schnorr.SerializePubKey(c.InternalKey)
}

// ControlBlockHex returns the hex encoded control block.
func (c *CommitTxData) ControlBlockHex() string {
	return hex.EncodeToString(c.ControlBlock)
}

// PayToTaprootScript creates a pk script for a pay-to-taproot output key.
func PayToTaprootScript(taprootKey *btcec.PublicKey) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_1).
		AddData(schnorr.SerializePubKey(taprootKey)).
		Script()
}
