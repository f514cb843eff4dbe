package ordscript

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightningnetwork/lnd/tlv"
)

const (
	// commitEncodingV0 is the only known version of the commit record.
	commitEncodingV0 uint8 = 0
)

var (
	// ErrUnknownVersion is returned when a commit record of an unknown
	// version is decoded.
	ErrUnknownVersion = errors.New("commit record: unknown version")

	// ErrUnknownRequiredType is returned when a commit record carries an
	// even TLV type this version doesn't know.
	ErrUnknownRequiredType = errors.New("commit record: unknown " +
		"required type")
)

// Encode serializes the commit data as a TLV stream. Only the network, the
// internal key and the leaf script are written, everything else is derived
// from them again when decoding. The block signing challenge of a custom
// signet is added as an optional record.
func (c *CommitTxData) Encode(w io.Writer) error {
	var (
		version     = commitEncodingV0
		network     = []byte(c.network().Name)
		internalKey [32]byte
		script      = c.Script
		challenge   = c.network().SigNetChallenge
	)
	copy(internalKey[:], c.InternalKeyXOnly())

	records := []tlv.Record{
		newCommitVersionRecord(&version),
		newCommitNetworkRecord(&network),
		newCommitInternalKeyRecord(&internalKey),
		newCommitLeafScriptRecord(&script),
	}
	if len(challenge) > 0 {
		records = append(
			records, newCommitSigNetChallengeRecord(&challenge),
		)
	}

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return err
	}

	return stream.Encode(w)
}

// network returns the network of the commit data, defaulting to mainnet.
func (c *CommitTxData) network() *address.ChainParams {
	if c.ChainParams == nil {
		return &address.MainNet
	}
	return c.ChainParams
}

// DecodeCommitTxData decodes a commit record written by Encode. All derived
// fields are re-computed and the stored leaf script must be the canonical
// envelope of its inscription.
func DecodeCommitTxData(r io.Reader) (*CommitTxData, error) {
	var (
		version     uint8
		network     []byte
		internalKey [32]byte
		script      []byte
		challenge   []byte
	)

	stream, err := tlv.NewStream(
		newCommitVersionRecord(&version),
		newCommitNetworkRecord(&network),
		newCommitInternalKeyRecord(&internalKey),
		newCommitLeafScriptRecord(&script),
		newCommitSigNetChallengeRecord(&challenge),
	)
	if err != nil {
		return nil, err
	}

	parsedTypes, err := stream.DecodeWithParsedTypes(r)
	if err != nil {
		return nil, err
	}

	if version != commitEncodingV0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}

	// The stream skips all unknown types, even ones must still fail.
	for typ := range parsedTypes {
		if typ%2 == 0 && !isKnownCommitType(typ) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownRequiredType,
				typ)
		}
	}
	for _, typ := range []tlv.Type{
		CommitNetwork, CommitInternalKey, CommitLeafScript,
	} {
		if _, ok := parsedTypes[typ]; !ok {
			return nil, fmt.Errorf("commit record: missing type %d",
				typ)
		}
	}

	net, err := address.Net(string(network))
	if err != nil {
		return nil, err
	}
	if _, ok := parsedTypes[CommitSigNetChallenge]; ok {
		if net.Name != address.NetSignet || len(challenge) == 0 {
			return nil, fmt.Errorf("commit record: signet "+
				"challenge not valid for %s", net.Name)
		}
		net = address.CustomSigNet(challenge)
	}

	key, err := ParseXOnlyKey(internalKey[:])
	if err != nil {
		return nil, err
	}

	envelopeKey, ins, err := inscription.ParseEnvelope(script)
	if err != nil {
		return nil, err
	}
	if !envelopeKey.IsEqual(key) {
		return nil, fmt.Errorf("%w: envelope key doesn't match "+
			"internal key", inscription.ErrInvalidScript)
	}

	commitData, err := newCommitTxData(key, ins, net)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(commitData.Script, script) {
		return nil, fmt.Errorf("%w: non canonical envelope",
			inscription.ErrInvalidScript)
	}

	return commitData, nil
}
