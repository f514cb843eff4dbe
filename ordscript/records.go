package ordscript

import (
	"github.com/lightningnetwork/lnd/tlv"
)

// CommitTlvType represents the different TLV types of a serialized commit
// record.
type CommitTlvType = tlv.Type

const (
	CommitVersion     CommitTlvType = 0
	CommitNetwork     CommitTlvType = 2
	CommitInternalKey CommitTlvType = 4
	CommitLeafScript  CommitTlvType = 6

	// CommitSigNetChallenge is odd, so records of the default networks
	// stay readable by decoders that don't know about custom signets.
	CommitSigNetChallenge CommitTlvType = 7
)

func newCommitVersionRecord(version *uint8) tlv.Record {
	return tlv.MakePrimitiveRecord(CommitVersion, version)
}

func newCommitNetworkRecord(net *[]byte) tlv.Record {
	return tlv.MakePrimitiveRecord(CommitNetwork, net)
}

func newCommitInternalKeyRecord(key *[32]byte) tlv.Record {
	return tlv.MakePrimitiveRecord(CommitInternalKey, key)
}

func newCommitLeafScriptRecord(script *[]byte) tlv.Record {
	return tlv.MakePrimitiveRecord(CommitLeafScript, script)
}

func newCommitSigNetChallengeRecord(challenge *[]byte) tlv.Record {
	return tlv.MakePrimitiveRecord(CommitSigNetChallenge, challenge)
}

// isKnownCommitType returns true if the type is part of the commit record.
func isKnownCommitType(typ CommitTlvType) bool {
	switch typ {
	case CommitVersion, CommitNetwork, CommitInternalKey,
		CommitLeafScript:

		return true

	default:
		return false
	}
}
