package address

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

// Names of the networks inscriptions can be created on.
const (
	NetMainnet = "mainnet"
	NetTestnet = "testnet"
	NetRegtest = "regtest"
	NetSignet  = "signet"
	NetSimnet  = "simnet"
)

// ChainParams defines a network inscriptions can be created on by its
// parameters. Next to the chaincfg.Params it carries the short name used in
// config files and on the command line.
type ChainParams struct {
	*chaincfg.Params
	Name string

	// SigNetChallenge is the block signing challenge of a custom signet.
	// It is empty for all other networks, including the default signet.
	SigNetChallenge []byte
}

var (
	// MainNet is the default network.
	MainNet = ChainParams{
		Params: &chaincfg.MainNetParams,
		Name:   NetMainnet,
	}

	TestNet3 = ChainParams{
		Params: &chaincfg.TestNet3Params,
		Name:   NetTestnet,
	}
	RegTestNet = ChainParams{
		Params: &chaincfg.RegressionNetParams,
		Name:   NetRegtest,
	}
	SigNet = ChainParams{
		Params: &chaincfg.SigNetParams,
		Name:   NetSignet,
	}
	SimNet = ChainParams{
		Params: &chaincfg.SimNetParams,
		Name:   NetSimnet,
	}
)

// Net returns the ChainParams for the network with the given name.
func Net(name string) (*ChainParams, error) {
	switch strings.ToLower(name) {
	case NetMainnet, "bitcoin":
		return &MainNet, nil
	case NetTestnet, "testnet3":
		return &TestNet3, nil
	case NetRegtest, "regression":
		return &RegTestNet, nil
	case NetSignet:
		return &SigNet, nil
	case NetSimnet:
		return &SimNet, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNet, name)
	}
}

// CustomSigNet returns the parameters of a signet that uses the given block
// signing challenge instead of the default one.
func CustomSigNet(challenge []byte) *ChainParams {
	params := chaincfg.CustomSignetParams(challenge, nil)
	return &ChainParams{
		Params:          &params,
		Name:            NetSignet,
		SigNetChallenge: challenge,
	}
}

// IsForNet returns whether or not the bech32 HRP is used by the passed
// network.
func IsForNet(hrp string, net *ChainParams) bool {
	return strings.EqualFold(hrp, net.Bech32HRPSegwit)
}
