package address

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
)

var (
	// ErrAddressDecode is returned if an address can't be decoded or
	// belongs to another network.
	ErrAddressDecode = errors.New("unable to decode address")

	// ErrUnsupportedNet is returned if a network name is unknown.
	ErrUnsupportedNet = errors.New("unsupported network")
)

// segwitAddress is implemented by all bech32 and bech32m encoded addresses.
type segwitAddress interface {
	btcutil.Address

	// Hrp returns the human readable part of the address.
	Hrp() string
}

// DecodeAddress decodes an address string for the given network and returns
// the address together with the output script that pays to it.
func DecodeAddress(addr string, net *ChainParams) (btcutil.Address,
	[]byte, error) {

	decoded, err := btcutil.DecodeAddress(addr, net.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("%w %q: %v", ErrAddressDecode, addr,
			err)
	}

	// The segwit decoder doesn't check the HRP against the passed
	// network, so we do it here for all address types.
	forNet := decoded.IsForNet(net.Params)
	if segwitAddr, ok := decoded.(segwitAddress); ok {
		forNet = IsForNet(segwitAddr.Hrp(), net)
	}
	if !forNet {
		return nil, nil, fmt.Errorf("%w %q: not a %s address",
			ErrAddressDecode, addr, net.Name)
	}

	pkScript, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, nil, fmt.Errorf("%w %q: %v", ErrAddressDecode, addr,
			err)
	}

	log.Tracef("Decoded %s address %v with pkScript=%x", net.Name, addr,
		pkScript)

	return decoded, pkScript, nil
}

// TaprootAddress encodes the given x-only output key as a segwit v1 address
// of the network.
func TaprootAddress(outputKey []byte, net *ChainParams) (*btcutil.AddressTaproot,
	error) {

	addr, err := btcutil.NewAddressTaproot(outputKey, net.Params)
	if err != nil {
		return nil, fmt.Errorf("unable to create taproot address: %w",
			err)
	}

	return addr, nil
}
