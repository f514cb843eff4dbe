package address

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

const (
	vectorToAddress = "bc1pcf8yrw8vf5y3lxlmkjqlme7wpqywmqsdhr5ngzwvgpx63ww" +
		"706fq3y4x0q"

	vectorToPkScript = "5120c24e41b8ec4d091f9bfbb481fde7ce0808ed820db8e934" +
		"09cc404da8b9de7e92"

	vectorOutputKey = "00ac1f3d4afe29ed54eb4474289aebee9b692f2313c6b9d4558" +
		"98187ab1cf016"

	vectorRevealAddress = "bc1pqzkp7022lc57648tg36z3xhta6dkjterz0rtn4z43xq" +
		"c02cu7qtql324nw"
)

// TestDecodeAddress tests decoding destination addresses into output scripts.
func TestDecodeAddress(t *testing.T) {
	t.Parallel()

	addr, pkScript, err := DecodeAddress(vectorToAddress, &MainNet)
	require.NoError(t, err)
	require.Equal(t, vectorToPkScript, hex.EncodeToString(pkScript))
	require.IsType(t, &btcutil.AddressTaproot{}, addr)

	testCases := []struct {
		name string
		addr string
		net  *ChainParams
	}{{
		name: "empty",
		addr: "",
		net:  &MainNet,
	}, {
		name: "garbage",
		addr: "not an address",
		net:  &MainNet,
	}, {
		name: "bad checksum",
		addr: vectorToAddress[:len(vectorToAddress)-1] + "p",
		net:  &MainNet,
	}, {
		name: "wrong network",
		addr: vectorToAddress,
		net:  &TestNet3,
	}, {
		name: "regtest address on mainnet",
		addr: regtestAddress(t),
		net:  &MainNet,
	}}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := DecodeAddress(testCase.addr, testCase.net)
			require.ErrorIs(t, err, ErrAddressDecode)
		})
	}
}

func regtestAddress(t *testing.T) string {
	key, err := hex.DecodeString(vectorOutputKey)
	require.NoError(t, err)

	addr, err := TaprootAddress(key, &RegTestNet)
	require.NoError(t, err)

	return addr.EncodeAddress()
}

// TestTaprootAddress makes sure output keys are encoded with the HRP of the
// selected network.
func TestTaprootAddress(t *testing.T) {
	t.Parallel()

	key, err := hex.DecodeString(vectorOutputKey)
	require.NoError(t, err)

	addr, err := TaprootAddress(key, &MainNet)
	require.NoError(t, err)
	require.Equal(t, vectorRevealAddress, addr.EncodeAddress())

	regtest := regtestAddress(t)
	require.True(t, strings.HasPrefix(regtest, "bcrt1p"))

	_, pkScript, err := DecodeAddress(regtest, &RegTestNet)
	require.NoError(t, err)
	require.Equal(t, "5120"+vectorOutputKey, hex.EncodeToString(pkScript))

	// Testnet and signet share the HRP, so their addresses are valid on
	// both networks.
	testnet, err := TaprootAddress(key, &TestNet3)
	require.NoError(t, err)
	_, _, err = DecodeAddress(testnet.EncodeAddress(), &SigNet)
	require.NoError(t, err)
	_, _, err = DecodeAddress(testnet.EncodeAddress(), &RegTestNet)
	require.ErrorIs(t, err, ErrAddressDecode)

	_, err = TaprootAddress(key[:31], &MainNet)
	require.Error(t, err)
}

// TestNet tests the network lookup by name.
func TestNet(t *testing.T) {
	t.Parallel()

	for name, params := range map[string]*chaincfg.Params{
		"mainnet":  &chaincfg.MainNetParams,
		"MainNet":  &chaincfg.MainNetParams,
		"testnet":  &chaincfg.TestNet3Params,
		"testnet3": &chaincfg.TestNet3Params,
		"regtest":  &chaincfg.RegressionNetParams,
		"signet":   &chaincfg.SigNetParams,
		"simnet":   &chaincfg.SimNetParams,
	} {
		net, err := Net(name)
		require.NoError(t, err)
		require.Equal(t, params, net.Params)
		require.True(t, IsForNet(params.Bech32HRPSegwit, net))
	}

	_, err := Net("litecoin")
	require.ErrorIs(t, err, ErrUnsupportedNet)

	require.False(t, IsForNet("tb", &MainNet))

	custom := CustomSigNet([]byte{0x51})
	require.Equal(t, NetSignet, custom.Name)
	require.Equal(t, "tb", custom.Bech32HRPSegwit)
	require.NotEqual(t, chaincfg.SigNetParams.Net, custom.Net)
}
