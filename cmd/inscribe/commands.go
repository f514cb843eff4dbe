package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/lightninglabs/inscribe"
	"github.com/lightninglabs/inscribe/inscribecfg"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/lightningnetwork/lnd/signal"
	"github.com/urfave/cli"
)

const (
	configFileName      = "configfile"
	inscribeDirName     = "inscribedir"
	networkName         = "network"
	sigNetChallengeName = "signetchallenge"
	debugLevelName      = "debuglevel"

	privKeyName = "privkey"
	lndName     = "lnd"
)

// NewApp creates a new inscribe app with all the available commands.
func NewApp() cli.App {
	app := cli.NewApp()
	app.Name = "inscribe"
	app.Version = inscribe.Version()
	app.Usage = "create ordinal inscriptions with a taproot commit and " +
		"reveal transaction"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:      configFileName,
			Value:     inscribecfg.DefaultConfigFile,
			Usage:     "The path to the configuration file.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name:      inscribeDirName,
			Value:     inscribecfg.DefaultInscribeDir,
			Usage:     "The path to inscribe's base directory.",
			TakesFile: true,
		},
		cli.StringFlag{
			Name: "network, n",
			Usage: "The network to create inscriptions on, e.g. " +
				"mainnet, testnet, etc. Overrides the config " +
				"file.",
		},
		cli.StringFlag{
			Name: sigNetChallengeName,
			Usage: "The challenge of a custom signet, only valid " +
				"with --network=signet.",
		},
		cli.StringFlag{
			Name: debugLevelName,
			Usage: "Logging level for all subsystems, use show " +
				"to list available subsystems.",
		},
	}

	// Add all the available commands.
	app.Commands = []cli.Command{
		commitCommand,
		estimateCommand,
		revealCommand,
		psbtCommand,
		decodeCommand,
	}

	return *app
}

// fatal prints the error to stderr and exits.
func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "[inscribe] %v\n", err)
	os.Exit(1)
}

// env bundles everything a command needs to run.
type env struct {
	ctx         context.Context
	cfg         *inscribecfg.Config
	interceptor signal.Interceptor
}

// setup loads and validates the configuration, applies the global flag
// overrides and returns a context that is canceled on shutdown.
func setup(ctx *cli.Context) (*env, error) {
	shutdownInterceptor, err := signal.Intercept()
	if err != nil {
		return nil, err
	}

	cfg, err := inscribecfg.LoadConfig(ctx.GlobalString(configFileName))
	if err != nil {
		return nil, err
	}

	if ctx.GlobalIsSet(inscribeDirName) {
		cfg.InscribeDir = ctx.GlobalString(inscribeDirName)
	}
	if ctx.GlobalIsSet(networkName) {
		cfg.ChainConf.Network = ctx.GlobalString(networkName)
	}
	if ctx.GlobalIsSet(sigNetChallengeName) {
		cfg.ChainConf.SigNetChallenge = ctx.GlobalString(
			sigNetChallengeName,
		)
	}
	if ctx.GlobalIsSet(debugLevelName) {
		cfg.DebugLevel = ctx.GlobalString(debugLevelName)
	}

	cleanCfg, _, err := inscribecfg.ValidateConfig(
		*cfg, shutdownInterceptor,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctxc, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdownInterceptor.ShutdownChannel()
		cancel()
	}()

	return &env{
		ctx:         ctxc,
		cfg:         cleanCfg,
		interceptor: shutdownInterceptor,
	}, nil
}

var signerFlags = []cli.Flag{
	cli.StringFlag{
		Name: privKeyName,
		Usage: "the hex encoded private key that owns the commit " +
			"output",
	},
	cli.BoolFlag{
		Name: lndName,
		Usage: "use the key of the configured lnd node instead of " +
			"a private key",
	},
}

// revealSigner is a signer together with the key it signs with.
type revealSigner struct {
	ordscript.Signer

	pubKey  *btcec.PublicKey
	cleanUp func()
}

// getSigner returns the signer selected by the command line flags.
func getSigner(ctx *cli.Context, e *env) (*revealSigner, error) {
	switch {
	case ctx.IsSet(privKeyName) && ctx.Bool(lndName):
		return nil, fmt.Errorf("only one of --%s and --%s can be set",
			privKeyName, lndName)

	case ctx.Bool(lndName):
		lndConn, err := inscribecfg.ConnectLnd(e.cfg, e.interceptor)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to lnd: %w",
				err)
		}

		signer := inscribe.NewLndRpcRevealSigner(
			&lndConn.LndServices, e.cfg.KeyLocator(),
		)
		pubKey, err := signer.PubKey(e.ctx)
		if err != nil {
			lndConn.Close()
			return nil, err
		}

		return &revealSigner{
			Signer:  signer,
			pubKey:  pubKey,
			cleanUp: lndConn.Close,
		}, nil

	case ctx.IsSet(privKeyName):
		keyBytes, err := hex.DecodeString(ctx.String(privKeyName))
		if err != nil {
			return nil, fmt.Errorf("unable to decode private "+
				"key: %w", err)
		}
		privKey, err := ordscript.ParsePrivKey(keyBytes)
		if err != nil {
			return nil, err
		}

		signer := ordscript.NewPrivKeySigner(privKey)
		return &revealSigner{
			Signer:  signer,
			pubKey:  signer.PubKey(),
			cleanUp: func() {},
		}, nil

	default:
		return nil, fmt.Errorf("either --%s or --%s must be set",
			privKeyName, lndName)
	}
}

func printJSON(resp interface{}) {
	b, err := json.Marshal(resp)
	if err != nil {
		fatal(err)
	}

	var out bytes.Buffer
	_ = json.Indent(&out, b, "", "\t")
	out.WriteString("\n")
	_, _ = out.WriteTo(os.Stdout)
}
