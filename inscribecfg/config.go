package inscribecfg

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btclog"
	"github.com/jessevdk/go-flags"
	"github.com/lightninglabs/inscribe"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/keychain"
	"github.com/lightningnetwork/lnd/lnrpc/verrpc"
	"github.com/lightningnetwork/lnd/lnwallet/chainfee"
	"github.com/lightningnetwork/lnd/signal"
)

const (
	defaultLogLevel       = "warn"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "inscribe.log"
	defaultConfigFileName = "inscribe.conf"

	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10

	defaultNetwork = address.NetMainnet

	// defaultFeeRate is the fee rate in sat/vB used to size the commit
	// output if none is given.
	defaultFeeRate = 10

	// defaultLndMacaroon is the macaroon we use by default when talking to
	// lnd. Only the signer and wallet kit sub servers are used.
	defaultLndMacaroon = "admin.macaroon"

	// DefaultKeyFamily is the lnd key family the remote signer derives
	// the inscription keys from. It is outside of the range lnd reserves
	// for its own keys.
	DefaultKeyFamily keychain.KeyFamily = 1000
)

var (
	// DefaultInscribeDir is the default directory where inscribe keeps its
	// configuration file and logs.
	DefaultInscribeDir = btcutil.AppDataDir("inscribe", false)

	// DefaultConfigFile is the default full path of the configuration
	// file.
	DefaultConfigFile = filepath.Join(
		DefaultInscribeDir, defaultConfigFileName,
	)

	defaultLogDir = filepath.Join(DefaultInscribeDir, defaultLogDirname)

	// defaultLndDir is the default location where we look for lnd's tls and
	// macaroon files.
	defaultLndDir = btcutil.AppDataDir("lnd", false)

	defaultLndTLSPath = filepath.Join(defaultLndDir, "tls.cert")

	// defaultLndMacaroonPath is the default location where we look for a
	// macaroon to use when connecting to lnd.
	defaultLndMacaroonPath = filepath.Join(
		defaultLndDir, "data", "chain", "bitcoin", defaultNetwork,
		defaultLndMacaroon,
	)

	// minimalCompatibleVersion is the minimum version and build tags
	// required in lnd to sign reveal transactions.
	minimalCompatibleVersion = &verrpc.Version{
		AppMajor: 0,
		AppMinor: 15,
		AppPatch: 0,

		// lndclient loads the invoices and chain macaroons even if we
		// never call those sub servers.
		BuildTags: []string{
			"signrpc", "walletrpc", "chainrpc", "invoicesrpc",
		},
	}

	// ErrInvalidConfig is returned if a config value is out of range or
	// values contradict each other.
	ErrInvalidConfig = errors.New("invalid config")
)

// ChainConfig houses the configuration options that govern which network the
// inscriptions are created on.
type ChainConfig struct {
	Network string `long:"network" description:"network to create inscriptions on" choice:"mainnet" choice:"testnet" choice:"regtest" choice:"simnet" choice:"signet"`

	SigNetChallenge string `long:"signetchallenge" description:"Use a custom signet network defined by this challenge instead of the global default signet test network"`
}

// LndConfig is the config used to connect to the lnd node that acts as the
// remote signer of reveal transactions.
type LndConfig struct {
	Host string `long:"host" description:"lnd instance rpc address"`

	// MacaroonPath is the path to the single macaroon that should be used.
	// The macaroon MUST have the signer and wallet kit permissions.
	MacaroonPath string `long:"macaroonpath" description:"The full path to the single macaroon to use, either the admin.macaroon or a custom baked one with signer and walletkit permissions."`

	TLSPath string `long:"tlspath" description:"Path to lnd tls certificate"`

	KeyFamily uint32 `long:"keyfamily" description:"The key family of the key lnd signs reveal transactions with"`
	KeyIndex  uint32 `long:"keyindex" description:"The key index of the key lnd signs reveal transactions with"`
}

// Config is the main config of the inscribe command.
type Config struct {
	InscribeDir string `long:"inscribedir" description:"The base directory that contains the configuration file and logs"`
	ConfigFile  string `long:"configfile" description:"Path to configuration file"`

	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`

	LogDir         string `long:"logdir" description:"Directory to log output."`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum logfile size in MB"`

	FeeRate   uint64 `long:"feerate" description:"The fee rate in sat/vB used to size the commit output for the reveal transaction"`
	DustLimit int64  `long:"dustlimit" description:"Override of the minimum value of the inscription output in satoshis, 0 uses the relay policy dust limit"`
	Amount    int64  `long:"amount" description:"The default value of the inscription output in satoshis, 0 uses the dust limit"`

	ChainConf *ChainConfig `group:"chain" namespace:"chain"`

	Lnd *LndConfig `group:"lnd" namespace:"lnd"`

	// LogWriter is the root logger that all subloggers are attached to.
	LogWriter *build.RotatingLogWriter

	// ActiveNetParams are the parameters of the selected network. It is
	// only set after the config was validated.
	ActiveNetParams *address.ChainParams
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		InscribeDir:    DefaultInscribeDir,
		ConfigFile:     DefaultConfigFile,
		DebugLevel:     defaultLogLevel,
		LogDir:         defaultLogDir,
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
		FeeRate:        defaultFeeRate,
		ChainConf: &ChainConfig{
			Network: defaultNetwork,
		},
		Lnd: &LndConfig{
			Host:         "localhost:10009",
			MacaroonPath: defaultLndMacaroonPath,
			TLSPath:      defaultLndTLSPath,
			KeyFamily:    uint32(DefaultKeyFamily),
		},
		LogWriter: build.NewRotatingLogWriter(),
	}
}

// LoadConfig returns the default config overwritten by all options of the
// config file at the given path. A missing file is only an error if the path
// isn't the default one.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	configFilePath := CleanAndExpandPath(configFile)
	if configFilePath == "" {
		configFilePath = DefaultConfigFile
	}

	if !fileExists(configFilePath) {
		if configFilePath != DefaultConfigFile {
			return nil, fmt.Errorf("specified config file does "+
				"not exist in %s", configFilePath)
		}

		return &cfg, nil
	}

	fileParser := flags.NewParser(&cfg, flags.Default)
	err := flags.NewIniParser(fileParser).ParseFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w",
			configFilePath, err)
	}
	cfg.ConfigFile = configFilePath

	return &cfg, nil
}

// usageError is an error type that signals a problem with the supplied flags.
type usageError struct {
	err error
}

// Error returns the error string.
//
// NOTE: This is part of the error interface.
func (u *usageError) Error() string {
	return u.err.Error()
}

// Unwrap returns the underlying error.
func (u *usageError) Unwrap() error {
	return u.err
}

// IsUsageError returns true if the error was caused by an illegal flag value
// or combination of flags.
func IsUsageError(err error) bool {
	var uErr *usageError
	return errors.As(err, &uErr)
}

// ValidateConfig check the given configuration to be sane. This makes sure no
// illegal values or combination of values are set. All file system paths are
// normalized and logging is initialized. The cleaned up config is returned on
// success.
func ValidateConfig(cfg Config, interceptor signal.Interceptor) (*Config,
	btclog.Logger, error) {

	// If the provided inscribe directory is not the default, the log
	// directory lives within it.
	inscribeDir := CleanAndExpandPath(cfg.InscribeDir)
	if inscribeDir != DefaultInscribeDir && cfg.LogDir == defaultLogDir {
		cfg.LogDir = filepath.Join(inscribeDir, defaultLogDirname)
	}

	funcName := "ValidateConfig"
	mkErr := func(format string, args ...interface{}) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, funcName,
			fmt.Sprintf(format, args...))
	}

	cfg.InscribeDir = inscribeDir
	cfg.LogDir = CleanAndExpandPath(cfg.LogDir)
	cfg.Lnd.MacaroonPath = CleanAndExpandPath(cfg.Lnd.MacaroonPath)
	cfg.Lnd.TLSPath = CleanAndExpandPath(cfg.Lnd.TLSPath)

	activeNet, err := address.Net(cfg.ChainConf.Network)
	if err != nil {
		return nil, nil, &usageError{mkErr("%v", err)}
	}

	if cfg.ChainConf.SigNetChallenge != "" {
		if activeNet.Name != address.NetSignet {
			return nil, nil, &usageError{mkErr("signet challenge " +
				"can only be used with network signet")}
		}

		challenge, err := hex.DecodeString(cfg.ChainConf.SigNetChallenge)
		if err != nil {
			return nil, nil, &usageError{mkErr("invalid signet "+
				"challenge, hex decode failed: %v", err)}
		}
		activeNet = address.CustomSigNet(challenge)
	}
	cfg.ActiveNetParams = activeNet

	switch {
	case cfg.FeeRate == 0:
		return nil, nil, &usageError{mkErr("fee rate must be positive")}

	case cfg.DustLimit < 0:
		return nil, nil, &usageError{mkErr("dust limit must not be " +
			"negative")}

	case cfg.Amount < 0:
		return nil, nil, &usageError{mkErr("amount must not be " +
			"negative")}

	case cfg.Amount > 0 && cfg.Amount < cfg.DustLimit:
		return nil, nil, &usageError{mkErr("amount %d is below dust "+
			"limit %d", cfg.Amount, cfg.DustLimit)}
	}

	// Append the network type to the log directory so it is "namespaced"
	// per network.
	cfg.LogDir = filepath.Join(cfg.LogDir, activeNet.Name)

	// A log writer must be passed in, otherwise we can't function and would
	// run into a panic later on.
	if cfg.LogWriter == nil {
		return nil, nil, mkErr("log writer missing in config")
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems",
			cfg.LogWriter.SupportedSubsystems())
		os.Exit(0)
	}

	// Initialize logging at the default logging level.
	inscribe.SetupLoggers(cfg.LogWriter, interceptor)
	inscribe.AddSubLogger(cfg.LogWriter, Subsystem, interceptor, UseLogger)
	err = cfg.LogWriter.InitLogRotator(
		filepath.Join(cfg.LogDir, defaultLogFilename),
		cfg.MaxLogFileSize, cfg.MaxLogFiles,
	)
	if err != nil {
		return nil, nil, mkErr("log rotation setup failed: %v", err)
	}

	// Parse, validate, and set debug log level(s).
	err = build.ParseAndSetDebugLevels(cfg.DebugLevel, cfg.LogWriter)
	if err != nil {
		return nil, log, &usageError{mkErr("error parsing debug "+
			"level: %v", err)}
	}

	log.Debugf("Using network %s, config file %s", activeNet.Name,
		cfg.ConfigFile)

	// All good, return the sanitized result.
	return &cfg, log, nil
}

// FeeRatePerKVByte returns the configured fee rate in the unit the fee
// estimation works with.
func (c *Config) FeeRatePerKVByte() chainfee.SatPerKVByte {
	return chainfee.SatPerKVByte(c.FeeRate * 1000)
}

// KeyLocator returns the locator of the key the lnd signer uses.
func (c *Config) KeyLocator() keychain.KeyLocator {
	return keychain.KeyLocator{
		Family: keychain.KeyFamily(c.Lnd.KeyFamily),
		Index:  c.Lnd.KeyIndex,
	}
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// ConnectLnd returns an instance of the lnd services proxy connected to the
// configured node.
func ConnectLnd(cfg *Config,
	interceptor signal.Interceptor) (*lndclient.GrpcLndServices, error) {

	// NewLndServices blocks until lnd is unlocked and synced. We still
	// want to be able to exit if the user decides to not wait, so we pass
	// down a context that we cancel on shutdown.
	ctxc, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		// Client requests shutdown, cancel the wait.
		case <-interceptor.ShutdownChannel():
			cancel()

		// The connection was established and the above defer canceled
		// the context.
		case <-ctxc.Done():
		}
	}()

	log.Infof("Connecting to lnd at %s", cfg.Lnd.Host)

	return lndclient.NewLndServices(&lndclient.LndServicesConfig{
		LndAddress:            cfg.Lnd.Host,
		Network:               lndclient.Network(cfg.ActiveNetParams.Name),
		CustomMacaroonPath:    cfg.Lnd.MacaroonPath,
		TLSPath:               cfg.Lnd.TLSPath,
		CheckVersion:          minimalCompatibleVersion,
		BlockUntilChainSynced: false,
		BlockUntilUnlocked:    true,
		CallerCtx:             ctxc,
	})
}
