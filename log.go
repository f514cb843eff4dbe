package inscribe

import (
	"github.com/btcsuite/btclog"
	"github.com/lightninglabs/inscribe/address"
	"github.com/lightninglabs/inscribe/inscription"
	"github.com/lightninglabs/inscribe/ordscript"
	"github.com/lightningnetwork/lnd/build"
	"github.com/lightningnetwork/lnd/signal"
)

// Subsystem defines the logging code of the main package.
const Subsystem = "INSB"

// replaceableLogger is a thin wrapper around a logger that is used so the
// logger can be replaced easily without some black pointer magic.
type replaceableLogger struct {
	btclog.Logger
	subsystem string
}

// Loggers can not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by
// calling InitLogRotator() on the main log writer instance in the config.
var (
	// pkgLoggers is a list of all package level loggers of the main
	// package. They are replaced once SetupLoggers is called with the
	// final root logger.
	pkgLoggers []*replaceableLogger

	// addPkgLogger creates a new replaceable main package level logger and
	// adds it to the list of loggers that are replaced again later.
	addPkgLogger = func(subsystem string) *replaceableLogger {
		l := &replaceableLogger{
			Logger:    build.NewSubLogger(subsystem, nil),
			subsystem: subsystem,
		}
		pkgLoggers = append(pkgLoggers, l)
		return l
	}

	log = addPkgLogger(Subsystem)
)

// genSubLogger creates a logger for a subsystem. We provide an instance of a
// signal.Interceptor to be able to shutdown in the case of a critical error.
func genSubLogger(root *build.RotatingLogWriter,
	interceptor signal.Interceptor) func(string) btclog.Logger {

	// Create a shutdown function which will request shutdown from our
	// interceptor if it is listening.
	shutdown := func() {
		if !interceptor.Listening() {
			return
		}

		interceptor.RequestShutdown()
	}

	return func(tag string) btclog.Logger {
		return root.GenSubLogger(tag, shutdown)
	}
}

// SetupLoggers initializes all package-global logger variables.
func SetupLoggers(root *build.RotatingLogWriter,
	interceptor signal.Interceptor) {

	genLogger := genSubLogger(root, interceptor)

	for _, l := range pkgLoggers {
		l.Logger = build.NewSubLogger(l.subsystem, genLogger)
		SetSubLogger(root, l.subsystem, l.Logger)
	}

	signal.UseLogger(log)

	AddSubLogger(root, ordscript.Subsystem, interceptor, ordscript.UseLogger)
	AddSubLogger(
		root, inscription.Subsystem, interceptor, inscription.UseLogger,
	)
	AddSubLogger(root, address.Subsystem, interceptor, address.UseLogger)
}

// AddSubLogger is a helper method to conveniently create and register the
// logger of one or more sub systems.
func AddSubLogger(root *build.RotatingLogWriter, subsystem string,
	interceptor signal.Interceptor, useLoggers ...func(btclog.Logger)) {

	// Create and register just a single logger to prevent them from
	// overwriting each other internally.
	logger := build.NewSubLogger(subsystem, genSubLogger(root, interceptor))
	SetSubLogger(root, subsystem, logger, useLoggers...)
}

// SetSubLogger is a helper method to conveniently register the logger of a sub
// system.
func SetSubLogger(root *build.RotatingLogWriter, subsystem string,
	logger btclog.Logger, useLoggers ...func(btclog.Logger)) {

	root.RegisterSubLogger(subsystem, logger)
	for _, useLogger := range useLoggers {
		useLogger(logger)
	}
}
