package blockmode

import (
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/davecgh/go-spew/spew"
	"github.com/lightningnetwork/blockmode/build"
	"github.com/lightningnetwork/blockmode/detect"
)

// Subsystem is the logging code of the root package.
const Subsystem = "BMOD"

// Loggers per subsystem. A single backend logger is created and all subsystem
// loggers created from it will write to the backend. When adding new
// subsystems, register them with AddSubLogger.
//
// Loggers write to stderr only until InitLogging hooks up the log rotator.
var (
	logWriter = &build.LogWriter{}

	// backendLog is the logging backend used to create all subsystem
	// loggers.
	backendLog = btclog.NewBackend(logWriter)

	// logRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	logRotator = build.NewRotatingLogWriter()

	log = build.NewSubLogger(Subsystem, backendLog.Logger)

	registry = &subLoggerRegistry{
		loggers: build.SubLoggers{
			Subsystem: log,
		},
	}
)

// Initialize package-global logger variables.
func init() {
	AddSubLogger(detect.Subsystem, detect.UseLogger)
}

// AddSubLogger creates a subsystem logger on the shared backend, registers it
// for level changes and hands it to every useLogger callback.
func AddSubLogger(subsystem string,
	useLoggers ...func(btclog.Logger)) btclog.Logger {

	logger := build.NewSubLogger(subsystem, backendLog.Logger)

	registry.mu.Lock()
	registry.loggers[subsystem] = logger
	registry.mu.Unlock()

	for _, useLogger := range useLoggers {
		useLogger(logger)
	}

	return logger
}

// Loggers returns the registry of every subsystem logger, for use with
// build.ParseAndSetDebugLevels.
func Loggers() build.LeveledSubLogger {
	return registry
}

// InitLogging sets the subsystem levels from cfg.DebugLevel and, unless file
// logging is disabled, starts the log rotator under cfg.LogDir. The returned
// function stops the rotator and must be called on shutdown.
func InitLogging(cfg *Config) (func(), error) {
	if !cfg.Log.File.Disable {
		err := logRotator.InitLogRotator(cfg.Log.File, cfg.LogFile())
		if err != nil {
			return nil, err
		}
		logWriter.RotatorPipe = logRotator.Pipe()
	}

	err := build.ParseAndSetDebugLevels(cfg.DebugLevel, registry)
	if err != nil {
		_ = logRotator.Close()
		return nil, err
	}

	log.Debugf("Logging initialized: level=%v, file_disabled=%v",
		cfg.DebugLevel, cfg.Log.File.Disable)

	return func() {
		logWriter.RotatorPipe = nil
		_ = logRotator.Close()
	}, nil
}

// subLoggerRegistry implements build.LeveledSubLogger over the subsystem
// loggers of the shared backend.
type subLoggerRegistry struct {
	mu      sync.Mutex
	loggers build.SubLoggers
}

// SubLoggers returns a copy of the registered subsystem loggers.
func (r *subLoggerRegistry) SubLoggers() build.SubLoggers {
	r.mu.Lock()
	defer r.mu.Unlock()

	loggers := make(build.SubLoggers, len(r.loggers))
	for name, logger := range r.loggers {
		loggers[name] = logger
	}

	return loggers
}

// SupportedSubsystems returns the sorted names of the registered subsystems.
func (r *subLoggerRegistry) SupportedSubsystems() []string {
	return r.SubLoggers().SupportedSubsystems()
}

// SetLogLevel sets the logging level for provided subsystem. Invalid
// subsystems are ignored.
func (r *subLoggerRegistry) SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := r.SubLoggers()[subsystemID]
	if !ok {
		return
	}

	// Defaults to info if the log level is invalid.
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level.
func (r *subLoggerRegistry) SetLogLevels(logLevel string) {
	for subsystemID := range r.SubLoggers() {
		r.SetLogLevel(subsystemID, logLevel)
	}
}

// LogClosure is used to provide a closure over expensive logging operations so
// don't have to be performed when the logging level doesn't warrant it.
type LogClosure func() string

// String invokes the underlying function and returns the result.
func (c LogClosure) String() string {
	return c()
}

// SpewLogClosure returns a LogClosure dumping a with spew.Sdump, so the
// dump is only built when the message is actually logged.
func SpewLogClosure(a any) LogClosure {
	return func() string {
		return spew.Sdump(a)
	}
}
