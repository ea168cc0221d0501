package blockmode

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/lightningnetwork/blockmode/blockcipher"
	"github.com/lightningnetwork/blockmode/build"
	"github.com/lightningnetwork/blockmode/modes"
	"github.com/lightningnetwork/blockmode/oracle"
	"github.com/lightningnetwork/blockmode/padding"
)

const (
	defaultConfigFilename = "blockmode.conf"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "blockmode.log"
	defaultLogLevel       = "info"
	defaultCipher         = "aes128"
	defaultPadding        = "pkcs7"

	defaultTrials    = 1000
	defaultThreshold = 50.0
	defaultMetric    = "repeated"
	defaultBlockLen  = modes.BlockSize
)

var (
	// DefaultHomeDir is the default directory holding the config file and
	// the log directory.
	DefaultHomeDir = btcutil.AppDataDir("blockmode", false)

	// DefaultConfigFile is the default full path of the config file.
	DefaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)

	defaultLogDir = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// OracleConfig holds the bounds of the random bytes the oracle wraps around
// each plaintext.
//
//nolint:lll
type OracleConfig struct {
	MinPad int `long:"minpad" description:"Smallest number of random bytes added before and after the plaintext"`
	MaxPad int `long:"maxpad" description:"Exclusive upper bound of random bytes added before and after the plaintext"`
}

// SimulationConfig holds the defaults of the detection simulations.
//
//nolint:lll
type SimulationConfig struct {
	Trials    int     `long:"trials" description:"Number of oracle calls per simulation"`
	BlockLen  int     `long:"blocklen" description:"Chunk length used by the block statistics"`
	Threshold float64 `long:"threshold" description:"Average Hamming distance above which the distance detector guesses CBC"`
	Metric    string  `long:"metric" description:"Metric to describe" choice:"hamming" choice:"repeated" choice:"offset"`
}

// Config holds the options read from the config file and the command line.
//
//nolint:lll
type Config struct {
	ConfigFile string `long:"configfile" description:"Path to configuration file"`
	HomeDir    string `long:"homedir" description:"The base directory for the log directory"`
	LogDir     string `long:"logdir" description:"Directory to log output."`
	DebugLevel string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`

	Cipher  string `long:"cipher" description:"Block primitive to run the modes over" choice:"aes128" choice:"aes192" choice:"aes256" choice:"twofish" choice:"blowfish" choice:"cast5" choice:"xtea"`
	Padding string `long:"padding" description:"Padding policy applied by the ecb and cbc commands" choice:"none" choice:"pkcs7"`

	Log *build.LogConfig `group:"logging" namespace:"logging"`

	Oracle *OracleConfig `group:"oracle" namespace:"oracle"`

	Simulation *SimulationConfig `group:"simulate" namespace:"simulate"`
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		ConfigFile: DefaultConfigFile,
		HomeDir:    DefaultHomeDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		Cipher:     defaultCipher,
		Padding:    defaultPadding,
		Log:        build.DefaultLogConfig(),
		Oracle: &OracleConfig{
			MinPad: oracle.DefaultMinPad,
			MaxPad: oracle.DefaultMaxPad,
		},
		Simulation: &SimulationConfig{
			Trials:    defaultTrials,
			BlockLen:  defaultBlockLen,
			Threshold: defaultThreshold,
			Metric:    defaultMetric,
		},
	}
}

// LoadConfig starts from the defaults and applies the INI file at path on
// top. A missing file is not an error, a malformed one is. An empty path
// means the default config file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		cfg.ConfigFile = path
	}
	cfg.ConfigFile = CleanAndExpandPath(cfg.ConfigFile)

	if err := flags.IniParse(cfg.ConfigFile, &cfg); err != nil {
		// Only parsing errors are fatal, the config file is optional.
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) {
			return nil, err
		}

		log.Debugf("Not using config file: %v", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks the given configuration is sane and expands its
// paths in place. A log directory left at its default follows a changed
// home directory.
func ValidateConfig(cfg *Config) error {
	cfg.HomeDir = CleanAndExpandPath(cfg.HomeDir)
	if cfg.LogDir == defaultLogDir && cfg.HomeDir != DefaultHomeDir {
		cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
	}
	cfg.LogDir = CleanAndExpandPath(cfg.LogDir)

	if _, err := blockcipher.Lookup(cfg.Cipher); err != nil {
		return err
	}

	if _, err := padding.ParsePolicy(cfg.Padding); err != nil {
		return err
	}

	if err := cfg.Log.Validate(); err != nil {
		return err
	}

	if err := cfg.OracleConfig().Validate(); err != nil {
		return err
	}

	sim := cfg.Simulation
	switch {
	case sim.Trials <= 0:
		return fmt.Errorf("invalid simulation trials: %d", sim.Trials)

	case sim.BlockLen <= 0:
		return fmt.Errorf("invalid simulation block length: %d",
			sim.BlockLen)
	}

	return nil
}

// Engine returns the mode engine for the configured primitive.
func (c *Config) Engine() (*modes.Engine, error) {
	prim, err := blockcipher.Lookup(c.Cipher)
	if err != nil {
		return nil, err
	}

	return modes.NewEngine(prim), nil
}

// PaddingPolicy returns the configured padding policy.
func (c *Config) PaddingPolicy() (padding.Policy, error) {
	return padding.ParsePolicy(c.Padding)
}

// OracleConfig returns the oracle bounds in the form the oracle takes.
func (c *Config) OracleConfig() oracle.Config {
	return oracle.Config{
		MinPad: c.Oracle.MinPad,
		MaxPad: c.Oracle.MaxPad,
	}
}

// LogFile returns the full path of the rotated log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, defaultLogFilename)
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
