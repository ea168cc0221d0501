package oracle

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/lightningnetwork/blockmode/modes"
	"github.com/lightningnetwork/blockmode/padding"
)

const (
	// DefaultMinPad is the smallest number of random bytes added on each
	// side of the plaintext.
	DefaultMinPad = 5

	// DefaultMaxPad is the exclusive upper bound of random bytes added on
	// each side of the plaintext.
	DefaultMaxPad = 10
)

// Config bounds the random bytes that surround the caller's plaintext.
type Config struct {
	// MinPad is the inclusive lower bound of each random run.
	MinPad int

	// MaxPad is the exclusive upper bound of each random run.
	MaxPad int
}

// DefaultConfig returns the 5 to 9 byte surround of the classic ECB/CBC
// detection exercise.
func DefaultConfig() Config {
	return Config{
		MinPad: DefaultMinPad,
		MaxPad: DefaultMaxPad,
	}
}

// Validate checks the bounds describe a non-empty range.
func (c Config) Validate() error {
	if c.MinPad < 0 || c.MaxPad <= c.MinPad {
		return fmt.Errorf("invalid oracle padding range [%d, %d)",
			c.MinPad, c.MaxPad)
	}

	return nil
}

// Oracle encrypts caller plaintext under a fresh random key with a randomly
// chosen mode. It exists to score mode detectors against ground truth.
type Oracle struct {
	engine *modes.Engine
	rand   io.Reader
	cfg    Config
}

// New returns an oracle drawing every random choice from the given source.
// Passing a seeded source makes the oracle fully deterministic. It panics if
// cfg is invalid.
func New(engine *modes.Engine, source io.Reader, cfg Config) *Oracle {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	return &Oracle{
		engine: engine,
		rand:   source,
		cfg:    cfg,
	}
}

// Encrypt surrounds plaintext with independently sized random prefix and
// suffix bytes, flips a coin between ECB and CBC, and encrypts with PKCS7
// padding under a fresh key (and a fresh IV for CBC). The returned mode is
// for the caller's scoring only.
func (o *Oracle) Encrypt(plaintext []byte) ([]byte, modes.Mode, error) {
	prefix, err := o.randomRun()
	if err != nil {
		return nil, 0, err
	}
	suffix, err := o.randomRun()
	if err != nil {
		return nil, 0, err
	}

	buf := make([]byte, 0, len(prefix)+len(plaintext)+len(suffix))
	buf = append(buf, prefix...)
	buf = append(buf, plaintext...)
	buf = append(buf, suffix...)

	key, err := o.randomBytes(o.engine.KeySize())
	if err != nil {
		return nil, 0, err
	}

	coin, err := o.intn(2)
	if err != nil {
		return nil, 0, err
	}

	var (
		mode       modes.Mode
		ciphertext []byte
	)
	switch coin {
	case 0:
		mode = modes.ECB
		ciphertext, err = o.engine.ECBEncrypt(key, buf, padding.PKCS7)

	default:
		mode = modes.CBC

		var iv []byte
		iv, err = o.randomBytes(o.engine.BlockSize())
		if err != nil {
			return nil, 0, err
		}
		ciphertext, err = o.engine.CBCEncrypt(
			key, buf, iv, padding.PKCS7,
		)
	}
	if err != nil {
		return nil, 0, err
	}

	return ciphertext, mode, nil
}

// randomRun returns a run of random bytes whose length is uniform in
// [MinPad, MaxPad).
func (o *Oracle) randomRun() ([]byte, error) {
	n, err := o.intn(o.cfg.MaxPad - o.cfg.MinPad)
	if err != nil {
		return nil, err
	}

	return o.randomBytes(o.cfg.MinPad + n)
}

func (o *Oracle) randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(o.rand, buf); err != nil {
		return nil, fmt.Errorf("unable to read random bytes: %w", err)
	}

	return buf, nil
}

// intn returns a uniform integer in [0, n) read from the oracle's source.
func (o *Oracle) intn(n int) (int, error) {
	v, err := rand.Int(o.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("unable to read random integer: %w", err)
	}

	return int(v.Int64()), nil
}

// EncryptOracle runs a one-off AES-128 oracle backed by crypto/rand.
func EncryptOracle(plaintext []byte) ([]byte, modes.Mode, error) {
	return New(modes.Default, rand.Reader, DefaultConfig()).Encrypt(
		plaintext,
	)
}
