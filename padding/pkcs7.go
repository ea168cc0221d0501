package padding

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// MaxBlockSize is the largest block size whose padding length still fits in
// a single marker byte.
const MaxBlockSize = 0xff

var (
	// ErrInvalidBlockSize is returned when the padding length for a block
	// size can't be represented by a single byte.
	ErrInvalidBlockSize = errors.New("invalid padding block size")

	// ErrInvalidPadding is returned when a buffer carries no valid PKCS#7
	// trailer.
	ErrInvalidPadding = errors.New("invalid PKCS#7 padding")
)

// Policy selects whether a mode pads its input.
type Policy uint8

const (
	// NoPadding requires block aligned input and leaves it untouched.
	NoPadding Policy = iota

	// PKCS7 pads on encryption and strips the padding on decryption.
	PKCS7
)

// String returns a human readable name for the policy.
func (p Policy) String() string {
	switch p {
	case NoPadding:
		return "none"
	case PKCS7:
		return "pkcs7"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a policy name back to its Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "none":
		return NoPadding, nil
	case "pkcs7":
		return PKCS7, nil
	default:
		return 0, fmt.Errorf("unknown padding policy: %q", s)
	}
}

// Pad returns a copy of buf with k bytes of value k appended, where k brings
// the length up to the next multiple of blockSize. An already aligned buffer
// gets a full extra block, so padding is always present and always
// removable.
func Pad(buf []byte, blockSize int) ([]byte, error) {
	if blockSize <= 0 || blockSize > MaxBlockSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	k := blockSize - len(buf)%blockSize

	padded := make([]byte, len(buf), len(buf)+k)
	copy(padded, buf)

	return append(padded, bytes.Repeat([]byte{byte(k)}, k)...), nil
}

// Unpad strips the PKCS#7 trailer from buf. It returns None if buf is shorter
// than a block, if the marker byte k is zero or larger than blockSize, or if
// any of the last k bytes differ from k. The returned slice is a copy.
func Unpad(buf []byte, blockSize int) fn.Option[[]byte] {
	if blockSize <= 0 || len(buf) < blockSize {
		return fn.None[[]byte]()
	}

	k := int(buf[len(buf)-1])
	if k == 0 || k > blockSize {
		return fn.None[[]byte]()
	}

	n := len(buf) - k
	for _, b := range buf[n:] {
		if int(b) != k {
			return fn.None[[]byte]()
		}
	}

	return fn.Some(append([]byte{}, buf[:n]...))
}
