package modes

import (
	"fmt"

	"github.com/lightningnetwork/blockmode/blockcipher"
	"github.com/lightningnetwork/blockmode/padding"
)

// Mode identifies a block cipher mode of operation. It is never written into
// a ciphertext; the oracle attaches it so callers can score their own guess.
type Mode uint8

const (
	// ECB encrypts every block independently.
	ECB Mode = iota

	// CBC chains every block on the previous ciphertext block.
	CBC
)

// String returns the conventional name of the mode.
func (m Mode) String() string {
	switch m {
	case ECB:
		return "ECB"
	case CBC:
		return "CBC"
	default:
		return "unknown"
	}
}

// Engine runs the ECB and CBC modes on top of one block primitive. An Engine
// holds no mutable state and is safe for concurrent use.
type Engine struct {
	adapter *blockcipher.Adapter
}

// NewEngine returns an engine for the given primitive.
func NewEngine(prim blockcipher.Primitive) *Engine {
	return &Engine{adapter: blockcipher.NewAdapter(prim)}
}

// BlockSize returns the block size of the underlying primitive.
func (e *Engine) BlockSize() int {
	return e.adapter.BlockSize()
}

// KeySize returns the key size of the underlying primitive.
func (e *Engine) KeySize() int {
	return e.adapter.KeySize()
}

// Primitive returns the name of the underlying primitive.
func (e *Engine) Primitive() string {
	return e.adapter.Name()
}

// prepare applies the padding policy on the encrypt path and returns a fresh,
// block aligned buffer. Unaligned input under NoPadding panics.
func (e *Engine) prepare(data []byte, policy padding.Policy) ([]byte, error) {
	switch policy {
	case padding.NoPadding:
		e.mustAlign(data)
		return append([]byte{}, data...), nil

	case padding.PKCS7:
		return padding.Pad(data, e.BlockSize())

	default:
		panic(fmt.Sprintf("modes: unknown padding policy %d", policy))
	}
}

// finish applies the padding policy on the decrypt path.
func (e *Engine) finish(plaintext []byte,
	policy padding.Policy) ([]byte, error) {

	switch policy {
	case padding.NoPadding:
		return plaintext, nil

	case padding.PKCS7:
		return padding.Unpad(plaintext, e.BlockSize()).UnwrapOrErr(
			padding.ErrInvalidPadding,
		)

	default:
		panic(fmt.Sprintf("modes: unknown padding policy %d", policy))
	}
}

func (e *Engine) mustAlign(data []byte) {
	if len(data)%e.BlockSize() != 0 {
		panic(fmt.Sprintf("modes: input length %d is not a multiple "+
			"of the %d byte block size", len(data), e.BlockSize()))
	}
}

func (e *Engine) mustIV(iv []byte) {
	if len(iv) != e.BlockSize() {
		panic(fmt.Sprintf("modes: IV length %d, want %d", len(iv),
			e.BlockSize()))
	}
}

// xorBytes sets dst[i] = a[i] ^ b[i] for every byte of dst.
func xorBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
