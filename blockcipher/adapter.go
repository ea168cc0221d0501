package blockcipher

import (
	"crypto/cipher"
	"errors"
	"fmt"
)

var (
	// ErrCipherFailure is returned when the underlying primitive rejects
	// the key material or misbehaves.
	ErrCipherFailure = errors.New("block cipher failure")

	// ErrUnknownPrimitive is returned when a primitive name is not in the
	// registry.
	ErrUnknownPrimitive = errors.New("unknown block primitive")
)

// Primitive describes an external single-block cipher: a fixed block size, a
// fixed key size and a constructor producing a cipher.Block for a key.
type Primitive struct {
	// Name is the registry name of the primitive.
	Name string

	// BlockSize is the size in bytes of every block the primitive
	// transforms.
	BlockSize int

	// KeySize is the exact key length the primitive accepts.
	KeySize int

	// New runs the key schedule and returns the keyed block transform.
	New func(key []byte) (cipher.Block, error)
}

// Adapter wraps a Primitive and enforces the block and key size
// preconditions of every single-block call.
type Adapter struct {
	prim Primitive
}

// NewAdapter returns an adapter for the given primitive. It panics if the
// primitive description itself is malformed.
func NewAdapter(prim Primitive) *Adapter {
	if prim.BlockSize <= 0 || prim.KeySize <= 0 || prim.New == nil {
		panic(fmt.Sprintf("blockcipher: malformed primitive %q",
			prim.Name))
	}

	return &Adapter{prim: prim}
}

// Name returns the name of the wrapped primitive.
func (a *Adapter) Name() string {
	return a.prim.Name
}

// BlockSize returns the primitive's block size.
func (a *Adapter) BlockSize() int {
	return a.prim.BlockSize
}

// KeySize returns the primitive's key size.
func (a *Adapter) KeySize() int {
	return a.prim.KeySize
}

// Bind runs the key schedule once and returns a keyed view that can
// transform any number of blocks. A key of the wrong length is a programming
// error and panics; a key rejected by the primitive yields ErrCipherFailure.
func (a *Adapter) Bind(key []byte) (*Keyed, error) {
	if len(key) != a.prim.KeySize {
		panic(fmt.Sprintf("blockcipher: %s key length %d, want %d",
			a.prim.Name, len(key), a.prim.KeySize))
	}

	b, err := a.prim.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCipherFailure,
			a.prim.Name, err)
	}
	if b.BlockSize() != a.prim.BlockSize {
		return nil, fmt.Errorf("%w: %s produced block size %d, want %d",
			ErrCipherFailure, a.prim.Name, b.BlockSize(),
			a.prim.BlockSize)
	}

	return &Keyed{block: b, size: a.prim.BlockSize}, nil
}

// EncryptBlock encrypts exactly one block under key and returns the
// ciphertext block in a new buffer.
func (a *Adapter) EncryptBlock(key, block []byte) ([]byte, error) {
	k, err := a.Bind(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, a.prim.BlockSize)
	k.Encrypt(out, block)

	return out, nil
}

// DecryptBlock decrypts exactly one block under key and returns the
// plaintext block in a new buffer.
func (a *Adapter) DecryptBlock(key, block []byte) ([]byte, error) {
	k, err := a.Bind(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, a.prim.BlockSize)
	k.Decrypt(out, block)

	return out, nil
}

// Keyed is a primitive bound to one key. It is immutable and safe for
// concurrent use as long as the underlying cipher.Block is, which holds for
// every primitive in the registry.
type Keyed struct {
	block cipher.Block
	size  int
}

// BlockSize returns the size of the blocks this keyed primitive transforms.
func (k *Keyed) BlockSize() int {
	return k.size
}

// Encrypt encrypts the single block src into dst. Both must be exactly one
// block long.
func (k *Keyed) Encrypt(dst, src []byte) {
	k.checkBlocks(dst, src)
	k.block.Encrypt(dst, src)
}

// Decrypt decrypts the single block src into dst. Both must be exactly one
// block long.
func (k *Keyed) Decrypt(dst, src []byte) {
	k.checkBlocks(dst, src)
	k.block.Decrypt(dst, src)
}

func (k *Keyed) checkBlocks(dst, src []byte) {
	if len(src) != k.size {
		panic(fmt.Sprintf("blockcipher: input block length %d, want %d",
			len(src), k.size))
	}
	if len(dst) != k.size {
		panic(fmt.Sprintf("blockcipher: output block length %d, "+
			"want %d", len(dst), k.size))
	}
}
