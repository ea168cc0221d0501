package blockcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sort"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"
)

// AES128 is the reference primitive: 16 byte blocks under a 16 byte key.
var AES128 = Primitive{
	Name:      "aes128",
	BlockSize: aes.BlockSize,
	KeySize:   16,
	New:       aes.NewCipher,
}

// AES192 is AES with a 24 byte key.
var AES192 = Primitive{
	Name:      "aes192",
	BlockSize: aes.BlockSize,
	KeySize:   24,
	New:       aes.NewCipher,
}

// AES256 is AES with a 32 byte key.
var AES256 = Primitive{
	Name:      "aes256",
	BlockSize: aes.BlockSize,
	KeySize:   32,
	New:       aes.NewCipher,
}

// Twofish is Twofish-128.
var Twofish = Primitive{
	Name:      "twofish",
	BlockSize: twofish.BlockSize,
	KeySize:   16,
	New: func(key []byte) (cipher.Block, error) {
		return twofish.NewCipher(key)
	},
}

// Blowfish uses a 16 byte key with the 8 byte Blowfish block.
var Blowfish = Primitive{
	Name:      "blowfish",
	BlockSize: blowfish.BlockSize,
	KeySize:   16,
	New: func(key []byte) (cipher.Block, error) {
		return blowfish.NewCipher(key)
	},
}

// CAST5 is CAST-128 with its 16 byte key.
var CAST5 = Primitive{
	Name:      "cast5",
	BlockSize: cast5.BlockSize,
	KeySize:   cast5.KeySize,
	New: func(key []byte) (cipher.Block, error) {
		return cast5.NewCipher(key)
	},
}

// XTEA uses its 16 byte key and 8 byte block.
var XTEA = Primitive{
	Name:      "xtea",
	BlockSize: xtea.BlockSize,
	KeySize:   16,
	New: func(key []byte) (cipher.Block, error) {
		return xtea.NewCipher(key)
	},
}

var registry = map[string]Primitive{
	AES128.Name:   AES128,
	AES192.Name:   AES192,
	AES256.Name:   AES256,
	Twofish.Name:  Twofish,
	Blowfish.Name: Blowfish,
	CAST5.Name:    CAST5,
	XTEA.Name:     XTEA,
}

// Lookup returns the registered primitive with the given name.
func Lookup(name string) (Primitive, error) {
	prim, ok := registry[name]
	if !ok {
		return Primitive{}, fmt.Errorf("%w: %q (supported: %v)",
			ErrUnknownPrimitive, name, Names())
	}

	return prim, nil
}

// Names returns the sorted names of all registered primitives.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
