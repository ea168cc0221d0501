package modes

import (
	"github.com/lightningnetwork/blockmode/blockcipher"
	"github.com/lightningnetwork/blockmode/padding"
)

// BlockSize is the block size of the default AES-128 engine.
const BlockSize = 16

// Default is the AES-128 engine used by the package level functions.
var Default = NewEngine(blockcipher.AES128)

// ECBEncrypt encrypts data in ECB mode with AES-128.
func ECBEncrypt(key, data []byte, policy padding.Policy) ([]byte, error) {
	return Default.ECBEncrypt(key, data, policy)
}

// ECBDecrypt decrypts data in ECB mode with AES-128.
func ECBDecrypt(key, data []byte, policy padding.Policy) ([]byte, error) {
	return Default.ECBDecrypt(key, data, policy)
}

// CBCEncrypt encrypts data in CBC mode with AES-128.
func CBCEncrypt(key, data, iv []byte, policy padding.Policy) ([]byte, error) {
	return Default.CBCEncrypt(key, data, iv, policy)
}

// CBCDecrypt decrypts data in CBC mode with AES-128.
func CBCDecrypt(key, data, iv []byte, policy padding.Policy) ([]byte, error) {
	return Default.CBCDecrypt(key, data, iv, policy)
}
