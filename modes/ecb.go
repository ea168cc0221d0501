package modes

import (
	"fmt"

	"github.com/lightningnetwork/blockmode/padding"
)

// ECBEncrypt encrypts data in ECB mode. With NoPadding the data must already
// be a multiple of the block size.
func (e *Engine) ECBEncrypt(key, data []byte,
	policy padding.Policy) ([]byte, error) {

	buf, err := e.prepare(data, policy)
	if err != nil {
		return nil, err
	}

	k, err := e.adapter.Bind(key)
	if err != nil {
		return nil, fmt.Errorf("unable to encrypt ECB: %w", err)
	}

	// Every block is independent, so the buffer is transformed in place.
	n := e.BlockSize()
	for i := 0; i < len(buf); i += n {
		k.Encrypt(buf[i:i+n], buf[i:i+n])
	}

	return buf, nil
}

// ECBDecrypt decrypts data in ECB mode. The ciphertext must be block aligned
// regardless of the padding policy; with PKCS7 the padding is stripped and
// validated afterwards.
func (e *Engine) ECBDecrypt(key, data []byte,
	policy padding.Policy) ([]byte, error) {

	e.mustAlign(data)

	k, err := e.adapter.Bind(key)
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt ECB: %w", err)
	}

	n := e.BlockSize()
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += n {
		k.Decrypt(out[i:i+n], data[i:i+n])
	}

	return e.finish(out, policy)
}
