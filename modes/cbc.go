package modes

import (
	"fmt"
	"runtime"

	"github.com/lightningnetwork/blockmode/padding"
	"golang.org/x/sync/errgroup"
)

// spansPerWorker is the number of decryption tasks queued per worker by
// CBCDecryptParallel.
const spansPerWorker = 4

// CBCEncrypt encrypts data in CBC mode: every plaintext block is XORed with
// the previous ciphertext block (the IV for the first one) before it is
// encrypted. Encryption is inherently sequential.
func (e *Engine) CBCEncrypt(key, data, iv []byte,
	policy padding.Policy) ([]byte, error) {

	e.mustIV(iv)

	buf, err := e.prepare(data, policy)
	if err != nil {
		return nil, err
	}

	k, err := e.adapter.Bind(key)
	if err != nil {
		return nil, fmt.Errorf("unable to encrypt CBC: %w", err)
	}

	n := e.BlockSize()
	prev := iv
	for i := 0; i < len(buf); i += n {
		block := buf[i : i+n]
		xorBytes(block, block, prev)
		k.Encrypt(block, block)
		prev = block
	}

	return buf, nil
}

// CBCDecrypt decrypts data in CBC mode. Each plaintext block is the
// decryption of its ciphertext block XORed with the previous ciphertext
// block, so the chain runs over ciphertext only.
//
// NOTE: a distinct padding error is exactly what a padding oracle exploits.
// Callers exposing this to untrusted peers must not reveal which step failed.
func (e *Engine) CBCDecrypt(key, data, iv []byte,
	policy padding.Policy) ([]byte, error) {

	e.mustIV(iv)
	e.mustAlign(data)

	k, err := e.adapter.Bind(key)
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt CBC: %w", err)
	}

	n := e.BlockSize()
	out := make([]byte, len(data))
	prev := iv
	for i := 0; i < len(data); i += n {
		k.Decrypt(out[i:i+n], data[i:i+n])
		xorBytes(out[i:i+n], out[i:i+n], prev)
		prev = data[i : i+n]
	}

	return e.finish(out, policy)
}

// CBCDecryptParallel produces the same result as CBCDecrypt, but decrypts
// the blocks on up to workers goroutines before running the XOR chain. This
// works because no plaintext block depends on another decrypted block. A
// non-positive worker count uses GOMAXPROCS.
func (e *Engine) CBCDecryptParallel(key, data, iv []byte,
	policy padding.Policy, workers int) ([]byte, error) {

	e.mustIV(iv)
	e.mustAlign(data)

	k, err := e.adapter.Bind(key)
	if err != nil {
		return nil, fmt.Errorf("unable to decrypt CBC: %w", err)
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := e.BlockSize()
	numBlocks := len(data) / n
	out := make([]byte, len(data))

	// Split the blocks into contiguous spans, a few per worker, so every
	// task writes a disjoint region of out. At most workers tasks run at
	// once.
	span := max(1, numBlocks/(workers*spansPerWorker))

	// Single block decryption cannot fail once the key is bound, so the
	// group is only used to bound and join the tasks.
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < numBlocks; start += span {
		lo, hi := start*n, min(start+span, numBlocks)*n
		g.Go(func() error {
			for i := lo; i < hi; i += n {
				k.Decrypt(out[i:i+n], data[i:i+n])
			}

			return nil
		})
	}
	_ = g.Wait()

	// Second pass: undo the chaining, which only needs ciphertext.
	prev := iv
	for i := 0; i < len(data); i += n {
		xorBytes(out[i:i+n], out[i:i+n], prev)
		prev = data[i : i+n]
	}

	return e.finish(out, policy)
}
