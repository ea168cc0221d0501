package modes

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/lightningnetwork/blockmode/blockcipher"
	"github.com/lightningnetwork/blockmode/padding"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// The NIST SP 800-38A F.1.1 and F.2.1 AES-128 vectors.
const (
	nistKey = "2b7e151628aed2a6abf7158809cf4f3c"
	nistIV  = "000102030405060708090a0b0c0d0e0f"

	nistPlaintext = "6bc1bee22e409f96e93d7e117393172a" +
		"ae2d8a571e03ac9c9eb76fac45af8e51" +
		"30c81c46a35ce411e5fbc1191a0a52ef" +
		"f69f2445df4f9b17ad2b417be66c3710"

	nistECB = "3ad77bb40d7a3660a89ecaf32466ef97" +
		"f5d3d58503b9699de785895a96fdbaaf" +
		"43b1cd7f598ece23881b00e3ed030688" +
		"7b0c785e27e8ad3f8223207104725dd4"

	nistCBC = "7649abac8119b246cee98e9b12e9197d" +
		"5086cb9b507219ee95db113a917678b2" +
		"73bed6b8e3c1743b7116e69e22229516" +
		"3ff1caa1681fac09120eca307586e1a7"
)

var yellowSubmarine = []byte("YELLOW SUBMARINE")

func unhex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// TestKnownVectors checks both modes against the NIST vectors without
// padding.
func TestKnownVectors(t *testing.T) {
	t.Parallel()

	key, iv := unhex(t, nistKey), unhex(t, nistIV)
	plaintext := unhex(t, nistPlaintext)

	ct, err := ECBEncrypt(key, plaintext, padding.NoPadding)
	require.NoError(t, err)
	require.Equal(t, nistECB, hex.EncodeToString(ct))

	pt, err := ECBDecrypt(key, ct, padding.NoPadding)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)

	ct, err = CBCEncrypt(key, plaintext, iv, padding.NoPadding)
	require.NoError(t, err)
	require.Equal(t, nistCBC, hex.EncodeToString(ct))

	pt, err = CBCDecrypt(key, ct, iv, padding.NoPadding)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)

	pt, err = Default.CBCDecryptParallel(
		key, ct, iv, padding.NoPadding, 3,
	)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

// TestCBCYellowSubmarineFixture decrypts a ciphertext produced under the
// YELLOW SUBMARINE key and an all-zero IV, and expects printable ASCII back.
func TestCBCYellowSubmarineFixture(t *testing.T) {
	t.Parallel()

	text := "I'm back and I'm ringin' the bell \n" +
		"A rockin' on the mike while the fly girls yell \n" +
		"In ecstasy in the back of me \n"
	padded, err := padding.Pad([]byte(text), aes.BlockSize)
	require.NoError(t, err)

	// The fixture is produced by the standard library implementation so
	// the check is independent of the code under test.
	block, err := aes.NewCipher(yellowSubmarine)
	require.NoError(t, err)
	iv := make([]byte, aes.BlockSize)
	fixture := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(fixture, padded)

	raw, err := CBCDecrypt(
		yellowSubmarine, fixture, iv, padding.NoPadding,
	)
	require.NoError(t, err)

	unpadded, err := padding.Unpad(raw, aes.BlockSize).UnwrapOrErr(
		padding.ErrInvalidPadding,
	)
	require.NoError(t, err)
	for _, c := range unpadded {
		require.True(t, c == '\n' || (c >= 0x20 && c < 0x7f),
			"non printable byte %#x", c)
	}
	require.Equal(t, text, string(unpadded))

	pt, err := CBCDecrypt(yellowSubmarine, fixture, iv, padding.PKCS7)
	require.NoError(t, err)
	require.Equal(t, text, string(pt))
}

// TestRoundTripProperties checks decrypt(encrypt(p)) == p for arbitrary keys,
// IVs and plaintexts in both modes, and that CBC agrees with crypto/cipher.
func TestRoundTripProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		key := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "key")
		iv := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(t, "iv")
		plaintext := rapid.SliceOf(rapid.Byte()).Draw(t, "plaintext")

		ct, err := ECBEncrypt(key, plaintext, padding.PKCS7)
		require.NoError(t, err)
		require.Zero(t, len(ct)%BlockSize)
		pt, err := ECBDecrypt(key, ct, padding.PKCS7)
		require.NoError(t, err)
		require.True(t, bytes.Equal(plaintext, pt))

		ct, err = CBCEncrypt(key, plaintext, iv, padding.PKCS7)
		require.NoError(t, err)
		pt, err = CBCDecrypt(key, ct, iv, padding.PKCS7)
		require.NoError(t, err)
		require.True(t, bytes.Equal(plaintext, pt))

		padded, err := padding.Pad(plaintext, BlockSize)
		require.NoError(t, err)
		block, err := aes.NewCipher(key)
		require.NoError(t, err)
		want := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(want, padded)
		require.Equal(t, want, ct)

		workers := rapid.IntRange(0, 8).Draw(t, "workers")
		par, err := Default.CBCDecryptParallel(
			key, ct, iv, padding.PKCS7, workers,
		)
		require.NoError(t, err)
		require.True(t, bytes.Equal(plaintext, par))
	})
}

// TestRegisteredPrimitives runs both modes over every registered primitive,
// including the 8 byte block ciphers.
func TestRegisteredPrimitives(t *testing.T) {
	t.Parallel()

	plaintext := []byte(strings.Repeat("modes of operation ", 7))

	for _, name := range blockcipher.Names() {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			prim, err := blockcipher.Lookup(name)
			require.NoError(t, err)
			e := NewEngine(prim)

			key := bytes.Repeat([]byte{0x5a}, e.KeySize())
			iv := bytes.Repeat([]byte{0xa5}, e.BlockSize())

			ct, err := e.ECBEncrypt(key, plaintext, padding.PKCS7)
			require.NoError(t, err)
			pt, err := e.ECBDecrypt(key, ct, padding.PKCS7)
			require.NoError(t, err)
			require.Equal(t, plaintext, pt)

			ct, err = e.CBCEncrypt(
				key, plaintext, iv, padding.PKCS7,
			)
			require.NoError(t, err)
			pt, err = e.CBCDecrypt(key, ct, iv, padding.PKCS7)
			require.NoError(t, err)
			require.Equal(t, plaintext, pt)
		})
	}
}

// TestECBDeterminism shows that ECB maps equal plaintext blocks to equal
// ciphertext blocks while CBC does not.
func TestECBDeterminism(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat(yellowSubmarine, 2)
	iv := bytes.Repeat([]byte{1}, BlockSize)

	ct, err := ECBEncrypt(yellowSubmarine, plaintext, padding.NoPadding)
	require.NoError(t, err)
	require.Equal(t, ct[:BlockSize], ct[BlockSize:])

	ct, err = CBCEncrypt(
		yellowSubmarine, plaintext, iv, padding.NoPadding,
	)
	require.NoError(t, err)
	require.NotEqual(t, ct[:BlockSize], ct[BlockSize:])
}

// TestInvalidPaddingRejected makes sure a bad trailer fails the whole
// decryption with no partial output.
func TestInvalidPaddingRejected(t *testing.T) {
	t.Parallel()

	// The last plaintext byte is zero, which is never a valid marker.
	plaintext := make([]byte, 2*BlockSize)
	copy(plaintext, "attack at dawn")
	iv := make([]byte, BlockSize)

	ct, err := ECBEncrypt(yellowSubmarine, plaintext, padding.NoPadding)
	require.NoError(t, err)
	pt, err := ECBDecrypt(yellowSubmarine, ct, padding.PKCS7)
	require.ErrorIs(t, err, padding.ErrInvalidPadding)
	require.Nil(t, pt)

	ct, err = CBCEncrypt(
		yellowSubmarine, plaintext, iv, padding.NoPadding,
	)
	require.NoError(t, err)
	pt, err = CBCDecrypt(yellowSubmarine, ct, iv, padding.PKCS7)
	require.ErrorIs(t, err, padding.ErrInvalidPadding)
	require.Nil(t, pt)

	pt, err = Default.CBCDecryptParallel(
		yellowSubmarine, ct, iv, padding.PKCS7, 2,
	)
	require.ErrorIs(t, err, padding.ErrInvalidPadding)
	require.Nil(t, pt)
}

// TestCBCBitFlip demonstrates the malleability hazard: flipping a bit in a
// ciphertext block flips the same bit in the next plaintext block.
func TestCBCBitFlip(t *testing.T) {
	t.Parallel()

	plaintext := []byte("comment1=cooking%20MCs;userdata=;admin=false;xx")
	iv := make([]byte, BlockSize)

	ct, err := CBCEncrypt(yellowSubmarine, plaintext, iv, padding.PKCS7)
	require.NoError(t, err)

	ct[BlockSize] ^= 0x01

	pt, err := CBCDecrypt(yellowSubmarine, ct, iv, padding.PKCS7)
	require.NoError(t, err)
	require.Equal(t, plaintext[2*BlockSize]^0x01, pt[2*BlockSize])
	require.NotEqual(t, plaintext[BlockSize:2*BlockSize],
		pt[BlockSize:2*BlockSize])
}

// TestPreconditions covers the structural errors that panic.
func TestPreconditions(t *testing.T) {
	t.Parallel()

	iv := make([]byte, BlockSize)

	require.Panics(t, func() {
		_, _ = ECBEncrypt(yellowSubmarine, []byte("short"),
			padding.NoPadding)
	})
	require.Panics(t, func() {
		_, _ = ECBDecrypt(yellowSubmarine, make([]byte, 17),
			padding.PKCS7)
	})
	require.Panics(t, func() {
		_, _ = CBCEncrypt(yellowSubmarine, yellowSubmarine,
			iv[:8], padding.NoPadding)
	})
	require.Panics(t, func() {
		_, _ = CBCDecrypt(yellowSubmarine, make([]byte, 20), iv,
			padding.NoPadding)
	})
	require.Panics(t, func() {
		_, _ = CBCEncrypt([]byte("short key"), yellowSubmarine, iv,
			padding.NoPadding)
	})
}

// TestCipherFailurePropagates checks a primitive error aborts the mode
// operation with ErrCipherFailure.
func TestCipherFailurePropagates(t *testing.T) {
	t.Parallel()

	e := NewEngine(blockcipher.Primitive{
		Name:      "failing",
		BlockSize: 16,
		KeySize:   16,
		New: func([]byte) (cipher.Block, error) {
			return nil, errors.New("hardware token unplugged")
		},
	})
	iv := make([]byte, 16)

	_, err := e.ECBEncrypt(yellowSubmarine, nil, padding.PKCS7)
	require.ErrorIs(t, err, blockcipher.ErrCipherFailure)

	_, err = e.ECBDecrypt(yellowSubmarine, make([]byte, 16),
		padding.NoPadding)
	require.ErrorIs(t, err, blockcipher.ErrCipherFailure)

	_, err = e.CBCEncrypt(yellowSubmarine, nil, iv, padding.PKCS7)
	require.ErrorIs(t, err, blockcipher.ErrCipherFailure)

	_, err = e.CBCDecrypt(yellowSubmarine, make([]byte, 16), iv,
		padding.NoPadding)
	require.ErrorIs(t, err, blockcipher.ErrCipherFailure)

	_, err = e.CBCDecryptParallel(yellowSubmarine, make([]byte, 16), iv,
		padding.NoPadding, 4)
	require.ErrorIs(t, err, blockcipher.ErrCipherFailure)
}

// TestInputsUntouched ensures no operation writes to caller buffers.
func TestInputsUntouched(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("0123456789abcdef"), 3)
	iv := bytes.Repeat([]byte{7}, BlockSize)
	dataCopy := append([]byte{}, data...)
	ivCopy := append([]byte{}, iv...)

	ct, err := CBCEncrypt(yellowSubmarine, data, iv, padding.NoPadding)
	require.NoError(t, err)
	_, err = CBCDecrypt(yellowSubmarine, ct, iv, padding.NoPadding)
	require.NoError(t, err)
	_, err = ECBEncrypt(yellowSubmarine, data, padding.NoPadding)
	require.NoError(t, err)

	require.Equal(t, dataCopy, data)
	require.Equal(t, ivCopy, iv)
	require.Equal(t, "YELLOW SUBMARINE", string(yellowSubmarine))
}

func TestModeString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ECB", ECB.String())
	require.Equal(t, "CBC", CBC.String())
	require.Equal(t, "unknown", Mode(7).String())
}

// TestCBCDecryptParallelWorkers runs the parallel decrypt with worker counts
// below, near and far above the block count, so spans are queued behind the
// worker limit as well as run one block per task.
func TestCBCDecryptParallelWorkers(t *testing.T) {
	t.Parallel()

	key := []byte("YELLOW SUBMARINE")
	iv := bytes.Repeat([]byte{0x07}, BlockSize)
	plaintext := bytes.Repeat([]byte("0123456789abcdef"), 100)
	plaintext = append(plaintext, "tail"...)

	ct, err := CBCEncrypt(key, plaintext, iv, padding.PKCS7)
	require.NoError(t, err)

	want, err := CBCDecrypt(key, ct, iv, padding.NoPadding)
	require.NoError(t, err)

	for _, workers := range []int{-1, 0, 1, 2, 3, 7, 101, 1000} {
		got, err := Default.CBCDecryptParallel(
			key, ct, iv, padding.NoPadding, workers,
		)
		require.NoError(t, err, "workers=%d", workers)
		require.Equal(t, want, got, "workers=%d", workers)

		got, err = Default.CBCDecryptParallel(
			key, ct, iv, padding.PKCS7, workers,
		)
		require.NoError(t, err, "workers=%d", workers)
		require.Equal(t, plaintext, got, "workers=%d", workers)
	}
}
