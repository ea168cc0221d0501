package padding

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestPad checks the padding scheme against fixed vectors, including the
// YELLOW SUBMARINE cases.
func TestPad(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		buf       []byte
		blockSize int
		want      []byte
	}{
		{
			name:      "partial block",
			buf:       []byte{0},
			blockSize: 3,
			want:      []byte{0, 2, 2},
		},
		{
			name:      "one byte short",
			buf:       []byte{0, 0},
			blockSize: 3,
			want:      []byte{0, 0, 1},
		},
		{
			name:      "aligned adds a full block",
			buf:       []byte{0, 0, 0},
			blockSize: 3,
			want:      []byte{0, 0, 0, 3, 3, 3},
		},
		{
			name:      "empty buffer",
			buf:       nil,
			blockSize: 4,
			want:      []byte{4, 4, 4, 4},
		},
		{
			name:      "yellow submarine to 20",
			buf:       []byte("YELLOW SUBMARINE"),
			blockSize: 20,
			want:      []byte("YELLOW SUBMARINE\x04\x04\x04\x04"),
		},
		{
			name:      "yellow submarine to 8",
			buf:       []byte("YELLOW SUBMARINE"),
			blockSize: 8,
			want: []byte("YELLOW SUBMARINE" +
				"\x08\x08\x08\x08\x08\x08\x08\x08"),
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got, err := Pad(c.buf, c.blockSize)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

// TestPadInvalidBlockSize makes sure padding lengths that don't fit in a byte
// are refused.
func TestPadInvalidBlockSize(t *testing.T) {
	t.Parallel()

	for _, blockSize := range []int{-1, 0, 256, 1024} {
		_, err := Pad([]byte("data"), blockSize)
		require.ErrorIs(t, err, ErrInvalidBlockSize)
	}

	// The largest block size still works for an aligned buffer.
	got, err := Pad(make([]byte, MaxBlockSize), MaxBlockSize)
	require.NoError(t, err)
	require.Len(t, got, 2*MaxBlockSize)
	require.Equal(t, byte(MaxBlockSize), got[len(got)-1])
}

// TestPadDoesNotAlias ensures the input buffer is never written to, even when
// it has spare capacity.
func TestPadDoesNotAlias(t *testing.T) {
	t.Parallel()

	backing := make([]byte, 4, 32)
	copy(backing, "abcd")

	padded, err := Pad(backing, 16)
	require.NoError(t, err)

	padded[0] = 'z'
	require.Equal(t, []byte("abcd"), backing)
	require.Equal(t, byte(0), backing[:5][4])
}

// TestUnpadRejects lists the malformed trailers that must yield None.
func TestUnpadRejects(t *testing.T) {
	t.Parallel()

	block := func(tail ...byte) []byte {
		buf := bytes.Repeat([]byte{'A'}, 16-len(tail))
		return append(buf, tail...)
	}

	cases := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"shorter than a block", []byte("ICE ICE BABY\x04\x04\x04")},
		{"zero marker", block(0)},
		{"marker above block size", block(17)},
		{"marker far above block size", block(0xff)},
		{"inconsistent trailer", block(1, 2, 3, 4)},
		{"short run", block(5, 5, 5, 5)},
		{
			"full block marker with corrupt byte",
			append(block(), append(
				bytes.Repeat([]byte{16}, 15), 15,
			)...),
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			require.True(t, Unpad(c.buf, 16).IsNone())
		})
	}
}

// TestUnpadAccepts checks valid trailers, including a whole block of
// padding.
func TestUnpadAccepts(t *testing.T) {
	t.Parallel()

	got := Unpad([]byte("ICE ICE BABY\x04\x04\x04\x04"), 16).UnwrapOrFail(t)
	require.Equal(t, []byte("ICE ICE BABY"), got)

	full := append(
		[]byte("YELLOW SUBMARINE"), bytes.Repeat([]byte{16}, 16)...,
	)
	got = Unpad(full, 16).UnwrapOrFail(t)
	require.Equal(t, []byte("YELLOW SUBMARINE"), got)

	got = Unpad(bytes.Repeat([]byte{16}, 16), 16).UnwrapOrFail(t)
	require.Empty(t, got)
}

// TestPadUnpadProperties checks that unpad always inverts pad, and that the
// padded length is always the next strict multiple of the block size.
func TestPadUnpadProperties(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		buf := rapid.SliceOf(rapid.Byte()).Draw(t, "buf")
		blockSize := rapid.IntRange(1, MaxBlockSize).Draw(
			t, "blockSize",
		)

		padded, err := Pad(buf, blockSize)
		require.NoError(t, err)
		require.Zero(t, len(padded)%blockSize)
		require.Greater(t, len(padded), len(buf))
		require.LessOrEqual(t, len(padded)-len(buf), blockSize)

		got, err := Unpad(padded, blockSize).UnwrapOrErr(
			ErrInvalidPadding,
		)
		require.NoError(t, err)
		require.True(t, bytes.Equal(buf, got))
	})
}

// TestUnpadNeverPanics feeds arbitrary buffers to Unpad.
func TestUnpadNeverPanics(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		buf := rapid.SliceOf(rapid.Byte()).Draw(t, "buf")
		blockSize := rapid.IntRange(1, 32).Draw(t, "blockSize")

		Unpad(buf, blockSize).WhenSome(func(out []byte) {
			require.Less(t, len(out), len(buf))
			k := len(buf) - len(out)
			require.LessOrEqual(t, k, blockSize)
		})
	})
}

func TestPolicyString(t *testing.T) {
	t.Parallel()

	for _, p := range []Policy{NoPadding, PKCS7} {
		parsed, err := ParsePolicy(p.String())
		require.NoError(t, err)
		require.Equal(t, p, parsed)
	}

	_, err := ParsePolicy("zeros")
	require.Error(t, err)
	require.Equal(t, "unknown", Policy(9).String())
}
