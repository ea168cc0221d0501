package blockstats

import (
	"fmt"
	"math/bits"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// MaxOffset is the number of leading byte offsets RepeatedBlocksWithOffset
// tries when looking for block alignment.
const MaxOffset = 10

// HammingDistance returns the number of differing bits between two equal
// length buffers. It panics if the lengths differ.
func HammingDistance(a, b []byte) int {
	if len(a) != len(b) {
		panic(fmt.Sprintf("blockstats: hamming distance of %d and %d "+
			"byte buffers", len(a), len(b)))
	}

	var dist int
	for i := range a {
		dist += bits.OnesCount8(a[i] ^ b[i])
	}

	return dist
}

// Chunks splits buf into non-overlapping blockLen sized views. A trailing
// partial chunk is dropped. It panics if blockLen is not positive.
func Chunks(buf []byte, blockLen int) [][]byte {
	if blockLen <= 0 {
		panic(fmt.Sprintf("blockstats: invalid block length %d",
			blockLen))
	}

	n := len(buf) / blockLen
	chunks := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		lo, hi := i*blockLen, (i+1)*blockLen
		chunks = append(chunks, buf[lo:hi:hi])
	}

	return chunks
}

// AveragePairwiseHammingDistance returns the mean bit distance over every
// unordered pair of full blockLen chunks in buf. None is returned when fewer
// than two chunks exist.
func AveragePairwiseHammingDistance(buf []byte,
	blockLen int) fn.Option[float64] {

	chunks := Chunks(buf, blockLen)
	if len(chunks) < 2 {
		return fn.None[float64]()
	}

	var total, pairs int
	for i := 0; i < len(chunks)-1; i++ {
		for j := i + 1; j < len(chunks); j++ {
			total += HammingDistance(chunks[i], chunks[j])
			pairs++
		}
	}

	return fn.Some(float64(total) / float64(pairs))
}

// RepeatedBlocks returns how many distinct block values occur more than once
// among the full blockLen chunks of buf.
func RepeatedBlocks(buf []byte, blockLen int) int {
	counts := make(map[string]int)
	for _, chunk := range Chunks(buf, blockLen) {
		counts[string(chunk)]++
	}

	var repeated int
	for _, count := range counts {
		if count > 1 {
			repeated++
		}
	}

	return repeated
}

// RepeatedBlocksWithOffset is RepeatedBlocks maximized over the leading
// offsets [0, MaxOffset). It finds repeats that a random prefix shifted off
// the block grid.
func RepeatedBlocksWithOffset(buf []byte, blockLen int) int {
	var best int
	for offset := 0; offset < MaxOffset && offset < len(buf); offset++ {
		best = max(best, RepeatedBlocks(buf[offset:], blockLen))
	}

	return best
}

// HasIdenticalBlocks reports whether any two full blockLen chunks of buf are
// equal.
func HasIdenticalBlocks(buf []byte, blockLen int) bool {
	return RepeatedBlocks(buf, blockLen) > 0
}
