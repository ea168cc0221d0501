package detect

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lightningnetwork/blockmode/blockstats"
	"github.com/lightningnetwork/blockmode/modes"
	"github.com/lightningnetwork/blockmode/oracle"
)

// ErrNoTrials is returned when a harness is asked to run zero trials.
var ErrNoTrials = errors.New("at least one trial is required")

// Detector guesses the mode a ciphertext was produced with.
type Detector func(ciphertext []byte) modes.Mode

// Metric maps a ciphertext to a single statistic.
type Metric func(ciphertext []byte) float64

// ByHamming guesses CBC when the average pairwise Hamming distance between
// blockLen chunks is above threshold, and ECB otherwise. Ciphertexts too
// short to form a pair are guessed to be CBC since they show no repeats.
func ByHamming(blockLen int, threshold float64) Detector {
	return func(ciphertext []byte) modes.Mode {
		avg := blockstats.AveragePairwiseHammingDistance(
			ciphertext, blockLen,
		)

		mode := modes.CBC
		avg.WhenSome(func(dist float64) {
			if dist <= threshold {
				mode = modes.ECB
			}
		})

		return mode
	}
}

// ByRepeatedBlocks guesses ECB whenever two blockLen chunks are identical.
// Paired with a probe of three identical blocks it is never wrong, since at
// least two of them land on the block grid.
func ByRepeatedBlocks(blockLen int) Detector {
	return func(ciphertext []byte) modes.Mode {
		if blockstats.HasIdenticalBlocks(ciphertext, blockLen) {
			return modes.ECB
		}

		return modes.CBC
	}
}

// HammingMetric is the average pairwise Hamming distance, or zero when the
// ciphertext has fewer than two chunks.
func HammingMetric(blockLen int) Metric {
	return func(ciphertext []byte) float64 {
		return blockstats.AveragePairwiseHammingDistance(
			ciphertext, blockLen,
		).UnwrapOr(0)
	}
}

// RepeatedBlocksMetric counts the distinct repeated chunks.
func RepeatedBlocksMetric(blockLen int) Metric {
	return func(ciphertext []byte) float64 {
		return float64(blockstats.RepeatedBlocks(ciphertext, blockLen))
	}
}

// RepeatedBlocksWithOffsetMetric counts repeated chunks at the best leading
// offset.
func RepeatedBlocksWithOffsetMetric(blockLen int) Metric {
	return func(ciphertext []byte) float64 {
		return float64(blockstats.RepeatedBlocksWithOffset(
			ciphertext, blockLen,
		))
	}
}

// Score runs the oracle trials times over plaintext and returns the fraction
// of trials in which the detector named the mode the oracle actually used.
func Score(o *oracle.Oracle, d Detector, plaintext []byte,
	trials int) (float64, error) {

	if trials <= 0 {
		return 0, ErrNoTrials
	}

	var guessed int
	for i := 0; i < trials; i++ {
		ciphertext, mode, err := o.Encrypt(plaintext)
		if err != nil {
			return 0, fmt.Errorf("trial %d: %w", i, err)
		}

		guess := d(ciphertext)
		if guess == mode {
			guessed++
		}

		log.Tracef("Trial %d: mode=%v, guess=%v", i, mode, guess)
	}

	score := float64(guessed) / float64(trials)
	log.Debugf("Detector guessed %d of %d trials (score=%.3f)", guessed,
		trials, score)

	return score, nil
}

// Summary holds the mean of a metric over the trials of each true mode.
type Summary struct {
	// Trials is the total number of oracle calls.
	Trials int

	// ECBTrials is the number of trials the oracle ran in ECB mode.
	ECBTrials int

	// CBCTrials is the number of trials the oracle ran in CBC mode.
	CBCTrials int

	// ECBMean is the mean metric over the ECB trials, zero if none ran.
	ECBMean float64

	// CBCMean is the mean metric over the CBC trials, zero if none ran.
	CBCMean float64
}

// String returns a one line rendering of the summary.
func (s *Summary) String() string {
	return fmt.Sprintf("trials=%d ecb(n=%d, mean=%.4f) cbc(n=%d, "+
		"mean=%.4f)", s.Trials, s.ECBTrials, s.ECBMean, s.CBCTrials,
		s.CBCMean)
}

// Describe runs the oracle trials times and reports the metric's mean per
// true mode.
func Describe(o *oracle.Oracle, m Metric, plaintext []byte,
	trials int) (*Summary, error) {

	if trials <= 0 {
		return nil, ErrNoTrials
	}

	var ecbSum, cbcSum float64
	summary := &Summary{Trials: trials}
	for i := 0; i < trials; i++ {
		ciphertext, mode, err := o.Encrypt(plaintext)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", i, err)
		}

		value := m(ciphertext)
		log.Tracef("Trial %d: mode=%v, metric=%v", i, mode, value)

		switch mode {
		case modes.ECB:
			summary.ECBTrials++
			ecbSum += value

		case modes.CBC:
			summary.CBCTrials++
			cbcSum += value
		}
	}

	if summary.ECBTrials > 0 {
		summary.ECBMean = ecbSum / float64(summary.ECBTrials)
	}
	if summary.CBCTrials > 0 {
		summary.CBCMean = cbcSum / float64(summary.CBCTrials)
	}

	log.Debugf("Described metric: %v", summary)

	return summary, nil
}

// Ranked is a candidate ciphertext with its average pairwise distance.
type Ranked struct {
	// Index is the position of the ciphertext in the input slice.
	Index int

	// Ciphertext is the candidate itself.
	Ciphertext []byte

	// Distance is the average pairwise Hamming distance of its blocks.
	Distance float64
}

// RankByHamming orders candidate ciphertexts by ascending average pairwise
// block distance, so the one most likely encrypted under ECB comes first.
// Candidates with fewer than two blocks cannot be scored and are skipped.
func RankByHamming(ciphertexts [][]byte, blockLen int) []Ranked {
	ranked := make([]Ranked, 0, len(ciphertexts))
	for i, ciphertext := range ciphertexts {
		avg := blockstats.AveragePairwiseHammingDistance(
			ciphertext, blockLen,
		)
		if avg.IsNone() {
			log.Debugf("Skipping candidate %d: only %d bytes", i,
				len(ciphertext))
			continue
		}

		ranked = append(ranked, Ranked{
			Index:      i,
			Ciphertext: ciphertext,
			Distance:   avg.UnwrapOr(0),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})

	return ranked
}
