package main

import (
	"bufio"
	"bytes"
	cryptorand "crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lightningnetwork/blockmode/blockstats"
	"github.com/lightningnetwork/blockmode/detect"
	"github.com/lightningnetwork/blockmode/modes"
	"github.com/lightningnetwork/blockmode/oracle"
	"github.com/lightningnetwork/blockmode/padding"
	"github.com/urfave/cli"
)

// errUsage is returned when a command is missing a required flag.
var errUsage = errors.New("missing required argument")

// stdin is where commands read their input when no files are given.
var stdin io.Reader = os.Stdin

// readInput returns the concatenated contents of the files named by the
// positional arguments, or of stdin when there are none.
func readInput(ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() == 0 {
		return io.ReadAll(stdin)
	}

	var buf bytes.Buffer
	for _, name := range ctx.Args() {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// readLines returns the non-empty lines of the input.
func readLines(ctx *cli.Context) ([]string, error) {
	data, err := readInput(ctx)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines, scanner.Err()
}

// decodeBase64 decodes input after dropping all whitespace, so wrapped
// base64 files decode as a single buffer.
func decodeBase64(data []byte) ([]byte, error) {
	compact := strings.Join(strings.Fields(string(data)), "")
	return base64.StdEncoding.DecodeString(compact)
}

var padCommand = cli.Command{
	Name:      "pad",
	Category:  "Padding",
	Usage:     "PKCS7 pad every input line.",
	ArgsUsage: "[file...]",
	Description: `
	Pad every non-empty input line to a multiple of the block size and
	print it as a quoted string. Lines are read from the given files, or
	from stdin when no file is given.
	`,
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "blocksize",
			Value: modes.BlockSize,
			Usage: "The block size to pad to, at most 255.",
		},
	},
	Action: pad,
}

func pad(ctx *cli.Context) error {
	_, cleanup, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	lines, err := readLines(ctx)
	if err != nil {
		return err
	}

	for _, line := range lines {
		padded, err := padding.Pad([]byte(line), ctx.Int("blocksize"))
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%q\n", padded)
	}

	return nil
}

var keyFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "encrypt",
		Usage: "Encrypt raw input to base64 instead of decrypting.",
	},
	cli.StringFlag{
		Name:  "key",
		Usage: "The raw key, its length must match the cipher.",
	},
	cli.BoolFlag{
		Name:  "nopadding",
		Usage: "Require block aligned data and skip PKCS7.",
	},
}

// modeParams holds what the ecb and cbc commands share.
type modeParams struct {
	engine *modes.Engine
	key    []byte
	policy padding.Policy
	input  []byte
}

func parseModeParams(ctx *cli.Context) (*modeParams, func(), error) {
	cfg, cleanup, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	params, err := func() (*modeParams, error) {
		engine, err := cfg.Engine()
		if err != nil {
			return nil, err
		}

		policy, err := cfg.PaddingPolicy()
		if err != nil {
			return nil, err
		}
		if ctx.Bool("nopadding") {
			policy = padding.NoPadding
		}

		if !ctx.IsSet("key") {
			return nil, fmt.Errorf("%w: --key", errUsage)
		}

		key := []byte(ctx.String("key"))
		if len(key) != engine.KeySize() {
			return nil, fmt.Errorf("%v needs a %d byte key, got %d",
				engine.Primitive(), engine.KeySize(), len(key))
		}

		input, err := readInput(ctx)
		if err != nil {
			return nil, err
		}

		if !ctx.Bool("encrypt") {
			input, err = decodeBase64(input)
			if err != nil {
				return nil, fmt.Errorf("invalid base64 "+
					"input: %w", err)
			}
		}

		aligned := len(input)%engine.BlockSize() == 0
		encryptPadded := ctx.Bool("encrypt") &&
			policy == padding.PKCS7
		if !aligned && !encryptPadded {
			return nil, fmt.Errorf("input of %d bytes is not a "+
				"multiple of the %d byte block", len(input),
				engine.BlockSize())
		}

		return &modeParams{
			engine: engine,
			key:    key,
			policy: policy,
			input:  input,
		}, nil
	}()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	log.Debugf("Running %v over %d bytes (policy=%v, encrypt=%v)",
		params.engine.Primitive(), len(params.input), params.policy,
		ctx.Bool("encrypt"))

	return params, cleanup, nil
}

// writeResult prints ciphertext as base64 and plaintext verbatim.
func writeResult(ctx *cli.Context, result []byte) {
	if ctx.Bool("encrypt") {
		fmt.Fprintln(ctx.App.Writer,
			base64.StdEncoding.EncodeToString(result))
		return
	}

	_, _ = ctx.App.Writer.Write(result)
}

var ecbCommand = cli.Command{
	Name:      "ecb",
	Category:  "Modes",
	Usage:     "Decrypt base64 ECB ciphertext, or encrypt with --encrypt.",
	ArgsUsage: "[file...]",
	Flags:     keyFlags,
	Action:    ecb,
}

func ecb(ctx *cli.Context) error {
	params, cleanup, err := parseModeParams(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	e := params.engine
	var result []byte
	if ctx.Bool("encrypt") {
		result, err = e.ECBEncrypt(
			params.key, params.input, params.policy,
		)
	} else {
		result, err = e.ECBDecrypt(
			params.key, params.input, params.policy,
		)
	}
	if err != nil {
		return err
	}

	writeResult(ctx, result)

	return nil
}

var cbcCommand = cli.Command{
	Name:      "cbc",
	Category:  "Modes",
	Usage:     "Decrypt base64 CBC ciphertext, or encrypt with --encrypt.",
	ArgsUsage: "[file...]",
	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "iv",
			Usage: "The hex encoded IV, all zero when unset.",
		},
		cli.IntFlag{
			Name:  "workers",
			Value: 1,
			Usage: "Number of goroutines used to decrypt.",
		},
	}, keyFlags...),
	Action: cbc,
}

func cbc(ctx *cli.Context) error {
	params, cleanup, err := parseModeParams(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	e := params.engine
	iv := make([]byte, e.BlockSize())
	if ctx.IsSet("iv") {
		iv, err = hex.DecodeString(ctx.String("iv"))
		if err != nil {
			return fmt.Errorf("invalid iv: %w", err)
		}
		if len(iv) != e.BlockSize() {
			return fmt.Errorf("iv must be %d bytes, got %d",
				e.BlockSize(), len(iv))
		}
	}

	workers := ctx.Int("workers")
	if workers < 1 {
		return fmt.Errorf("invalid worker count: %d", workers)
	}

	var result []byte
	switch {
	case ctx.Bool("encrypt"):
		result, err = e.CBCEncrypt(
			params.key, params.input, iv, params.policy,
		)

	case workers > 1:
		result, err = e.CBCDecryptParallel(
			params.key, params.input, iv, params.policy, workers,
		)

	default:
		result, err = e.CBCDecrypt(
			params.key, params.input, iv, params.policy,
		)
	}
	if err != nil {
		return err
	}

	writeResult(ctx, result)

	return nil
}

var detectCommand = cli.Command{
	Name:      "detect",
	Category:  "Analysis",
	Usage:     "Rank hex encoded ciphertexts by how ECB-like they are.",
	ArgsUsage: "[file...]",
	Description: `
	Read one hex encoded ciphertext per line and print the candidates with
	the lowest average pairwise Hamming distance between their blocks. The
	first candidate is the one most likely encrypted under ECB.
	`,
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "blocklen",
			Value: modes.BlockSize,
			Usage: "The chunk length to compare.",
		},
		cli.IntFlag{
			Name:  "top",
			Value: 5,
			Usage: "How many candidates to print.",
		},
	},
	Action: detectECB,
}

func detectECB(ctx *cli.Context) error {
	_, cleanup, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	blockLen := ctx.Int("blocklen")
	if blockLen <= 0 {
		return fmt.Errorf("invalid block length: %d", blockLen)
	}

	lines, err := readLines(ctx)
	if err != nil {
		return err
	}

	ciphertexts := make([][]byte, 0, len(lines))
	for i, line := range lines {
		ciphertext, err := hex.DecodeString(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		ciphertexts = append(ciphertexts, ciphertext)
	}

	t := newTable(ctx, "rank", "line", "distance", "repeated",
		"ciphertext")

	ranked := detect.RankByHamming(ciphertexts, blockLen)
	for i, r := range ranked {
		if i >= ctx.Int("top") {
			break
		}

		t.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Index + 1),
			fmt.Sprintf("%.4f", r.Distance),
			strconv.Itoa(blockstats.RepeatedBlocks(
				r.Ciphertext, blockLen,
			)),
			hex.EncodeToString(r.Ciphertext),
		})
	}
	t.Render()

	return nil
}

var simulateCommand = cli.Command{
	Name:     "simulate",
	Category: "Analysis",
	Usage:    "Score mode detectors against the randomized oracle.",
	Description: `
	Encrypt the plaintext through the randomized oracle --trials times and
	report the mean of the chosen metric under each true mode, followed by
	how often each detector guessed the mode right. Defaults come from the
	[simulate] and [oracle] config sections.
	`,
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "trials",
			Usage: "Number of oracle calls.",
		},
		cli.StringFlag{
			Name:  "metric",
			Usage: "One of hamming, repeated or offset.",
		},
		cli.StringFlag{
			Name:  "plaintext",
			Value: strings.Repeat("A", 3*modes.BlockSize),
			Usage: "The plaintext handed to the oracle.",
		},
		cli.Float64Flag{
			Name:  "threshold",
			Usage: "Distance above which the hamming detector " +
				"guesses CBC.",
		},
		cli.Int64Flag{
			Name:  "seed",
			Usage: "Seed a deterministic random source.",
		},
	},
	Action: simulate,
}

func simulate(ctx *cli.Context) error {
	cfg, cleanup, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	sim := *cfg.Simulation
	if ctx.IsSet("trials") {
		sim.Trials = ctx.Int("trials")
	}
	if ctx.IsSet("metric") {
		sim.Metric = ctx.String("metric")
	}
	if ctx.IsSet("threshold") {
		sim.Threshold = ctx.Float64("threshold")
	}

	var metric detect.Metric
	switch sim.Metric {
	case "hamming":
		metric = detect.HammingMetric(sim.BlockLen)
	case "repeated":
		metric = detect.RepeatedBlocksMetric(sim.BlockLen)
	case "offset":
		metric = detect.RepeatedBlocksWithOffsetMetric(sim.BlockLen)
	default:
		return fmt.Errorf("unknown metric: %q", sim.Metric)
	}

	engine, err := cfg.Engine()
	if err != nil {
		return err
	}

	source := io.Reader(cryptorand.Reader)
	if ctx.IsSet("seed") {
		source = rand.New(rand.NewSource(ctx.Int64("seed")))
	}
	o := oracle.New(engine, source, cfg.OracleConfig())
	plaintext := []byte(ctx.String("plaintext"))

	summary, err := detect.Describe(o, metric, plaintext, sim.Trials)
	if err != nil {
		return err
	}
	log.Debugf("Described %v: %v", sim.Metric, summary)

	t := newTable(ctx, "mode", "trials", "mean "+sim.Metric)
	t.AppendRows([]table.Row{
		{
			modes.ECB.String(),
			strconv.Itoa(summary.ECBTrials),
			fmt.Sprintf("%.4f", summary.ECBMean),
		},
		{
			modes.CBC.String(),
			strconv.Itoa(summary.CBCTrials),
			fmt.Sprintf("%.4f", summary.CBCMean),
		},
	})
	t.Render()

	detectors := []struct {
		name string
		d    detect.Detector
	}{
		{"hamming", detect.ByHamming(sim.BlockLen, sim.Threshold)},
		{"repeated", detect.ByRepeatedBlocks(sim.BlockLen)},
	}

	t = newTable(ctx, "detector", "score")
	for _, d := range detectors {
		score, err := detect.Score(o, d.d, plaintext, sim.Trials)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{d.name, fmt.Sprintf("%.3f", score)})
	}
	t.Render()

	return nil
}

// newTable returns a table writer rendering to the app's output with the
// given column headers.
func newTable(ctx *cli.Context, headers ...string) table.Writer {
	header := make(table.Row, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}

	t := table.NewWriter()
	t.SetOutputMirror(ctx.App.Writer)
	t.AppendHeader(header)

	return t
}
