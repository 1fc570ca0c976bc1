// Command mulbench multiplies numbers of growing bit width by optimal
// reduction, checks every product against math/big and prints the rewrite
// counts as a JSON table.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vic/goabsal/pkg/arith"
	"github.com/vic/goabsal/pkg/inet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type result struct {
	Bits     int    `json:"bits"`
	A        string `json:"a"`
	B        string `json:"b"`
	Product  string `json:"product"`
	Rewrites uint64 `json:"rewrites"`
	Loops    uint64 `json:"loops"`
	Peak     int    `json:"peak_nodes"`
	Millis   int64  `json:"ms"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("mulbench", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		maxBits  = fs.Int("max", 32, "largest operand width in bits")
		minBits  = fs.Int("min", 1, "smallest operand width in bits")
		jobs     = fs.Int("j", 1, "multiplications to run concurrently")
		random   = fs.Bool("random", false, "random operands instead of all ones")
		seed     = fs.Uint64("seed", 1, "seed for -random")
		width    = fs.Int("width", 0, "result width in bits (0 means wide enough for the product)")
		budget   = fs.Uint64("budget", 0, "rewrite budget per multiplication (0 means no limit)")
		strategy = fs.String("strategy", "lazy", "reduction order: lazy, fifo or lifo")
		verbose  = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *minBits < 1 || *maxBits < *minBits {
		return fmt.Errorf("bad width range %d..%d", *minBits, *maxBits)
	}
	st, err := inet.ParseStrategy(*strategy)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose || os.Getenv("ABSAL_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	rng := rand.New(rand.NewPCG(*seed, *seed))
	type job struct{ a, b *big.Int }
	var work []job
	for i := *minBits; i <= *maxBits; i++ {
		work = append(work, job{operand(rng, i, *random), operand(rng, i, *random)})
	}

	opts := []arith.Option{arith.WithWidth(*width), arith.WithBudget(*budget), arith.WithStrategy(st)}
	results := make([]result, len(work))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*jobs, 1))
	for i, w := range work {
		bits := *minBits + i
		g.Go(func() error {
			log.Debug("start", "bits", bits)
			p, err := arith.Multiply(ctx, w.a, w.b, opts...)
			if err != nil {
				return fmt.Errorf("%d bits: %w", bits, err)
			}
			want := new(big.Int).Mul(w.a, w.b)
			if *width > 0 {
				// the result keeps as many bits as the incrementer
				want.Mod(want, new(big.Int).Lsh(big.NewInt(1), uint(len(p.Bits))))
			}
			if p.Value.Cmp(want) != 0 {
				return fmt.Errorf("%d bits: %v*%v gave %v, expected %v", bits, w.a, w.b, p.Value, want)
			}
			results[i] = result{
				Bits:     bits,
				A:        w.a.String(),
				B:        w.b.String(),
				Product:  p.Value.String(),
				Rewrites: p.Rewrites,
				Loops:    p.Loops,
				Peak:     p.PeakNodes,
				Millis:   p.Elapsed.Milliseconds(),
			}
			log.Debug("done", "bits", bits, "rewrites", p.Rewrites, "elapsed", p.Elapsed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	table := make([]uint64, len(results))
	for i, r := range results {
		fmt.Fprintf(stdout, "Results\n=======\n")
		fmt.Fprintf(stdout, " i   = %d\n a   = %s\n b   = %s\n", r.Bits, r.A, r.B)
		fmt.Fprintf(stdout, " a*b = %s\n rwt = %d\n loop= %d\n peak= %d\n\n", r.Product, r.Rewrites, r.Loops, r.Peak)
		table[i] = r.Rewrites
	}
	out, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(out))
	return nil
}

// operand returns a number of exactly bits bits: all ones, or random with
// the top bit set.
func operand(rng *rand.Rand, bits int, random bool) *big.Int {
	if !random {
		return arith.FromBinary(strings.Repeat("1", bits))
	}
	b := make([]byte, bits)
	for i := range b {
		b[i] = '0' + byte(rng.IntN(2))
	}
	b[bits-1] = '1'
	return arith.FromBinary(string(b))
}
