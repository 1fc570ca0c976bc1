// Command absal reduces a λ-term to normal form by optimal reduction.
//
// The term is read from the file named on the command line, or from stdin.
// The normal form goes to stdout; statistics go to stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/vic/goabsal/pkg/inet"
	"github.com/vic/goabsal/pkg/lambda"
)

var version = "dev"

// verifySteps bounds the reference normalizer used by -verify.
const verifySteps = 1_000_000

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	budget   uint64
	strategy inet.Strategy
	verify   bool
	trace    int
	quiet    bool
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("absal", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: absal [flags] [file]\n\n")
		fs.PrintDefaults()
	}

	var (
		cfg         config
		strategy    = fs.String("strategy", "lazy", "reduction order: lazy, fifo or lifo")
		watch       = fs.Bool("watch", false, "reduce the file again whenever it changes")
		repl        = fs.Bool("repl", false, "read terms interactively")
		verbose     = fs.Bool("v", false, "debug logging")
		showVersion = fs.Bool("version", false, "print the version and exit")
	)
	fs.Uint64Var(&cfg.budget, "budget", 0, "stop after this many rewrites (0 means no limit)")
	fs.BoolVar(&cfg.verify, "verify", false, "compare the result with substitution-based normal order reduction")
	fs.IntVar(&cfg.trace, "trace", 0, "print the first N rewrites")
	fs.BoolVar(&cfg.quiet, "q", false, "do not print statistics")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "absal %s\n", version)
		return nil
	}

	s, err := inet.ParseStrategy(*strategy)
	if err != nil {
		return err
	}
	cfg.strategy = s

	level := slog.LevelInfo
	if *verbose || os.Getenv("ABSAL_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	switch {
	case *repl:
		return runREPL(cfg, stdout, stderr, log)
	case *watch:
		if fs.NArg() != 1 {
			return errors.New("-watch needs a file")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return watchFile(ctx, fs.Arg(0), cfg, stdout, stderr, log)
	}

	var input []byte
	switch fs.NArg() {
	case 0:
		input, err = io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
	case 1:
		input, err = os.ReadFile(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
	default:
		return fmt.Errorf("expected at most one file, got %d", fs.NArg())
	}
	return evaluate(string(input), cfg, stdout, stderr, log)
}

// evaluate runs one term through the whole pipeline.
func evaluate(src string, cfg config, stdout, stderr io.Writer, log *slog.Logger) error {
	term, err := lambda.Parse(src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	net, err := lambda.Compile(term)
	if err != nil {
		return err
	}
	log.Debug("compiled", "size", lambda.Size(term), "nodes", net.Len(), "strategy", cfg.strategy)

	opts := []inet.Option{inet.WithBudget(cfg.budget), inet.WithStrategy(cfg.strategy)}
	if cfg.trace > 0 {
		opts = append(opts, inet.WithTrace(cfg.trace))
	}
	start := time.Now()
	res := net.Reduce(opts...)
	elapsed := time.Since(start)

	if cfg.trace > 0 {
		printTrace(stderr, net.TraceSnapshot())
	}
	if res.BudgetExceeded() {
		if !cfg.quiet {
			printStats(stderr, res.Stats, elapsed)
		}
		return fmt.Errorf("no normal form within %d rewrites", cfg.budget)
	}

	out, err := lambda.Decompile(net)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, out)
	if !cfg.quiet {
		printStats(stderr, res.Stats, elapsed)
	}

	if cfg.verify {
		ref, steps, ok := lambda.NormalizeReference(term, verifySteps)
		if !ok {
			log.Warn("reference reduction did not finish", "steps", steps)
			return nil
		}
		if !lambda.AlphaEqual(ref, out) {
			return fmt.Errorf("verify: reference normal form is %v", ref)
		}
		log.Info("verified", "reference_steps", steps, "rewrites", res.Stats.Rewrites)
	}
	return nil
}

func printTrace(w io.Writer, events []inet.TraceEvent) {
	fmt.Fprintf(w, "\nTrace:\n")
	for _, ev := range events {
		fmt.Fprintf(w, "  %6d %-8s %s#%d ~ %s#%d\n", ev.Step, ev.Rule, ev.AKind, ev.AID, ev.BKind, ev.BID)
	}
}

func printStats(w io.Writer, stats inet.Stats, elapsed time.Duration) {
	seconds := elapsed.Seconds()
	rate := func(n uint64) {
		if seconds > 0 {
			fmt.Fprintf(w, " (%.2f ops/sec)", float64(n)/seconds)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "\nStats:\n")
	fmt.Fprintf(w, "Time: %v\n", elapsed)
	fmt.Fprintf(w, "Total Rewrites: %d", stats.Rewrites)
	rate(stats.Rewrites)

	fmt.Fprintf(w, "\nBreakdown:\n")
	fmt.Fprintf(w, "  Annihilation: %8d", stats.Annihilations)
	rate(stats.Annihilations)
	fmt.Fprintf(w, "  Commutation:  %8d", stats.Commutations)
	rate(stats.Commutations)
	fmt.Fprintf(w, "  Erasure:      %8d", stats.Erasures)
	rate(stats.Erasures)

	if stats.Loops > 0 {
		fmt.Fprintf(w, "Loops: %d\n", stats.Loops)
	}
	fmt.Fprintf(w, "Peak Nodes: %d\n", stats.PeakNodes)
}
