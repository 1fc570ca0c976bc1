package lambda

import (
	"testing"

	"github.com/vic/goabsal/pkg/inet"
)

// TestOptimalityProperty counts the rewrites of small terms. Shared
// redexes are reduced once, so the number of β-steps can be lower than
// the number normal order substitution needs.
func TestOptimalityProperty(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedBeta  int
		expectedTotal uint64
		description   string
	}{
		{
			name:          "identity",
			input:         "λx.x",
			expectedBeta:  0,
			expectedTotal: 0,
			description:   "already in normal form",
		},
		{
			name:          "id_id",
			input:         "(λx.x λy.y)",
			expectedBeta:  1,
			expectedTotal: 1,
			description:   "a single annihilation",
		},
		{
			name:          "K_closed_args",
			input:         "(λx.λy.x λa.a λb.b)",
			expectedBeta:  2,
			expectedTotal: 2,
			description:   "the discarded argument is never touched by the lazy strategy",
		},
		{
			name:          "shared_redex",
			input:         "(λx.(x x) (λy.y λz.z))",
			expectedBeta:  3,
			expectedTotal: 5,
			description:   "(I I) is reduced once for both uses; one commutation and one duplicator annihilation copy the result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, err := Compile(mustParse(t, tt.input))
			if err != nil {
				t.Fatalf("Compile error: %v", err)
			}
			res := net.Reduce(inet.WithTrace(1000))

			beta := 0
			for _, ev := range net.TraceSnapshot() {
				if ev.Rule == inet.RuleBeta {
					beta++
				}
			}
			if beta != tt.expectedBeta {
				t.Errorf("%s: expected %d β-steps, got %d", tt.description, tt.expectedBeta, beta)
			}
			if res.Rewrites != tt.expectedTotal {
				t.Errorf("%s: expected %d rewrites, got %d", tt.description, tt.expectedTotal, res.Rewrites)
			}
		})
	}
}

// TestSharingBeatsSubstitution compares β-steps with the reference
// normalizer, which copies the argument before reducing it.
func TestSharingBeatsSubstitution(t *testing.T) {
	src := "(λx.(x x) (λy.y λz.z))"
	_, refSteps, ok := NormalizeReference(mustParse(t, src), 100)
	if !ok {
		t.Fatal("reference normalizer did not finish")
	}

	net, err := Compile(mustParse(t, src))
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	net.Reduce(inet.WithTrace(100))
	beta := 0
	for _, ev := range net.TraceSnapshot() {
		if ev.Rule == inet.RuleBeta {
			beta++
		}
	}
	if beta >= refSteps {
		t.Errorf("expected fewer β-steps than substitution (%d), got %d", refSteps, beta)
	}
}

// TestConfluence reduces every test term exhaustively in FIFO and LIFO
// order. Both orders must reach the same term with the same number of
// rewrites, and the lazy strategy never does more work.
func TestConfluence(t *testing.T) {
	for _, tt := range normalFormTests {
		t.Run(tt.name, func(t *testing.T) {
			fifo, fres := normalize(t, prelude+tt.input, inet.WithStrategy(inet.StrategyFIFO))
			lifo, lres := normalize(t, prelude+tt.input, inet.WithStrategy(inet.StrategyLIFO))
			lazy, zres := normalize(t, prelude+tt.input)

			if Print(fifo) != Print(lifo) {
				t.Errorf("FIFO gave %s, LIFO gave %s", Print(fifo), Print(lifo))
			}
			if fres.Rewrites != lres.Rewrites {
				t.Errorf("FIFO used %d rewrites, LIFO %d", fres.Rewrites, lres.Rewrites)
			}
			if !AlphaEqual(fifo, lazy) {
				t.Errorf("exhaustive result %s differs from lazy %s", Print(fifo), Print(lazy))
			}
			if zres.Rewrites > fres.Rewrites {
				t.Errorf("lazy used %d rewrites, exhaustive only %d", zres.Rewrites, fres.Rewrites)
			}
		})
	}
}
