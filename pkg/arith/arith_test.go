package arith

import (
	"context"
	"errors"
	"math/big"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vic/goabsal/pkg/inet"
	"github.com/vic/goabsal/pkg/lambda"
)

func TestBinary(t *testing.T) {
	tests := []struct {
		n    int64
		bits string
	}{
		{0, "0"},
		{1, "1"},
		{2, "01"},
		{6, "011"},
		{31, "11111"},
	}
	for _, tt := range tests {
		if got := Binary(big.NewInt(tt.n)); got != tt.bits {
			t.Errorf("Binary(%d) = %q, expected %q", tt.n, got, tt.bits)
		}
		if got := FromBinary(tt.bits); got.Int64() != tt.n {
			t.Errorf("FromBinary(%q) = %v, expected %d", tt.bits, got, tt.n)
		}
	}
	if FromBinary("0110000").Int64() != 6 {
		t.Errorf("trailing zero bits should not change the value")
	}
}

// church reduces (nat f z) with the reference normalizer and counts the
// applications of f.
func church(t *testing.T, src string) int {
	t.Helper()
	term, err := lambda.Parse("(" + src + " λv.λw.v λu.u)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	nf, _, ok := lambda.NormalizeReference(term, 10000)
	if !ok {
		t.Fatalf("numeral did not normalize")
	}
	// each application of λv.λw.v wraps one more λw
	n := 0
	for {
		lam, ok := nf.(*lambda.Lam)
		if !ok {
			return n
		}
		if v, isVar := lam.Body.(*lambda.Var); isVar && v.Name == lam.Param {
			return n
		}
		n++
		nf = lam.Body
	}
}

func TestNat(t *testing.T) {
	for _, n := range []int64{0, 1, 2, 5, 13} {
		src := Nat(Binary(big.NewInt(n)))
		if got := church(t, src); int64(got) != n {
			t.Errorf("Nat(%d) applies s %d times:\n%s", n, got, src)
		}
	}
}

func TestIncrementer(t *testing.T) {
	tests := []struct {
		bits  string
		width int
		want  string
	}{
		{"1", 1, "λI.(I(e))"},
		{"01", 3, "λI.(0(I(0(e))))"},
		// width never drops bits
		{"11", 1, "λI.(I(I(e)))"},
	}
	for _, tt := range tests {
		if got := Incrementer(tt.bits, tt.width); got != tt.want {
			t.Errorf("Incrementer(%q, %d) = %q, expected %q", tt.bits, tt.width, got, tt.want)
		}
	}
}

func TestMulSourceParses(t *testing.T) {
	src := MulSource("11", "101", 6)
	if _, err := lambda.Parse(src); err != nil {
		t.Fatalf("generated program does not parse: %v\n%s", err, src)
	}
	if !strings.Contains(src, "$arg1 λI.(I(0(I(0(0(0(e)))))))") {
		t.Errorf("unexpected incrementer in\n%s", src)
	}
}

func TestDecodeBits(t *testing.T) {
	tests := []struct {
		src  string
		bits string
	}{
		{"λe.λ0.λ1.e", ""},
		{"λe.λ0.λ1.(1 λe.λ0.λ1.(0 λe.λ0.λ1.e))", "10"},
		{"λa.λb.λc.(c λd.λe.λf.(f λg.λh.λi.g))", "11"},
		{"@n λe.λ0.λ1.e λa.λb.λc.(b n)", "0"},
	}
	for _, tt := range tests {
		term, err := lambda.Parse(tt.src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.src, err)
		}
		got, err := DecodeBits(term)
		if err != nil {
			t.Errorf("DecodeBits(%s): %v", tt.src, err)
			continue
		}
		if got != tt.bits {
			t.Errorf("DecodeBits(%s) = %q, expected %q", tt.src, got, tt.bits)
		}
	}

	for _, bad := range []string{"λx.x", "λe.λ0.λ1.0", "λe.λ0.λ1.(e e)", "λe.λ0.λ1.(1 λx.x)"} {
		term, err := lambda.Parse(bad)
		if err != nil {
			t.Fatalf("Parse(%q): %v", bad, err)
		}
		if _, err := DecodeBits(term); err == nil {
			t.Errorf("DecodeBits(%s): expected error", bad)
		}
	}
}

func TestMultiplySmall(t *testing.T) {
	ctx := context.Background()
	for a := int64(0); a < 6; a++ {
		for b := int64(0); b < 6; b++ {
			p, err := Multiply(ctx, big.NewInt(a), big.NewInt(b))
			if err != nil {
				t.Fatalf("Multiply(%d, %d): %v", a, b, err)
			}
			if p.Value.Int64() != a*b {
				t.Errorf("Multiply(%d, %d) = %v (bits %s)", a, b, p.Value, p.Bits)
			}
		}
	}
}

// TestMultiplySampled multiplies seeded random operands up to 10000.
func TestMultiplySampled(t *testing.T) {
	samples := 40
	if testing.Short() {
		samples = 8
	}
	rng := rand.New(rand.NewPCG(2024, 10000))
	pairs := [][2]int64{{10000, 10000}, {0, 10000}, {9999, 1}}
	for range samples {
		pairs = append(pairs, [2]int64{rng.Int64N(10001), rng.Int64N(10001)})
	}

	ctx := context.Background()
	for _, p := range pairs {
		a, b := p[0], p[1]
		got, err := Multiply(ctx, big.NewInt(a), big.NewInt(b))
		if err != nil {
			t.Fatalf("Multiply(%d, %d): %v", a, b, err)
		}
		if got.Value.Int64() != a*b {
			t.Errorf("Multiply(%d, %d) = %v (bits %s)", a, b, got.Value, got.Bits)
		}
	}
}

func TestMultiplyLarge(t *testing.T) {
	tests := []struct{ a, b string }{
		{"255", "255"},
		{"43690", "65535"},
		{"123456789", "987654321"},
	}
	for _, tt := range tests {
		a, _ := new(big.Int).SetString(tt.a, 10)
		b, _ := new(big.Int).SetString(tt.b, 10)
		p, err := Multiply(context.Background(), a, b)
		if err != nil {
			t.Fatalf("Multiply(%s, %s): %v", tt.a, tt.b, err)
		}
		want := new(big.Int).Mul(a, b)
		if p.Value.Cmp(want) != 0 {
			t.Errorf("Multiply(%s, %s) = %v, expected %v", tt.a, tt.b, p.Value, want)
		}
		t.Logf("%s * %s: %d rewrites, %d loops, peak %d nodes, %v", tt.a, tt.b, p.Rewrites, p.Loops, p.PeakNodes, p.Elapsed)
	}
}

func TestMultiplyWidthTruncates(t *testing.T) {
	// 7*7 = 49 = 110001b; four bits keep 0001
	p, err := Multiply(context.Background(), big.NewInt(7), big.NewInt(7), WithWidth(4))
	if err != nil {
		t.Fatalf("Multiply: %v", err)
	}
	if len(p.Bits) != 4 || p.Value.Int64() != 1 {
		t.Errorf("expected 4 bits with value 1, got %q (%v)", p.Bits, p.Value)
	}
}

func TestMultiplyBudget(t *testing.T) {
	_, err := Multiply(context.Background(), big.NewInt(255), big.NewInt(255), WithBudget(100), WithChunk(30))
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Errorf("expected ErrBudgetExceeded, got %v", err)
	}
}

func TestMultiplyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Multiply(ctx, big.NewInt(3), big.NewInt(3))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestSharingGrowth multiplies all-ones numbers of doubling width. With
// working sharing the rewrite count grows polynomially with the number
// of bits, so each doubling multiplies it by a bounded factor.
func TestSharingGrowth(t *testing.T) {
	widths := []int{8, 16, 32}
	if !testing.Short() {
		widths = append(widths, 64)
	}

	rewrites := make([]uint64, len(widths))
	g, ctx := errgroup.WithContext(context.Background())
	var mu sync.Mutex
	for i, w := range widths {
		g.Go(func() error {
			n := FromBinary(strings.Repeat("1", w))
			p, err := Multiply(ctx, n, n, WithBudget(1<<32))
			if err != nil {
				return err
			}
			if want := new(big.Int).Mul(n, n); p.Value.Cmp(want) != 0 {
				t.Errorf("%d bits: got %v, expected %v", w, p.Value, want)
			}
			mu.Lock()
			rewrites[i] = p.Rewrites
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Multiply: %v", err)
	}

	for i := 1; i < len(widths); i++ {
		ratio := float64(rewrites[i]) / float64(rewrites[i-1])
		t.Logf("%d bits: %d rewrites (×%.1f)", widths[i], rewrites[i], ratio)
		if ratio >= 64 {
			t.Errorf("rewrites grew by %.1f from %d to %d bits", ratio, widths[i-1], widths[i])
		}
	}
}

// TestDecompilePartialNet grows the net of a multiplication by exhaustive
// reduction, which keeps unfolding the fixed point, and reads it back
// while it is stopped by the budget. The readback must give up quickly
// with an error instead of exhausting the stack.
func TestDecompilePartialNet(t *testing.T) {
	if testing.Short() {
		t.Skip("grows a net of 100000 nodes")
	}
	term, err := lambda.Parse(MulSource(Binary(big.NewInt(13)), Binary(big.NewInt(11)), 10))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	net, err := lambda.Compile(term)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for i := 0; net.Len() < 100_000; i++ {
		if i == 50 {
			t.Fatalf("net stopped growing at %d nodes", net.Len())
		}
		res := net.Reduce(inet.WithStrategy(inet.StrategyFIFO), inet.WithBudget(100_000))
		if !res.BudgetExceeded() {
			t.Fatalf("exhaustive reduction of the fixed point finished")
		}
	}

	start := time.Now()
	_, err = lambda.Decompile(net)
	elapsed := time.Since(start)
	if !errors.Is(err, lambda.ErrMalformedNet) {
		t.Errorf("expected ErrMalformedNet, got %v", err)
	}
	if elapsed > 30*time.Second {
		t.Errorf("readback of %d nodes took %v", net.Len(), elapsed)
	}
	t.Logf("%d nodes: %v in %v", net.Len(), err, elapsed)
}
