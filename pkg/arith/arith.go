// Package arith multiplies binary numbers by optimal reduction of a
// λ-calculus program. Numbers are lists of bits, least significant first,
// encoded as Scott lists: nil is λe.λ0.λ1.e, a 0 bit in front of x is
// λe.λ0.λ1.(0 x) and a 1 bit is λe.λ0.λ1.(1 x).
package arith

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/vic/goabsal/pkg/inet"
	"github.com/vic/goabsal/pkg/lambda"
)

var ErrBudgetExceeded = errors.New("rewrite budget exceeded")

// Binary returns the bits of n, least significant first. Zero is "0".
func Binary(n *big.Int) string {
	s := []byte(n.Text(2))
	for l, r := 0, len(s)-1; l < r; l, r = l+1, r-1 {
		s[l], s[r] = s[r], s[l]
	}
	return string(s)
}

// FromBinary is the inverse of Binary. An empty string is zero.
func FromBinary(bits string) *big.Int {
	n := new(big.Int)
	for i := len(bits) - 1; i >= 0; i-- {
		n.Lsh(n, 1)
		if bits[i] == '1' {
			n.SetBit(n, 0, 1)
		}
	}
	return n
}

// Nat returns a compact Church numeral for the given bits. Each p_i
// applies s 2^i times and is shared through a let, so the term grows
// with the number of bits rather than with the value:
//
//	λs.@p0 s @p1 λx.(p0 (p0 x)) ... λz.(p0 (p2 z))
func Nat(bits string) string {
	var b strings.Builder
	b.WriteString("λs.\n  @p0 s")
	for i := 1; i < len(bits); i++ {
		fmt.Fprintf(&b, "\n  @p%d λx.(p%d (p%d x))", i, i-1, i-1)
	}
	call := "z"
	for i := 0; i < len(bits); i++ {
		if bits[i] == '1' {
			call = "(p" + strconv.Itoa(i) + " " + call + ")"
		}
	}
	b.WriteString("\n  λz.")
	b.WriteString(call)
	return b.String()
}

// Incrementer returns λI.(X0 (X1 ... (Xw-1 e))) where X_i is I when bit i
// is set and the 0 constructor otherwise. Width is raised to len(bits)
// when smaller.
func Incrementer(bits string, width int) string {
	width = max(width, len(bits))
	var b strings.Builder
	b.WriteString("λI.")
	for i := 0; i < width; i++ {
		if i < len(bits) && bits[i] == '1' {
			b.WriteString("(I")
		} else {
			b.WriteString("(0")
		}
	}
	b.WriteString("(e)")
	b.WriteString(strings.Repeat(")", width))
	return b.String()
}

// DefaultWidth is the incrementer width used when none is given: enough
// bits for the product plus one.
func DefaultWidth(a, b string) int {
	return len(a) + len(b) + 1
}

// MulSource returns the program computing a*b. The result is a bit list
// of exactly width bits; higher bits of the product are dropped.
func MulSource(a, b string, width int) string {
	return `$Y λf.(λx.(f (x x)) λx.(f (x x))) // fixed point
$e λe.λ0.λ1.e
$0 λx.λe.λ0.λ1.(0 x)
$1 λx.λe.λ0.λ1.(1 x)
$id (Y λid.λx.(x e λp.(0 (id p)) λp.(1 (id p))))
$inc (Y λinc.λx.λe.λ0.λ1.(x e λp.(1 p) λp.(0 (inc p))))
$arg0 ` + Nat(a) + `
$arg1 ` + Incrementer(b, width) + `
(id (arg1 λx.(arg0 inc (0 x))))
`
}

// DecodeBits reads a bit list back from a normal form, least significant
// bit first.
func DecodeBits(t lambda.Term) (string, error) {
	t = lambda.ExpandLets(t)
	var bits strings.Builder
	for {
		e, ok := t.(*lambda.Lam)
		if !ok {
			return "", fmt.Errorf("arith: bit %d: expected λe, got %v", bits.Len(), t)
		}
		zero, ok := e.Body.(*lambda.Lam)
		if !ok {
			return "", fmt.Errorf("arith: bit %d: expected λ0, got %v", bits.Len(), e.Body)
		}
		one, ok := zero.Body.(*lambda.Lam)
		if !ok {
			return "", fmt.Errorf("arith: bit %d: expected λ1, got %v", bits.Len(), zero.Body)
		}

		switch body := one.Body.(type) {
		case *lambda.Var:
			if body.Name != e.Param || body.Name == zero.Param || body.Name == one.Param {
				return "", fmt.Errorf("arith: bit %d: expected nil, got %v", bits.Len(), body)
			}
			return bits.String(), nil
		case *lambda.App:
			f, ok := body.Fun.(*lambda.Var)
			if !ok {
				return "", fmt.Errorf("arith: bit %d: expected constructor, got %v", bits.Len(), body.Fun)
			}
			switch f.Name {
			case one.Param:
				bits.WriteByte('1')
			case zero.Param:
				bits.WriteByte('0')
			default:
				return "", fmt.Errorf("arith: bit %d: unknown constructor %s", bits.Len(), f.Name)
			}
			t = body.Arg
		default:
			return "", fmt.Errorf("arith: bit %d: unexpected %v", bits.Len(), body)
		}
	}
}

type Options struct {
	// Width of the result in bits. Zero means DefaultWidth.
	Width int
	// Budget caps the total rewrites. Zero means unlimited.
	Budget uint64
	// Chunk is the number of rewrites between context checks.
	Chunk    uint64
	Strategy inet.Strategy
}

type Option func(*Options)

func WithWidth(n int) Option { return func(o *Options) { o.Width = n } }

func WithBudget(n uint64) Option { return func(o *Options) { o.Budget = n } }

func WithChunk(n uint64) Option { return func(o *Options) { o.Chunk = n } }

func WithStrategy(s inet.Strategy) Option { return func(o *Options) { o.Strategy = s } }

// Product is the outcome of one multiplication.
type Product struct {
	Value     *big.Int
	Bits      string
	Rewrites  uint64
	Loops     uint64
	PeakNodes int
	Elapsed   time.Duration
}

// Multiply computes a*b by optimal reduction. Reduction runs in chunks so
// that ctx can stop it.
func Multiply(ctx context.Context, a, b *big.Int, opts ...Option) (Product, error) {
	o := Options{Chunk: 1 << 16}
	for _, opt := range opts {
		opt(&o)
	}
	if a.Sign() < 0 || b.Sign() < 0 {
		return Product{}, fmt.Errorf("arith: negative operand")
	}
	abits, bbits := Binary(a), Binary(b)
	if o.Width == 0 {
		o.Width = DefaultWidth(abits, bbits)
	}

	start := time.Now()
	term, err := lambda.Parse(MulSource(abits, bbits, o.Width))
	if err != nil {
		return Product{}, fmt.Errorf("arith: parse: %w", err)
	}
	net, err := lambda.Compile(term)
	if err != nil {
		return Product{}, fmt.Errorf("arith: compile: %w", err)
	}

	var done uint64
	for {
		if err := ctx.Err(); err != nil {
			return Product{}, err
		}
		chunk := o.Chunk
		if o.Budget > 0 {
			if done >= o.Budget {
				return Product{}, fmt.Errorf("arith: %w after %d rewrites", ErrBudgetExceeded, done)
			}
			chunk = min(chunk, o.Budget-done)
		}
		res := net.Reduce(inet.WithBudget(chunk), inet.WithStrategy(o.Strategy))
		done += res.Rewrites
		if !res.BudgetExceeded() {
			break
		}
	}

	out, err := lambda.Decompile(net)
	if err != nil {
		return Product{}, fmt.Errorf("arith: decompile: %w", err)
	}
	bits, err := DecodeBits(out)
	if err != nil {
		return Product{}, err
	}

	stats := net.Stats()
	return Product{
		Value:     FromBinary(bits),
		Bits:      bits,
		Rewrites:  stats.Rewrites,
		Loops:     stats.Loops,
		PeakNodes: stats.PeakNodes,
		Elapsed:   time.Since(start),
	}, nil
}
