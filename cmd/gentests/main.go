// Command gentests writes one directory per golden reduction case, with
// the input term, its expected normal form and a test checking them.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vic/goabsal/pkg/lambda"
)

type TestCase struct {
	Name   string
	Input  string
	Output string
}

const testTemplate = `package gentests

import _ "embed"
import "testing"
import "github.com/vic/goabsal/cmd/gentests/helper"

//go:embed input.lam
var input string

//go:embed output.lam
var output string

func Test_%s_Reduction(t *testing.T) {
	helper.CheckReduction(t, "%s", input, output)
}
`

var tests = []TestCase{
	// Identity
	{"001_id", "λx.x", "λx.x"},
	{"002_id_id", "(λx.x λy.y)", "λz.z"},

	// K combinator (erasure)
	{"003_k_1", "λa.λb.(λx.λy.x a b)", "λa.λb.a"},
	{"004_k_2", "λa.λb.(λx.λy.y a b)", "λa.λb.b"},
	{"005_erase_complex", "λa.λb.(λx.λy.x a (λz.z b))", "λa.λb.a"},

	// S combinator (sharing)
	{"006_s_1", "λe.(λx.λy.λz.(x z (y z)) λa.λb.a λc.λd.c e)", "λe.e"},
	{"007_s_2", "λe.(λx.λy.λz.(x z (y z)) λa.λb.b λc.λd.c e)", "λe.λd.e"},

	// Church numerals
	{"010_zero", "λf.λx.(λg.λy.y f x)", "λf.λx.x"},
	{"011_one", "λf.λx.(λg.λy.(g y) f x)", "λf.λx.(f x)"},
	{"012_two", "λf.λx.(λg.λy.(g (g y)) f x)", "λf.λx.(f (f x))"},
	{"013_succ_0", "(λn.λf.λx.(f (n f x)) λf.λx.x)", "λf.λx.(f x)"},
	{"014_succ_1", "(λn.λf.λx.(f (n f x)) λf.λx.(f x))", "λf.λx.(f (f x))"},
	{"015_add_1_1", "(λm.λn.λf.λx.(m f (n f x)) λf.λx.(f x) λf.λx.(f x))", "λf.λx.(f (f x))"},
	{"016_mul_2_2", "(λm.λn.λf.(m (n f)) λf.λx.(f (f x)) λf.λx.(f (f x)))", "λf.λx.(f (f (f (f x))))"},

	// Logic
	{"022_not_true", "λa.λb.(λp.(p λx.λy.y λx.λy.x) λx.λy.x a b)", "λa.λb.b"},
	{"023_not_false", "λa.λb.(λp.(p λx.λy.y λx.λy.x) λx.λy.y a b)", "λa.λb.a"},
	{"024_and_true_true", "λa.λb.(λp.λq.(p q p) λx.λy.x λx.λy.x a b)", "λa.λb.a"},
	{"025_and_true_false", "λa.λb.(λp.λq.(p q p) λx.λy.x λx.λy.y a b)", "λa.λb.b"},

	// Pairs
	{"030_pair_fst", "λa.λb.(λp.(p λx.λy.x) (λx.λy.λf.(f x y) a b))", "λa.λb.a"},
	{"031_pair_snd", "λa.λb.(λp.(p λx.λy.y) (λx.λy.λf.(f x y) a b))", "λa.λb.b"},

	// Let bindings and definitions
	{"040_let_simple", "λa.@x a x", "λa.a"},
	{"041_let_id", "λa.@i λx.x (i a)", "λa.a"},
	{"042_let_nested", "λa.λb.@x a @y b x", "λa.λb.a"},
	{"043_let_shadow", "λa.λb.@x a @x b x", "λa.λb.b"},
	{"044_definitions", "$I λx.x $K λx.λy.x λa.(K a (I a))", "λa.a"},

	// Sharing
	{"050_deep_app", "(λx.(x x x) λy.y)", "λy.y"},
	{"051_share_app", "λx.(λf.(f (f x)) λy.y)", "λx.x"},
	{"070_share_complex", "λa.(λx.(x (x a)) λy.y)", "λa.a"},
	{"071_erase_shared", "λa.λb.(λx.λy.y (λz.z a) b)", "λa.λb.b"},
	{"072_self_app", "(λx.(x x) λy.y)", "λy.y"},

	// Nested lambdas
	{"080_nested_1", "λx.λy.λz.(x y z)", "λx.λy.λz.(x y z)"},
	{"081_nested_app", "λa.λb.(λx.λy.(x y) a b)", "λa.λb.(a b)"},

	// Mixed
	{"100_mixed_1", "λa.(λx.x (λy.y a))", "λa.a"},
	// the lazy strategy never touches the erased Ω
	{"101_erase_omega", "(λx.λy.y (λx.(x x) λx.(x x)))", "λy.y"},
}

func main() {
	baseDir := flag.String("dir", "cmd/gentests/generated", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*baseDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	generated := 0
	for _, tc := range tests {
		inTerm, err := lambda.Parse(tc.Input)
		if err != nil {
			fmt.Printf("Error parsing input for %s: %v\n", tc.Name, err)
			continue
		}
		outTerm, err := lambda.Parse(tc.Output)
		if err != nil {
			fmt.Printf("Error parsing output for %s: %v\n", tc.Name, err)
			continue
		}

		dir := filepath.Join(*baseDir, tc.Name)
		files := map[string]string{
			"input.lam":         lambda.Print(inTerm) + "\n",
			"output.lam":        lambda.Print(outTerm) + "\n",
			"reduction_test.go": fmt.Sprintf(testTemplate, tc.Name, tc.Name),
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
		}
		generated++
	}

	fmt.Printf("Generated %d tests\n", generated)
}
