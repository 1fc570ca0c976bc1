package lambda

import "testing"

func TestPrint(t *testing.T) {
	x, y, f := &Var{Name: "x"}, &Var{Name: "y"}, &Var{Name: "f"}
	tests := []struct {
		term     Term
		expected string
	}{
		{x, "x"},
		{&Lam{Param: "x", Body: x}, "λx.x"},
		{Apply(f, x, y), "(f x y)"},
		{Apply(f, Apply(x, y)), "(f (x y))"},
		{Apply(&Lam{Param: "x", Body: x}, y), "(λx.x y)"},
		{&Lam{Param: "x", Body: Apply(x, x)}, "λx.(x x)"},
		{&Let{Name: "f", Value: &Lam{Param: "y", Body: y}, Body: Apply(f, f)}, "@f λy.y (f f)"},
		{Apply(&Let{Name: "x", Value: y, Body: x}, f), "(@x y x f)"},
	}

	for _, tt := range tests {
		if got := Print(tt.term); got != tt.expected {
			t.Errorf("Print = %q, expected %q", got, tt.expected)
		}
		if got := tt.term.String(); got != tt.expected {
			t.Errorf("String = %q, expected %q", got, tt.expected)
		}
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	sources := []string{
		"λx.x",
		"λf.λx.(f (f (f x)))",
		"λa.λb.(a λc.(c b) (b a))",
		"(λx.(x x) λy.y)",
		"@i λx.x λy.(y i i)",
		"@a λx.x @b (a a) λy.(b y)",
		"λs.@p0 s @p1 λx.(p0 (p0 x)) λz.(p1 z)",
	}
	for _, src := range sources {
		term := mustParse(t, src)
		printed := Print(term)
		again, err := Parse(printed)
		if err != nil {
			t.Errorf("%q printed as %q which does not parse: %v", src, printed, err)
			continue
		}
		if !AlphaEqual(term, again) {
			t.Errorf("%q changed after print/parse: %q", src, Print(again))
		}
		if Print(again) != printed {
			t.Errorf("printing is not stable: %q then %q", printed, Print(again))
		}
	}
}

func TestSize(t *testing.T) {
	term := mustParse(t, "λf.λx.(f (f x))")
	// two λ, two applications, three variables
	if got := Size(term); got != 7 {
		t.Errorf("expected size 7, got %d", got)
	}
}
