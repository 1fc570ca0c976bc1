// Package helper checks the golden reduction cases written by gentests.
package helper

import (
	"strings"
	"testing"
	"time"

	"github.com/vic/goabsal/pkg/inet"
	"github.com/vic/goabsal/pkg/lambda"
)

// CheckReduction reduces input to normal form and compares it with output
// up to renaming of bound variables. The exhaustive strategy must agree
// whenever it terminates within a generous budget.
func CheckReduction(t *testing.T, testName string, input string, output string) {
	t.Helper()

	expected, err := lambda.Parse(strings.TrimSpace(output))
	if err != nil {
		t.Fatalf("Parse error for expected output: %v", err)
	}
	term, err := lambda.Parse(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	net, err := lambda.Compile(term)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	start := time.Now()
	res := net.Reduce()
	elapsed := time.Since(start)
	if err := net.Verify(); err != nil {
		t.Fatalf("%s: net inconsistent after reduction: %v", testName, err)
	}

	actual, err := lambda.Decompile(net)
	if err != nil {
		t.Fatalf("%s: Decompile error: %v", testName, err)
	}
	if !lambda.AlphaEqual(actual, expected) {
		t.Errorf("Mismatch in %s:\nInput:    %s\nExpected: %s\nActual:   %s", testName, input, lambda.Print(expected), lambda.Print(actual))
	}
	if _, err := lambda.Parse(lambda.Print(actual)); err != nil {
		t.Errorf("%s: printed result does not parse: %v", testName, err)
	}

	exhaustive, err := lambda.Compile(term)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	budget := 100*res.Rewrites + 1000
	eres := exhaustive.Reduce(inet.WithStrategy(inet.StrategyFIFO), inet.WithBudget(budget))
	if eres.BudgetExceeded() {
		t.Logf("%s: exhaustive reduction did not finish in %d rewrites", testName, budget)
	} else {
		other, err := lambda.Decompile(exhaustive)
		if err != nil {
			t.Fatalf("%s: Decompile error after exhaustive reduction: %v", testName, err)
		}
		if !lambda.AlphaEqual(other, actual) {
			t.Errorf("%s: exhaustive reduction gave %s, lazy gave %s", testName, lambda.Print(other), lambda.Print(actual))
		}
	}

	t.Logf("%s: %d rewrites in %v", testName, res.Rewrites, elapsed)
}
