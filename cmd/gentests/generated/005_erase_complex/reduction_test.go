package gentests

import _ "embed"
import "testing"
import "github.com/vic/goabsal/cmd/gentests/helper"

//go:embed input.lam
var input string

//go:embed output.lam
var output string

func Test_005_erase_complex_Reduction(t *testing.T) {
	helper.CheckReduction(t, "005_erase_complex", input, output)
}
