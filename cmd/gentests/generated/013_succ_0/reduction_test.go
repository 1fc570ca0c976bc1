package gentests

import _ "embed"
import "testing"
import "github.com/vic/goabsal/cmd/gentests/helper"

//go:embed input.lam
var input string

//go:embed output.lam
var output string

func Test_013_succ_0_Reduction(t *testing.T) {
	helper.CheckReduction(t, "013_succ_0", input, output)
}
