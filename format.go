package razerdoctor

import (
	"fmt"
	"strings"
)

// String returns a human-readable checklist. Suggestions are printed
// under every result that did not pass.
func (r *Report) String() string {
	var b strings.Builder

	for _, res := range r.Results {
		writeResult(&b, res)
	}
	b.WriteString("\n")

	failed := len(r.Failed())
	switch {
	case failed > 0:
		fmt.Fprintf(&b, "%d check(s) failed.\n", failed)
	default:
		b.WriteString("No problems found.\n")
	}

	return b.String()
}

func writeResult(b *strings.Builder, res CheckResult) {
	fmt.Fprintf(b, "[%-7s]  %s\n", strings.ToUpper(res.Passed.String()), res.TestName)
	if res.Passed == StatusPass {
		return
	}
	for _, s := range res.Suggestions {
		fmt.Fprintf(b, "           %s\n", s)
	}
}
