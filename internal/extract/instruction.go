package extract

import (
	"fmt"
	"strings"
)

// BuildInstruction returns the fixed system instruction for a rule table.
// The concept list is the only variable part, so the instruction (and the
// cache key derived from it) changes only when the rules do.
func BuildInstruction(concepts []string) string {
	var b strings.Builder

	b.WriteString(`You extract regulatory capital figures from short scenario descriptions for the COREP Own Funds template (C 01.00).

Return ONLY a JSON object of this exact shape, with no prose and no markdown:
{"facts":[{"concept":"<concept>","amount":<number>,"unit":"<unit>","source_text":"<verbatim phrase>"}]}

RULES:
1. concept MUST be copied from this list when the scenario mentions it:
`)
	if len(concepts) == 0 {
		b.WriteString("   (no concepts configured)\n")
	}
	for _, c := range concepts {
		fmt.Fprintf(&b, "   - %s\n", c)
	}
	b.WriteString(`   If a figure matches none of them, use the scenario's own wording.
2. amount is the number as stated, without currency symbols or separators (e.g. "£50M" -> 50).
3. unit is one of: "none", "thousand", "million", "billion", matching the scale stated next to the amount.
4. amounts are never negative. Deductions are stated as positive amounts; do not apply signs.
5. source_text is the shortest phrase of the scenario that states the figure.
6. Do not invent figures that are not in the scenario. If there are none, return {"facts":[]}.`)

	return b.String()
}
