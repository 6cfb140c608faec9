package narrative

import (
	"fmt"
	"strings"
)

// minTipFrequency is how many times a task name must appear in one week
// before it is worth a habit suggestion.
const minTipFrequency = 4

// InsightTip suggests a habit improvement based on the most frequent task
// name of the week. Never tips on the very first week; there is no
// routine to comment on yet. Returns "" when nothing qualifies.
func InsightTip(in Input) string {
	if len(in.History) == 0 {
		return ""
	}

	counts := make(map[string]int)
	display := make(map[string]string)
	for _, t := range in.Tasks {
		norm := normalizeName(t.Name)
		if norm == "" {
			continue
		}
		counts[norm]++
		if _, ok := display[norm]; !ok {
			display[norm] = t.Name
		}
	}

	best, bestCount := "", 0
	for norm, n := range counts {
		if n < minTipFrequency {
			continue
		}
		// Deterministic winner: highest count, lexicographic tiebreak.
		if n > bestCount || (n == bestCount && norm < best) {
			best, bestCount = norm, n
		}
	}
	if best == "" {
		return ""
	}
	return tipFor(display[best], best, bestCount)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// tipFor matches the normalized name against known habit buckets, falling
// back to a generic batching suggestion.
func tipFor(displayName, normalized string, count int) string {
	switch {
	case strings.Contains(normalized, "laundry"):
		return fmt.Sprintf("\"%s\" came up %d times this week. Two bigger loads might beat daily small ones.", displayName, count)
	case strings.Contains(normalized, "meal") || strings.Contains(normalized, "cook"):
		return fmt.Sprintf("\"%s\" came up %d times this week. A Sunday prep session could win back a few evenings.", displayName, count)
	case strings.Contains(normalized, "clean"):
		return fmt.Sprintf("\"%s\" came up %d times this week. One deeper clean might replace several quick passes.", displayName, count)
	case strings.Contains(normalized, "dish"):
		return fmt.Sprintf("\"%s\" came up %d times this week. Running the dishwasher on a schedule could make this automatic.", displayName, count)
	default:
		return fmt.Sprintf("\"%s\" came up %d times this week — could this be batched into fewer sessions?", displayName, count)
	}
}
