package stats

// Candidate spellings for breakdown item fields, first match wins. The
// scoring service has shipped several shapes over time and older payloads
// stay replayable, so tolerance lives here instead of at every call site.
var (
	breakdownKeyFields   = []string{"key", "metric", "stat", "label"}
	breakdownPointFields = []string{"points", "pts", "score"}
)

// NormalizeBreakdown coerces a loosely-shaped breakdown record into a
// metric->points mapping. Accepted shapes: a list of keyed items, or a map
// from metric name to an item or a bare number. Anything unresolvable
// contributes 0, never an error: a partial breakdown still explains the
// rest of the total.
func NormalizeBreakdown(raw any) Breakdown {
	out := make(Breakdown)
	switch v := raw.(type) {
	case nil:
		return out
	case []any:
		for _, item := range v {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			key, ok := firstString(fields, breakdownKeyFields)
			if !ok || key == "" {
				continue
			}
			pts, _ := firstNumber(fields, breakdownPointFields)
			out[key] += pts
		}
	case map[string]any:
		for key, item := range v {
			if key == "" {
				continue
			}
			switch entry := item.(type) {
			case map[string]any:
				pts, _ := firstNumber(entry, breakdownPointFields)
				out[key] += pts
			default:
				pts, _ := asNumber(entry)
				out[key] += pts
			}
		}
	}
	return out
}

// MergeBreakdowns sums point contributions key-wise across records. The
// merge is total-preserving and order-independent; nil records are skipped.
func MergeBreakdowns(records ...Breakdown) Breakdown {
	merged := make(Breakdown)
	for _, record := range records {
		for key, pts := range record {
			merged[key] += pts
		}
	}
	return merged
}

// Total returns the sum of all contributions.
func (b Breakdown) Total() float64 {
	var total float64
	for _, pts := range b {
		total += pts
	}
	return total
}

func firstString(fields map[string]any, candidates []string) (string, bool) {
	for _, name := range candidates {
		if v, ok := fields[name]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func firstNumber(fields map[string]any, candidates []string) (float64, bool) {
	for _, name := range candidates {
		if v, ok := fields[name]; ok {
			if n, ok := asNumber(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		// json.Number from decoders configured with UseNumber.
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
