package validator

import "strings"

// sanitize applies spec §4.E step 5's non-destructive normalization: trim
// strings, lowercase domain, clamp style into [0,3], clamp dc_hint into
// [5,25]. It returns a new map; rawArgs is never mutated.
func sanitize(rawArgs map[string]any) map[string]any {
	out := make(map[string]any, len(rawArgs))
	for k, v := range rawArgs {
		if s, ok := v.(string); ok {
			out[k] = strings.TrimSpace(s)
			continue
		}
		out[k] = v
	}
	if domain, ok := out["domain"].(string); ok {
		out["domain"] = strings.ToLower(domain)
	}
	if style, ok := asIntArg(out["style"]); ok {
		out["style"] = clampIntArg(style, 0, 3)
	}
	if dc, ok := asIntArg(out["dc_hint"]); ok {
		out["dc_hint"] = clampIntArg(dc, 5, 25)
	}
	return out
}

func asIntArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func clampIntArg(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
