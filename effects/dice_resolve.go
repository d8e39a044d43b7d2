package effects

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/duskward/ttrpgcore/internal/dice"
)

// resolveDelta interprets an effect field value as a signed integer delta:
// a plain int/int64/float64 passes through; a string is either a dice
// expression (evaluated against rng, with individual die results returned
// for the audit log) or a plain integer literal.
func resolveDelta(raw any, rng *rand.Rand) (delta int, rolled []int, err error) {
	switch v := raw.(type) {
	case int:
		return v, nil, nil
	case int64:
		return int(v), nil, nil
	case float64:
		return int(v), nil, nil
	case string:
		if dice.IsDiceExpr(v) {
			res, err := dice.Eval(v, rng)
			if err != nil {
				return 0, nil, err
			}
			return res.Total, flattenRolls(res), nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, nil, fmt.Errorf("effects: invalid delta literal %q: %w", v, err)
		}
		return n, nil, nil
	case nil:
		return 0, nil, fmt.Errorf("effects: missing delta field")
	default:
		return 0, nil, fmt.Errorf("effects: unsupported delta field type %T", raw)
	}
}

func flattenRolls(res dice.Result) []int {
	var out []int
	for _, r := range res.Rolls {
		out = append(out, r.Values...)
	}
	return out
}
