package validator

import "math/rand"

// RollRequest parameterizes the shared roll resolution used by ask_roll,
// talk, and attack per spec §4.E.
type RollRequest struct {
	Seed  int64
	Style int
	Domain string
	DC    int
}

// RollResult is the outcome of one resolution, including every die rolled
// so it can be surfaced verbatim in a narration hint's "dice" block.
type RollResult struct {
	D20        int
	StyleDie   int
	StyleRolls []int
	StyleSum   int
	Total      int
	DC         int
	Margin     int
	Band       string
}

func domainSides(domain string) int {
	switch domain {
	case "d4":
		return 4
	case "d8":
		return 8
	case "d10":
		return 10
	default:
		return 6
	}
}

// Resolve seeds a PRNG with req.Seed, rolls a d20 plus req.Style style dice
// of req.Domain sides, and buckets the result into an outcome band.
func Resolve(req RollRequest) RollResult {
	rng := rand.New(rand.NewSource(req.Seed))
	d20 := rng.Intn(20) + 1
	sides := domainSides(req.Domain)

	styleRolls := make([]int, 0, req.Style)
	sum := 0
	for i := 0; i < req.Style; i++ {
		v := rng.Intn(sides) + 1
		styleRolls = append(styleRolls, v)
		sum += v
	}
	total := d20 + sum
	margin := total - req.DC

	return RollResult{
		D20:        d20,
		StyleDie:   sides,
		StyleRolls: styleRolls,
		StyleSum:   sum,
		Total:      total,
		DC:         req.DC,
		Margin:     margin,
		Band:       band(d20, margin),
	}
}

func band(d20, margin int) string {
	switch {
	case d20 == 20 || margin >= 5:
		return "crit_success"
	case margin >= 0:
		return "success"
	case margin >= -3:
		return "partial"
	default:
		return "fail"
	}
}

// UpgradeScrollFail implements "attack_mode==scroll: fail upgrades to
// partial" — scrolls always at least partially succeed.
func UpgradeScrollFail(band string, scroll bool) string {
	if scroll && band == "fail" {
		return "partial"
	}
	return band
}

func (r RollResult) DiceBlock() map[string]any {
	return map[string]any{
		"d20":           r.D20,
		"style_rolls":   r.StyleRolls,
		"style_die":     r.StyleDie,
		"total":         r.Total,
		"dc":            r.DC,
		"margin":        r.Margin,
		"band":          r.Band,
		"effective_style": len(r.StyleRolls),
	}
}
