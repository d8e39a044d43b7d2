package validator

import "testing"

func TestResolveBandMatchesMarginThresholds(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		r := Resolve(RollRequest{Seed: seed, Style: 1, Domain: "d6", DC: 12})
		want := expectedBand(r.D20, r.Margin)
		if r.Band != want {
			t.Fatalf("seed %d: d20=%d margin=%d got band %q want %q", seed, r.D20, r.Margin, r.Band, want)
		}
		if r.Total != r.D20+r.StyleSum {
			t.Fatalf("seed %d: total %d != d20 %d + style_sum %d", seed, r.Total, r.D20, r.StyleSum)
		}
		if len(r.StyleRolls) != 1 {
			t.Fatalf("seed %d: expected 1 style roll, got %d", seed, len(r.StyleRolls))
		}
	}
}

func expectedBand(d20, margin int) string {
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

func TestDomainSidesMapsRecognizedDomains(t *testing.T) {
	cases := map[string]int{"d4": 4, "d6": 6, "d8": 8, "d10": 10, "unknown": 6, "": 6}
	for domain, want := range cases {
		if got := domainSides(domain); got != want {
			t.Errorf("domainSides(%q) = %d, want %d", domain, got, want)
		}
	}
}

func TestUpgradeScrollFailOnlyUpgradesFailWhenScroll(t *testing.T) {
	if got := UpgradeScrollFail("fail", true); got != "partial" {
		t.Errorf("scroll fail: got %q, want partial", got)
	}
	if got := UpgradeScrollFail("fail", false); got != "fail" {
		t.Errorf("non-scroll fail: got %q, want fail", got)
	}
	if got := UpgradeScrollFail("success", true); got != "success" {
		t.Errorf("scroll success: got %q, want success unchanged", got)
	}
}

func TestDiceBlockSurfacesEveryComponent(t *testing.T) {
	r := Resolve(RollRequest{Seed: 7, Style: 2, Domain: "d8", DC: 10})
	block := r.DiceBlock()
	if block["d20"] != r.D20 || block["total"] != r.Total || block["band"] != r.Band {
		t.Fatalf("dice block missing expected fields: %#v", block)
	}
	if block["effective_style"] != 2 {
		t.Errorf("effective_style = %v, want 2", block["effective_style"])
	}
}
