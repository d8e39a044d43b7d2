package validator

import "testing"

func TestSanitizeTrimsLowercasesAndClamps(t *testing.T) {
	in := map[string]any{
		"actor":   "  pc.arin  ",
		"domain":  "D8",
		"style":   5,
		"dc_hint": 1,
		"untouched": 42,
	}
	out := sanitize(in)

	if out["actor"] != "pc.arin" {
		t.Errorf("actor = %q, want trimmed", out["actor"])
	}
	if out["domain"] != "d8" {
		t.Errorf("domain = %q, want lowercased", out["domain"])
	}
	if out["style"] != 3 {
		t.Errorf("style = %v, want clamped to 3", out["style"])
	}
	if out["dc_hint"] != 5 {
		t.Errorf("dc_hint = %v, want clamped to 5", out["dc_hint"])
	}
	if out["untouched"] != 42 {
		t.Errorf("untouched = %v, want passthrough", out["untouched"])
	}
	if in["actor"] != "  pc.arin  " {
		t.Errorf("sanitize mutated the input map")
	}
}

func TestSanitizeLeavesMissingOptionalFieldsAbsent(t *testing.T) {
	out := sanitize(map[string]any{"actor": "pc.arin"})
	if _, ok := out["domain"]; ok {
		t.Errorf("domain should be absent when not provided")
	}
	if _, ok := out["style"]; ok {
		t.Errorf("style should be absent when not provided")
	}
}
