// Package affordance implements the affordance filter: for a given world
// state and raw utterance it surfaces the subset of the tool catalog worth
// offering to a planner, each annotated with a starting argument hint and a
// confidence score.
package affordance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/world"
)

// Candidate is one entry of GetCandidates' result.
type Candidate struct {
	ID          string
	Description string
	ArgsHint    map[string]any
	Confidence  float64
}

// escapeHatchConfidence is the fixed score given to narrate_only and
// ask_clarifying, which are always offered regardless of keyword match.
const escapeHatchConfidence = 0.3

// baseConfidence and keywordWeight parameterize the scoring formula in
// spec §4.D step 3: base 0.5 + 0.2 * keyword match count, clamped [0,1].
const (
	baseConfidence = 0.5
	keywordWeight  = 0.2
)

// OnError, when set, receives the tool id and recovered panic/error for any
// tool hook that fails; the filter itself never raises. Nil is a valid,
// silent default.
type OnError func(toolID string, err any)

// Filter evaluates the tool catalog against world state and produces
// offered candidates. It is constructed once and reused; it holds no
// mutable state beyond the static catalog.
type Filter struct {
	catalog map[string]toolcatalog.Tool
	onError OnError
}

// NewFilter builds a Filter over toolcatalog.Catalog(). onError may be nil.
func NewFilter(onError OnError) *Filter {
	return &Filter{catalog: toolcatalog.Catalog(), onError: onError}
}

// GetCandidates returns the list of tools whose precondition holds for
// (gs, utterance), each enriched per spec §4.D, sorted by descending
// confidence (ties broken by catalog iteration order — stable because Go
// map iteration order is randomized per-run but sort.SliceStable preserves
// the order candidates were appended in, which follows a fixed tool list).
func (f *Filter) GetCandidates(gs *world.GameState, utterance string) []Candidate {
	var out []Candidate
	for _, id := range orderedToolIDs() {
		tool, ok := f.catalog[id]
		if !ok {
			continue
		}
		cand, included := f.evaluate(tool, gs, utterance)
		if included {
			out = append(out, cand)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// orderedToolIDs fixes catalog iteration order so tie-breaking by
// "iteration order" (spec §4.D) is deterministic across runs.
func orderedToolIDs() []string {
	return []string{
		toolcatalog.AskRoll,
		toolcatalog.Move,
		toolcatalog.Attack,
		toolcatalog.Talk,
		toolcatalog.UseItem,
		toolcatalog.GetInfo,
		toolcatalog.NarrateOnly,
		toolcatalog.ApplyEffects,
		toolcatalog.AskClarifying,
	}
}

func isEscapeHatch(id string) bool {
	return id == toolcatalog.NarrateOnly || id == toolcatalog.AskClarifying
}

// evaluate runs one tool's precondition, suggest_args, enrichment, and
// confidence scoring, recovering from any panic so a single misbehaving
// hook cannot abort the whole filter.
func (f *Filter) evaluate(tool toolcatalog.Tool, gs *world.GameState, utterance string) (cand Candidate, included bool) {
	defer func() {
		if r := recover(); r != nil {
			if f.onError != nil {
				f.onError(tool.ID, r)
			}
			cand, included = Candidate{}, false
		}
	}()

	eligible := isEscapeHatch(tool.ID)
	if !eligible && tool.Precondition != nil {
		eligible = tool.Precondition(gs, utterance)
	}
	if !eligible {
		return Candidate{}, false
	}

	hint := map[string]any{}
	if tool.SuggestArgs != nil {
		if suggested := tool.SuggestArgs(gs, utterance); suggested != nil {
			for k, v := range suggested {
				hint[k] = v
			}
		}
	}
	enrich(tool.ID, gs, utterance, hint)

	return Candidate{
		ID:          tool.ID,
		Description: tool.Description,
		ArgsHint:    hint,
		Confidence:  confidence(tool, utterance),
	}, true
}

// confidence implements spec §4.D step 3.
func confidence(tool toolcatalog.Tool, utterance string) float64 {
	if isEscapeHatch(tool.ID) {
		return escapeHatchConfidence
	}
	matches := keywordMatchCount(utterance, tool.KeywordHints)
	score := baseConfidence + keywordWeight*float64(matches)
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

func keywordMatchCount(utterance string, keywords []string) int {
	lower := strings.ToLower(utterance)
	count := 0
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(k)) {
			count++
		}
	}
	return count
}

// enrich applies the tool-specific args_hint adjustments named in spec
// §4.D step 2. Unknown tool ids are left untouched.
func enrich(toolID string, gs *world.GameState, utterance string, hint map[string]any) {
	switch toolID {
	case toolcatalog.AskRoll:
		enrichAskRoll(gs, hint)
	case toolcatalog.Move:
		enrichMove(utterance, hint)
	case toolcatalog.Talk:
		enrichTalk(utterance, hint)
	case toolcatalog.AskClarifying:
		enrichAskClarifying(gs, hint)
	}
}

// enrichAskRoll sets ask_roll's dc_hint: it starts from the hint's dc_hint
// (or Scene.BaseDC when unset), subtracts 3 when the scene's alert tag is
// sleepy, and adds 2 when the scene's zone_kind tag contains "courtyard".
// The courtyard adjustment applies to every ask_roll candidate, not only
// to sneak actions.
func enrichAskRoll(gs *world.GameState, hint map[string]any) {
	dc, _ := hint["dc_hint"].(int)
	if dc == 0 {
		dc = gs.Scene.BaseDC
	}
	if gs.Scene.Tags[world.TagAlert] == string(world.AlertSleepy) {
		dc -= 3
	}
	if strings.Contains(strings.ToLower(gs.Scene.Tags["zone_kind"]), "courtyard") {
		dc += 2
	}
	hint["dc_hint"] = dc
}

var moveStyleKeywords = map[string][]string{
	"sneak": {"sneak", "creep", "quietly", "stealth"},
	"run":   {"run", "sprint", "dash", "rush"},
}

func enrichMove(utterance string, hint map[string]any) {
	lower := strings.ToLower(utterance)
	style := "walk"
	for _, candidate := range []string{"sneak", "run"} {
		for _, kw := range moveStyleKeywords[candidate] {
			if strings.Contains(lower, kw) {
				style = candidate
			}
		}
	}
	hint["movement_style"] = style
}

func enrichTalk(utterance string, hint map[string]any) {
	if _, ok := hint["topic"]; ok {
		return
	}
	for _, verb := range []string{"say", "tell", "ask", "whisper", "shout"} {
		idx := strings.Index(strings.ToLower(utterance), verb+" ")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(utterance[idx+len(verb)+1:])
		if rest != "" {
			hint["topic"] = rest
			return
		}
	}
}

func enrichAskClarifying(gs *world.GameState, hint map[string]any) {
	adjacent, _ := hint["adjacent_zones"].([]string)
	visible, _ := hint["visible_actors"].([]string)
	question := "What would you like to do?"
	switch {
	case len(visible) > 0 && len(adjacent) > 0:
		question = fmt.Sprintf("Do you want to deal with %s, or head toward %s?", strings.Join(visible, " or "), strings.Join(adjacent, " or "))
	case len(visible) > 0:
		question = fmt.Sprintf("Do you want to interact with %s?", strings.Join(visible, " or "))
	case len(adjacent) > 0:
		question = fmt.Sprintf("Which way do you want to go: %s?", strings.Join(adjacent, " or "))
	}
	hint["question"] = question
}
