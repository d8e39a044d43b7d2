// Package toolcatalog holds the static tool registry: one record per tool
// with its description, precondition predicate, and JSON-schema-validated
// argument shape.
package toolcatalog

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/duskward/ttrpgcore/world"
)

// Precondition evaluates whether a tool may be offered for the given world
// state and raw utterance.
type Precondition func(gs *world.GameState, utterance string) bool

// SuggestArgs produces a best-effort starting argument map for a tool given
// the world and utterance; the affordance filter layers further enrichment
// on top of its output.
type SuggestArgs func(gs *world.GameState, utterance string) map[string]any

// Tool is a static catalog record.
type Tool struct {
	ID            string
	Description   string
	Precondition  Precondition
	ArgSchema     *jsonschema.Schema
	SuggestArgs   SuggestArgs
	KeywordHints  []string // used by the affordance filter's confidence score
}

const (
	AskRoll       = "ask_roll"
	Move          = "move"
	Attack        = "attack"
	Talk          = "talk"
	UseItem       = "use_item"
	GetInfo       = "get_info"
	NarrateOnly   = "narrate_only"
	ApplyEffects  = "apply_effects"
	AskClarifying = "ask_clarifying"
)

// rawSchemas holds each tool's uncompiled JSON schema literal, keyed by tool
// id, so planner adapters can hand a provider's tool-definition encoder a
// plain JSON document instead of reaching into the compiled
// *jsonschema.Schema internals.
var rawSchemas = make(map[string]string)

func compileSchema(id, raw string) *jsonschema.Schema {
	rawSchemas[id] = raw
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic("toolcatalog: invalid schema literal for " + id + ": " + err.Error())
	}
	if err := c.AddResource(id, doc); err != nil {
		panic("toolcatalog: add resource for " + id + ": " + err.Error())
	}
	schema, err := c.Compile(id)
	if err != nil {
		panic("toolcatalog: compile schema for " + id + ": " + err.Error())
	}
	return schema
}

// RawSchema returns the uncompiled JSON schema document for the given tool
// id, and false if the catalog has not been built yet (Catalog must be
// called at least once first) or the id is unknown.
func RawSchema(id string) (string, bool) {
	raw, ok := rawSchemas[id]
	return raw, ok
}

// Catalog returns the static tool registry keyed by tool id. It is rebuilt
// (schemas recompiled) on every call so callers never share mutable
// compiler state; construct it once and reuse the result.
func Catalog() map[string]Tool {
	tools := []Tool{
		askRollTool(),
		moveTool(),
		attackTool(),
		talkTool(),
		useItemTool(),
		getInfoTool(),
		narrateOnlyTool(),
		applyEffectsTool(),
		askClarifyingTool(),
	}
	out := make(map[string]Tool, len(tools))
	for _, t := range tools {
		out[t.ID] = t
	}
	return out
}

// actionVerbs is the keyword set ask_roll's precondition consults.
var actionVerbs = []string{"sneak", "persuade", "athletics", "shove", "climb", "hide", "jump"}

func containsAny(utterance string, words []string) bool {
	lower := strings.ToLower(utterance)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func actorAlive(gs *world.GameState, actorID string) bool {
	e, ok := gs.Entities[actorID]
	return ok && e.Alive()
}

func actorHasTalked(gs *world.GameState, actorID string) bool {
	e, ok := gs.Entities[actorID]
	return ok && e.Living != nil && e.Living.HasTalkedThisTurn
}

func actorHasWeapon(gs *world.GameState, actorID string) bool {
	e, ok := gs.Entities[actorID]
	return ok && e.Living != nil && e.Living.HasWeapon
}

func actorHasVisibleNPC(gs *world.GameState, actorID string) bool {
	e, ok := gs.Entities[actorID]
	if !ok || e.Living == nil {
		return false
	}
	for _, id := range e.Living.VisibleActors {
		if other, ok := gs.Entities[id]; ok && other.Type == world.EntityNPC {
			return true
		}
	}
	return false
}

func actorInventoryNonEmpty(gs *world.GameState, actorID string) bool {
	e, ok := gs.Entities[actorID]
	return ok && e.Living != nil && len(e.Living.Inventory) > 0
}

func mentionsAdjacentZone(gs *world.GameState, actorID, utterance string) bool {
	e, ok := gs.Entities[actorID]
	if !ok {
		return false
	}
	zone, ok := gs.Zones[e.CurrentZone]
	if !ok {
		return false
	}
	lower := strings.ToLower(utterance)
	for _, ex := range zone.Exits {
		if strings.Contains(lower, strings.ToLower(ex.To)) {
			return true
		}
		if ex.Label != "" && strings.Contains(lower, strings.ToLower(ex.Label)) {
			return true
		}
	}
	return false
}
