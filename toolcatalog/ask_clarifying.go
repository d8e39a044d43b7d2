package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const askClarifyingSchema = `{
  "type": "object",
  "required": ["question", "options", "reason"],
  "properties": {
    "question": {"type": "string"},
    "options": {
      "type": "array",
      "minItems": 2,
      "items": {
        "type": "object",
        "required": ["id", "label", "tool_id"],
        "properties": {
          "id": {"type": "string"},
          "label": {"type": "string"},
          "tool_id": {"type": "string"},
          "args_patch": {"type": "object"}
        }
      }
    },
    "reason": {"enum": ["ambiguous_intent", "invalid_target", "missing_arg", "not_adjacent", "not_your_turn", "unknown_topic"]},
    "actor": {"type": "string"},
    "context_note": {"type": "string"},
    "expires_in_turns": {"type": "integer", "default": 1, "minimum": 1}
  }
}`

func askClarifyingTool() Tool {
	return Tool{
		ID:           AskClarifying,
		Description:  "Surface a short disambiguation choice to the player; the other universal escape hatch.",
		ArgSchema:    compileSchema(AskClarifying, askClarifyingSchema),
		KeywordHints: nil,
		Precondition: func(gs *world.GameState, utterance string) bool { return true },
		SuggestArgs: func(gs *world.GameState, utterance string) map[string]any {
			e, ok := gs.Entities[gs.CurrentActor]
			if !ok {
				return nil
			}
			zone := gs.Zones[e.CurrentZone]
			var adjacent []string
			for _, ex := range zone.Exits {
				if !ex.Blocked {
					adjacent = append(adjacent, ex.To)
				}
			}
			var visible []string
			if e.Living != nil {
				visible = e.Living.VisibleActors
			}
			return map[string]any{
				"adjacent_zones": adjacent,
				"visible_actors": visible,
			}
		},
	}
}
