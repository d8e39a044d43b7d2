package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const askRollSchema = `{
  "type": "object",
  "required": ["actor", "action"],
  "properties": {
    "actor": {"type": "string"},
    "action": {"enum": ["sneak", "persuade", "athletics", "shove", "custom"]},
    "target": {"type": "string"},
    "zone_target": {"type": "string"},
    "style": {"type": "integer", "minimum": 0, "maximum": 3, "default": 1},
    "domain": {"enum": ["d4", "d6", "d8", "d10"], "default": "d6"},
    "dc_hint": {"type": "integer", "minimum": 5, "maximum": 25, "default": 12},
    "adv_style_delta": {"type": "integer", "minimum": -1, "maximum": 1, "default": 0},
    "context": {"type": "string"}
  }
}`

func askRollTool() Tool {
	return Tool{
		ID:           AskRoll,
		Description:  "Resolve an ability check against a difficulty class.",
		ArgSchema:    compileSchema(AskRoll, askRollSchema),
		KeywordHints: []string{"sneak", "persuade", "try", "attempt", "climb", "shove"},
		Precondition: func(gs *world.GameState, utterance string) bool {
			if gs.PendingAction != "" {
				return true
			}
			return containsAny(utterance, actionVerbs)
		},
	}
}
