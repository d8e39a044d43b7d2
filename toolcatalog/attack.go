package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const attackSchema = `{
  "type": "object",
  "required": ["actor", "target"],
  "properties": {
    "actor": {"type": "string"},
    "target": {"type": "string"},
    "weapon": {"type": "string", "default": "basic_melee"},
    "damage_expr": {"type": "string", "default": "1d6"},
    "style": {"type": "integer", "minimum": 0, "maximum": 3, "default": 1},
    "domain": {"enum": ["d4", "d6", "d8", "d10"], "default": "d6"},
    "dc_hint": {"type": "integer", "minimum": 5, "maximum": 25, "default": 12},
    "adv_style_delta": {"type": "integer", "minimum": -1, "maximum": 1, "default": 0},
    "consume_mark": {"type": "boolean", "default": true},
    "attack_mode": {"enum": ["normal", "scroll"], "default": "normal"}
  }
}`

func attackTool() Tool {
	return Tool{
		ID:           Attack,
		Description:  "Attack a visible hostile with a weapon or improvised damage.",
		ArgSchema:    compileSchema(Attack, attackSchema),
		KeywordHints: []string{"attack", "charge", "strike", "hit", "fight"},
		Precondition: func(gs *world.GameState, utterance string) bool {
			return actorHasWeapon(gs, gs.CurrentActor) && actorHasVisibleNPC(gs, gs.CurrentActor)
		},
	}
}
