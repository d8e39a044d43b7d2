package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const moveSchema = `{
  "type": "object",
  "required": ["actor", "to"],
  "properties": {
    "actor": {"type": "string"},
    "to": {"type": "string"},
    "method": {"enum": ["walk", "run", "sneak"], "default": "walk"},
    "cost": {"type": "number"},
    "ignore_adjacency": {"type": "boolean"}
  }
}`

func moveTool() Tool {
	return Tool{
		ID:           Move,
		Description:  "Move the actor to an adjacent zone.",
		ArgSchema:    compileSchema(Move, moveSchema),
		KeywordHints: []string{"go", "move", "walk", "run", "sneak to", "head"},
		Precondition: func(gs *world.GameState, utterance string) bool {
			return mentionsAdjacentZone(gs, gs.CurrentActor, utterance)
		},
		SuggestArgs: func(gs *world.GameState, utterance string) map[string]any {
			e, ok := gs.Entities[gs.CurrentActor]
			if !ok {
				return nil
			}
			zone, ok := gs.Zones[e.CurrentZone]
			if !ok {
				return nil
			}
			lower := utterance
			for _, ex := range zone.Exits {
				if containsAny(lower, []string{ex.To}) {
					return map[string]any{"actor": gs.CurrentActor, "to": ex.To}
				}
			}
			return map[string]any{"actor": gs.CurrentActor}
		},
	}
}
