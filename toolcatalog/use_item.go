package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const useItemSchema = `{
  "type": "object",
  "required": ["actor", "item_id", "method"],
  "properties": {
    "actor": {"type": "string"},
    "item_id": {"type": "string"},
    "target": {},
    "method": {"enum": ["consume", "activate", "equip", "read"]},
    "charges": {"type": "integer", "default": 1, "minimum": 1},
    "confirmed": {"type": "boolean", "default": false}
  }
}`

func useItemTool() Tool {
	return Tool{
		ID:           UseItem,
		Description:  "Use, consume, equip, or read an item from the actor's inventory.",
		ArgSchema:    compileSchema(UseItem, useItemSchema),
		KeywordHints: []string{"use", "drink", "read", "equip", "consume", "apply"},
		Precondition: func(gs *world.GameState, utterance string) bool {
			return actorInventoryNonEmpty(gs, gs.CurrentActor)
		},
	}
}
