package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const getInfoSchema = `{
  "type": "object",
  "required": ["topic"],
  "properties": {
    "actor": {"type": "string"},
    "target": {"type": "string"},
    "topic": {"enum": ["status", "inventory", "zone", "scene", "effects", "clocks", "relationships", "rules"]},
    "detail_level": {"enum": ["brief", "full"], "default": "brief"},
    "limit": {"type": "integer"},
    "offset": {"type": "integer", "minimum": 0, "default": 0},
    "fields": {"type": "array", "items": {"type": "string"}},
    "use_refs": {"type": "boolean", "default": false}
  }
}`

func getInfoTool() Tool {
	return Tool{
		ID:           GetInfo,
		Description:  "Read-only query over world state, scoped by topic.",
		ArgSchema:    compileSchema(GetInfo, getInfoSchema),
		KeywordHints: []string{"look", "check", "status", "inventory", "what"},
		Precondition: func(gs *world.GameState, utterance string) bool { return true },
	}
}
