package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const narrateOnlySchema = `{
  "type": "object",
  "properties": {
    "actor": {"type": "string"},
    "topic": {"type": "string"}
  }
}`

func narrateOnlyTool() Tool {
	return Tool{
		ID:           NarrateOnly,
		Description:  "Produce descriptive prose without mutating the world; the universal escape hatch.",
		ArgSchema:    compileSchema(NarrateOnly, narrateOnlySchema),
		KeywordHints: []string{"look around", "listen", "smell", "recap"},
		Precondition: func(gs *world.GameState, utterance string) bool { return true },
	}
}
