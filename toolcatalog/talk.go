package toolcatalog

import (
	"strings"

	"github.com/duskward/ttrpgcore/world"
)

const talkSchema = `{
  "type": "object",
  "required": ["actor", "target"],
  "properties": {
    "actor": {"type": "string"},
    "target": {},
    "intent": {"enum": ["persuade", "intimidate", "deceive", "charm", "comfort", "request", "distract"], "default": "persuade"},
    "style": {"type": "integer", "minimum": 0, "maximum": 3, "default": 1},
    "domain": {"enum": ["d4", "d6", "d8", "d10"], "default": "d6"},
    "dc_hint": {"type": "integer", "minimum": 5, "maximum": 25, "default": 12},
    "adv_style_delta": {"type": "integer", "minimum": -1, "maximum": 1, "default": 0},
    "topic": {"type": "string"}
  }
}`

func talkTool() Tool {
	return Tool{
		ID:           Talk,
		Description:  "Speak to one or more nearby living entities.",
		ArgSchema:    compileSchema(Talk, talkSchema),
		KeywordHints: []string{"say", "tell", "ask", "talk", "speak", "persuade", "convince"},
		Precondition: func(gs *world.GameState, utterance string) bool {
			return !actorHasTalked(gs, gs.CurrentActor)
		},
		SuggestArgs: func(gs *world.GameState, utterance string) map[string]any {
			if msg, ok := extractQuotedMessage(utterance); ok {
				return map[string]any{"topic": msg}
			}
			return nil
		},
	}
}

// extractQuotedMessage pulls the first double- or single-quoted substring
// out of utterance, used to populate talk's topic hint.
func extractQuotedMessage(utterance string) (string, bool) {
	for _, q := range []byte{'"', '\''} {
		start := strings.IndexByte(utterance, q)
		if start < 0 {
			continue
		}
		end := strings.IndexByte(utterance[start+1:], q)
		if end < 0 {
			continue
		}
		return utterance[start+1 : start+1+end], true
	}
	return "", false
}
