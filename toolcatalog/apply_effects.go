package toolcatalog

import "github.com/duskward/ttrpgcore/world"

const applyEffectsSchema = `{
  "type": "object",
  "required": ["effects"],
  "properties": {
    "effects": {"type": "array"},
    "actor": {"type": "string"},
    "transactional": {"type": "boolean", "default": true},
    "transaction_mode": {"enum": ["strict", "partial", "best_effort"], "default": "strict"},
    "seed": {"type": "integer"}
  }
}`

func applyEffectsTool() Tool {
	return Tool{
		ID:           ApplyEffects,
		Description:  "Apply a batch of effect atoms directly; usually invoked internally by other tools.",
		ArgSchema:    compileSchema(ApplyEffects, applyEffectsSchema),
		KeywordHints: nil,
		Precondition: func(gs *world.GameState, utterance string) bool { return true },
	}
}
