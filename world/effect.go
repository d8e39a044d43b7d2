package world

// EffectType discriminates an Effect atom. The effect engine's dispatch
// registry keys off this value; unrecognized values are accepted at ingress
// and skipped gracefully rather than rejected, per the forward-compatibility
// requirement.
type EffectType string

const (
	EffectHP        EffectType = "hp"
	EffectGuard     EffectType = "guard"
	EffectPosition  EffectType = "position"
	EffectMark      EffectType = "mark"
	EffectInventory EffectType = "inventory"
	EffectClock     EffectType = "clock"
	EffectTag       EffectType = "tag"
	EffectResource  EffectType = "resource"
	EffectNoise     EffectType = "noise"
	EffectMeta      EffectType = "meta"
)

// Effect is the common envelope for every effect atom. Type-specific data
// (delta, to, add/remove, intensity, ...) lives in Fields, keyed by the
// field name documented per type in the effect atom table; the effects
// package provides typed accessors over Fields so call sites never probe it
// directly with ad-hoc type assertions scattered around the codebase.
type Effect struct {
	Type      EffectType
	Target    string
	Source    string
	Cause     string
	Condition string

	// AfterRounds, when > 0, causes the effect to be scheduled as a
	// PendingEffect instead of applied immediately.
	AfterRounds int
	Note        string

	Fields map[string]any
}

// Field reads a named field out of Fields, returning (nil, false) if Fields
// is nil or the key is absent.
func (e Effect) Field(name string) (any, bool) {
	if e.Fields == nil {
		return nil, false
	}
	v, ok := e.Fields[name]
	return v, ok
}

// WithField returns a copy of e with name set to value in Fields.
func (e Effect) WithField(name string, value any) Effect {
	out := e
	out.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	out.Fields[name] = value
	return out
}

// Clone returns a deep-enough copy of e for transaction snapshots; Fields
// values are assumed immutable once stored (ints, strings, float64) so a
// shallow map copy suffices.
func (e Effect) Clone() Effect {
	out := e
	out.Fields = make(map[string]any, len(e.Fields))
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	return out
}

// PendingEffect is a scheduled effect awaiting its trigger round, stored in
// Scene.PendingEffects (a FIFO queue by insertion order).
type PendingEffect struct {
	ID           string
	Effect       Effect
	TriggerRound int
	ScheduledAt  int
	Actor        string
	Seed         int64
}

// LogEntry records one dispatched effect atom's before/after state for the
// audit log and for strict-mode rollback accounting.
type LogEntry struct {
	Type        EffectType
	Target      string
	OK          bool
	Error       string
	Before      map[string]any
	After       map[string]any
	Timestamp   string
	Actor       string
	Seed        int64
	Round       int
	Rolled      []int
	Summary     string
	ImpactLevel int
	Skipped     bool
	Scheduled   bool
}
