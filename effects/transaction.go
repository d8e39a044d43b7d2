package effects

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/duskward/ttrpgcore/internal/condition"
	"github.com/duskward/ttrpgcore/world"
)

// TransactionMode selects the failure-handling policy for apply_effects.
type TransactionMode string

const (
	ModeStrict     TransactionMode = "strict"
	ModePartial    TransactionMode = "partial"
	ModeBestEffort TransactionMode = "best_effort"
)

// ApplyOptions configures one apply_effects call.
type ApplyOptions struct {
	Actor         string
	Transactional bool
	Mode          TransactionMode
	Seed          int64
}

// ApplyResult is the outcome of apply_effects: every log entry produced
// (timed drain + primary + reactive), the audit summary, and an aggregated
// narration hint.
type ApplyResult struct {
	OK            bool
	Logs          []world.LogEntry
	DiffSummary   string
	ErrorMessage  string
	NarrationHint map[string]any
}

type stateSnapshot struct {
	entities       map[string]world.Entity
	clocks         map[string]world.Clock
	scene          world.Scene
}

func snapshotState(gs *world.GameState) stateSnapshot {
	entities := make(map[string]world.Entity, len(gs.Entities))
	for id, e := range gs.Entities {
		entities[id] = e.Clone()
	}
	clocks := make(map[string]world.Clock, len(gs.Clocks))
	for id, c := range gs.Clocks {
		clocks[id] = c.Clone()
	}
	return stateSnapshot{entities: entities, clocks: clocks, scene: gs.Scene.Clone()}
}

func (s stateSnapshot) restore(gs *world.GameState) {
	gs.Entities = s.entities
	gs.Clocks = s.clocks
	gs.Scene = s.scene
}

// ApplyEffects implements spec §4.F's apply_effects transaction contract:
// timed drain, pre-validation, optional snapshot, the apply pass, the
// reactive pass (depth-capped), and finalization into the scene's audit log.
func (en *Engine) ApplyEffects(gs *world.GameState, effectsIn []world.Effect, opts ApplyOptions) ApplyResult {
	if opts.Mode == "" {
		opts.Mode = ModeStrict
	}
	round := gs.Scene.Round
	baseCtx := EvalCtx{Actor: opts.Actor, Round: round, Seed: opts.Seed, RNG: rand.New(rand.NewSource(opts.Seed))}

	var allLogs []world.LogEntry

	// Step 1: timed drain.
	allLogs = append(allLogs, en.drainPendingEffects(gs, baseCtx)...)

	// Step 2: pre-validation.
	var validEffects []world.Effect
	for _, e := range effectsIn {
		if err := validate(gs, e); err != nil {
			if opts.Mode == ModeStrict {
				return ApplyResult{OK: false, Logs: allLogs, ErrorMessage: err.Error()}
			}
			allLogs = append(allLogs, world.LogEntry{
				Type: e.Type, Target: e.Target, OK: false, Skipped: true,
				Error: err.Error(), Summary: "dropped: " + err.Error(), Round: round, Actor: opts.Actor,
			})
			continue
		}
		validEffects = append(validEffects, e)
	}

	// Step 3: snapshot.
	var snap stateSnapshot
	if opts.Transactional {
		snap = snapshotState(gs)
	}

	// Step 4: apply pass.
	var primaryLogs []world.LogEntry
	scheduledCount := 0
	for _, e := range validEffects {
		preCtx := buildPreConditionContext(gs, e, round)
		if ok, err := condition.Eval(e.Condition, preCtx); err != nil || !ok {
			primaryLogs = append(primaryLogs, world.LogEntry{
				Type: e.Type, Target: e.Target, OK: true, Skipped: true,
				Summary: "condition not met, skipped", Round: round, Actor: opts.Actor,
			})
			continue
		}

		if e.AfterRounds > 0 {
			scheduledCount++
			pe := world.PendingEffect{
				ID:           fmt.Sprintf("timed_%d_%d", opts.Seed, scheduledCount),
				Effect:       e,
				TriggerRound: round + e.AfterRounds,
				ScheduledAt:  round,
				Actor:        opts.Actor,
				Seed:         opts.Seed,
			}
			gs.Scene.PendingEffects = append(gs.Scene.PendingEffects, pe)
			primaryLogs = append(primaryLogs, world.LogEntry{
				Type: e.Type, Target: e.Target, OK: true, Scheduled: true,
				Summary: fmt.Sprintf("scheduled %s for round %d", pe.ID, pe.TriggerRound),
				Round:   round, Actor: opts.Actor,
			})
			continue
		}

		log := en.dispatch(gs, e, baseCtx)
		primaryLogs = append(primaryLogs, log)

		if !log.OK {
			switch opts.Mode {
			case ModeStrict:
				if opts.Transactional {
					snap.restore(gs)
				}
				allLogs = append(allLogs, primaryLogs...)
				return ApplyResult{OK: false, Logs: allLogs, ErrorMessage: log.Error}
			case ModePartial, ModeBestEffort:
				// continue; no per-effect rollback in this version.
			}
		}
	}
	allLogs = append(allLogs, primaryLogs...)

	// Step 5: reactive pass.
	reactiveLogs := en.runReactions(gs, primaryLogs, baseCtx, 1)
	allLogs = append(allLogs, reactiveLogs...)

	// Step 6: finalize.
	gs.Scene.LastEffectLog = append(gs.Scene.LastEffectLog, allLogs...)
	summary := diffSummary(round, opts.Actor, allLogs)
	gs.Scene.LastDiffSummary = summary

	return ApplyResult{
		OK:            true,
		Logs:          allLogs,
		DiffSummary:   summary,
		NarrationHint: narrationHint(allLogs),
	}
}

// drainPendingEffects applies every scheduled effect whose trigger round has
// arrived, as a nested single-effect transaction, and removes them from the
// queue; effects not yet due remain.
func (en *Engine) drainPendingEffects(gs *world.GameState, baseCtx EvalCtx) []world.LogEntry {
	var due []world.PendingEffect
	var notYet []world.PendingEffect
	for _, pe := range gs.Scene.PendingEffects {
		if pe.TriggerRound <= gs.Scene.Round {
			due = append(due, pe)
		} else {
			notYet = append(notYet, pe)
		}
	}
	gs.Scene.PendingEffects = notYet

	var logs []world.LogEntry
	for _, pe := range due {
		ctx := EvalCtx{Actor: pe.Actor, Round: gs.Scene.Round, Seed: pe.Seed, RNG: rand.New(rand.NewSource(pe.Seed))}
		log := en.dispatch(gs, pe.Effect, ctx)
		logs = append(logs, log)
		logs = append(logs, en.runReactions(gs, []world.LogEntry{log}, ctx, 1)...)
	}
	return logs
}

// buildPreConditionContext builds the restricted evaluation context for an
// effect's own Condition field, evaluated before the effect is dispatched.
func buildPreConditionContext(gs *world.GameState, e world.Effect, round int) condition.Context {
	target := map[string]any{}
	if ent, ok := gs.Entities[e.Target]; ok && ent.Living != nil {
		target["hp"] = map[string]any{"current": ent.Living.HP.Current, "max": ent.Living.HP.Max}
		target["guard"] = ent.Living.Guard
		target["tags"] = ent.Tags
		marks := make([]string, 0, len(ent.Living.Marks))
		for _, m := range ent.Living.Marks {
			marks = append(marks, m.Tag)
		}
		target["marks"] = marks
	}
	return condition.Context{
		"target": target,
		"scene":  map[string]any{"round": round, "turn_index": gs.Scene.TurnIndex},
		"effect": map[string]any{"type": string(e.Type), "target": e.Target, "source": e.Source, "cause": e.Cause},
	}
}

// diffSummary renders spec's "[Round N] [actor] target.field: before -> after" line.
func diffSummary(round int, actor string, logs []world.LogEntry) string {
	var parts []string
	for _, l := range logs {
		if !l.OK || l.Skipped || l.Scheduled {
			continue
		}
		parts = append(parts, l.Summary)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("[Round %d] [%s] no changes", round, actor)
	}
	return fmt.Sprintf("[Round %d] [%s] %s", round, actor, strings.Join(parts, ", "))
}

func narrationHint(logs []world.LogEntry) map[string]any {
	var summaries []string
	impact := 0
	for _, l := range logs {
		if l.Summary != "" {
			summaries = append(summaries, l.Summary)
		}
		impact += l.ImpactLevel
	}
	return map[string]any{
		"summary":       strings.Join(summaries, "; "),
		"tone_tags":     []string{},
		"sentences_max": 3,
		"impact_total":  impact,
	}
}
