package validator

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/duskward/ttrpgcore/effects"
	"github.com/duskward/ttrpgcore/internal/dice"
	"github.com/duskward/ttrpgcore/toolcatalog"
	"github.com/duskward/ttrpgcore/world"
	"github.com/duskward/ttrpgcore/zonegraph"
)

func dispatchHandler(toolID string, hctx handlerCtx) (ToolResult, error) {
	switch toolID {
	case toolcatalog.AskRoll:
		return handleAskRoll(hctx)
	case toolcatalog.Move:
		return handleMove(hctx)
	case toolcatalog.Attack:
		return handleAttack(hctx)
	case toolcatalog.Talk:
		return handleTalk(hctx)
	case toolcatalog.UseItem:
		return handleUseItem(hctx)
	case toolcatalog.GetInfo:
		return handleGetInfo(hctx)
	case toolcatalog.NarrateOnly:
		return handleNarrateOnly(hctx)
	case toolcatalog.ApplyEffects:
		return handleApplyEffects(hctx)
	case toolcatalog.AskClarifying:
		return handleAskClarifying(hctx)
	default:
		return ToolResult{}, fmt.Errorf("validator: no handler registered for tool %q", toolID)
	}
}

func getString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func getInt(args map[string]any, key string, def int) int {
	if v, ok := asIntArg(args[key]); ok {
		return v
	}
	return def
}

func getBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// handleAskRoll resolves a generic ability check; adv_style_delta adjusts
// the effective style die count before rolling. DC is derived from the
// scene's base_dc via DeriveDC, not taken verbatim from dc_hint; the
// outcome band drives the position/clock/mark effects the action warrants.
func handleAskRoll(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args
	actor := getString(args, "actor", gs.CurrentActor)
	action, _ := args["action"].(string)
	target, _ := args["target"].(string)
	zoneTarget, _ := args["zone_target"].(string)
	style := getInt(args, "style", 1)
	domain := getString(args, "domain", "d6")
	advDelta := getInt(args, "adv_style_delta", 0)

	dc := DeriveDC(gs, action)
	effectiveStyle := clampIntArg(style+advDelta, 0, 3)
	roll := Resolve(RollRequest{Seed: hctx.seed, Style: effectiveStyle, Domain: domain, DC: dc})

	return ToolResult{
		Facts: map[string]any{
			"actor": actor, "action": action, "target": target, "zone_target": zoneTarget,
			"dice": roll.DiceBlock(), "dc": dc,
		},
		Effects: askRollEffects(action, roll.Band, actor, target, zoneTarget),
		NarrationHint: map[string]any{
			"summary":       fmt.Sprintf("%s attempts to %s: %s", actor, action, roll.Band),
			"band":          roll.Band,
			"sentences_max": 2,
		},
	}, nil
}

// handleMove moves the actor to an adjacent zone. A "sneak" method against
// a wary/alarmed scene resolves a stealth roll first; failing it raises
// noise instead of moving.
func handleMove(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args
	actor := getString(args, "actor", gs.CurrentActor)
	to, _ := args["to"].(string)
	method := getString(args, "method", "walk")
	ignoreAdjacency := getBool(args, "ignore_adjacency", false)

	if to == "" {
		return ToolResult{}, fmt.Errorf("move: missing 'to'")
	}
	ent, ok := gs.Entities[actor]
	if !ok {
		return ToolResult{}, fmt.Errorf("move: unknown actor %q", actor)
	}
	if !ignoreAdjacency {
		zone, ok := gs.Zones[ent.CurrentZone]
		if !ok {
			return ToolResult{}, fmt.Errorf("move: unknown current zone %q", ent.CurrentZone)
		}
		if _, ok := zone.ExitTo(to); !ok {
			return ToolResult{}, fmt.Errorf("move: %q is not adjacent to %q", to, ent.CurrentZone)
		}
	}

	facts := map[string]any{"actor": actor, "to": to, "method": method}

	if method == "sneak" {
		alert := gs.Scene.Tags[world.TagAlert]
		if alert == string(world.AlertWary) || alert == string(world.AlertAlarmed) {
			roll := Resolve(RollRequest{Seed: hctx.seed, Style: 1, Domain: "d6", DC: gs.Scene.BaseDC})
			facts["dice"] = roll.DiceBlock()
			if roll.Band == "fail" {
				return ToolResult{
					Facts: facts,
					Effects: []world.Effect{{
						Type: world.EffectNoise, Target: ent.CurrentZone, Source: actor, Cause: "move:sneak_failed",
						Fields: map[string]any{"zone": ent.CurrentZone, "intensity": "loud"},
					}},
					NarrationHint: map[string]any{
						"summary":       fmt.Sprintf("%s's sneak toward %s fails and draws attention", actor, to),
						"sentences_max": 2,
					},
				}, nil
			}
		}
	}

	// A successful move reveals whatever lies beyond the destination before
	// the effect engine even commits the position change: revelation is
	// keyed off the destination zone's own exits, not the actor's stored
	// CurrentZone, so this is safe to resolve ahead of the position effect.
	revealed, err := zonegraph.RevealAdjacentZones(gs, actor, to, hctx.ex.Now())
	if err != nil {
		return ToolResult{}, fmt.Errorf("move: %w", err)
	}
	if len(revealed) > 0 {
		facts["revealed_zones"] = revealed
	}

	return ToolResult{
		Facts: facts,
		Effects: []world.Effect{{
			Type: world.EffectPosition, Target: actor, Source: actor, Cause: "move", Fields: map[string]any{"to": to},
		}},
		NarrationHint: map[string]any{"summary": fmt.Sprintf("%s moves to %s", actor, to), "sentences_max": 2},
	}, nil
}

// handleAttack resolves an attack roll. If the target carries any mark and
// consume_mark is allowed, the lowest-keyed one is consumed for a flat +1
// effective style (capped at 3) and scheduled for removal from the target;
// the outcome band then drives an hp effect scaled by band (half on
// partial, doubled on crit).
func handleAttack(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args
	actor := getString(args, "actor", gs.CurrentActor)
	target, _ := args["target"].(string)
	weapon := getString(args, "weapon", "basic_melee")
	damageExpr := getString(args, "damage_expr", "1d6")
	style := getInt(args, "style", 1)
	domain := getString(args, "domain", "d6")
	dc := getInt(args, "dc_hint", 12)
	advDelta := getInt(args, "adv_style_delta", 0)
	consumeMark := getBool(args, "consume_mark", true)
	attackMode := getString(args, "attack_mode", "normal")

	if target == "" {
		return ToolResult{}, fmt.Errorf("attack: missing 'target'")
	}
	actorEnt, ok := gs.Entities[actor]
	if !ok || actorEnt.Living == nil {
		return ToolResult{}, fmt.Errorf("attack: unknown actor %q", actor)
	}

	effectiveStyle := clampIntArg(style+advDelta, 0, 3)
	var consumedTag string
	if consumeMark {
		if targetEnt, ok := gs.Entities[target]; ok && targetEnt.Living != nil && len(targetEnt.Living.Marks) > 0 {
			keys := make([]string, 0, len(targetEnt.Living.Marks))
			for k := range targetEnt.Living.Marks {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			effectiveStyle = clampIntArg(effectiveStyle+1, 0, 3)
			consumedTag = targetEnt.Living.Marks[keys[0]].Tag
		}
	}

	roll := Resolve(RollRequest{Seed: hctx.seed, Style: effectiveStyle, Domain: domain, DC: dc})
	band := UpgradeScrollFail(roll.Band, attackMode == "scroll")

	facts := map[string]any{"actor": actor, "target": target, "weapon": weapon, "dice": roll.DiceBlock(), "band": band}

	var effectsOut []world.Effect
	if consumedTag != "" {
		effectsOut = append(effectsOut, world.Effect{
			Type: world.EffectMark, Target: target, Source: actor, Cause: "attack:consume_mark",
			Fields: map[string]any{"remove": consumedTag},
		})
	}

	if band == "fail" {
		return ToolResult{
			Facts: facts, Effects: effectsOut,
			NarrationHint: map[string]any{"summary": fmt.Sprintf("%s's attack on %s misses", actor, target), "sentences_max": 2},
		}, nil
	}

	rng := rand.New(rand.NewSource(hctx.seed ^ 0x5a5a5a5a))
	dmg, err := dice.Eval(damageExpr, rng)
	if err != nil {
		return ToolResult{}, fmt.Errorf("attack: invalid damage_expr %q: %w", damageExpr, err)
	}
	total := dmg.Total
	switch band {
	case "partial":
		total /= 2
	case "crit_success":
		total *= 2
	}
	effectsOut = append(effectsOut, world.Effect{
		Type: world.EffectHP, Target: target, Source: actor, Cause: "attack:" + weapon,
		Fields: map[string]any{"delta": -total},
	})

	return ToolResult{
		Facts:   facts,
		Effects: effectsOut,
		NarrationHint: map[string]any{
			"summary":       fmt.Sprintf("%s's attack on %s: %s", actor, target, band),
			"sentences_max": 2,
		},
	}, nil
}

// handleTalk rolls the social check against every named target and applies
// the social-outcomes table's effect templates per target.
func handleTalk(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args
	actor := getString(args, "actor", gs.CurrentActor)
	targets := toStringSlice(args["target"])
	intent := getString(args, "intent", "persuade")
	style := getInt(args, "style", 1)
	domain := getString(args, "domain", "d6")
	dc := getInt(args, "dc_hint", 12)
	advDelta := getInt(args, "adv_style_delta", 0)
	topic := getString(args, "topic", "")

	if len(targets) == 0 {
		return ToolResult{}, fmt.Errorf("talk: missing 'target'")
	}
	actorEnt, ok := gs.Entities[actor]
	if !ok {
		return ToolResult{}, fmt.Errorf("talk: unknown actor %q", actor)
	}

	effectiveStyle := clampIntArg(style+advDelta, 0, 3)
	roll := Resolve(RollRequest{Seed: hctx.seed, Style: effectiveStyle, Domain: domain, DC: dc})

	var effectsOut []world.Effect
	for _, target := range targets {
		tmpl := hctx.ex.SocialOutcomes.Lookup(intent, roll.Band)
		effectsOut = append(effectsOut, instantiateOutcome(tmpl, actor, target, actorEnt.CurrentZone)...)
	}
	if actorEnt.Living != nil {
		clone := actorEnt.Clone()
		clone.Living.HasTalkedThisTurn = true
		gs.PutEntity(clone)
	}

	return ToolResult{
		Facts: map[string]any{
			"actor": actor, "target": targets, "intent": intent, "topic": topic, "dice": roll.DiceBlock(),
		},
		Effects: effectsOut,
		NarrationHint: map[string]any{
			"summary":       fmt.Sprintf("%s tries to %s %v: %s", actor, intent, targets, roll.Band),
			"sentences_max": 2,
		},
	}, nil
}

// handleUseItem looks up itemID in the item registry, gates dangerous/
// poison items targeting a pc behind a confirm prompt, delegates to
// another tool when the item declares one, and otherwise instantiates the
// item's method templates paired with an inventory-decrement effect for
// the charges spent.
func handleUseItem(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args
	actor := getString(args, "actor", gs.CurrentActor)
	itemID, _ := args["item_id"].(string)
	target, _ := args["target"].(string)
	method := getString(args, "method", "consume")
	charges := getInt(args, "charges", 1)
	confirmed := getBool(args, "confirmed", false)

	if itemID == "" {
		return ToolResult{}, fmt.Errorf("use_item: missing 'item_id'")
	}
	ent, ok := gs.Entities[actor]
	if !ok || ent.Living == nil {
		return ToolResult{}, fmt.Errorf("use_item: unknown actor %q", actor)
	}
	has := false
	for _, id := range ent.Living.Inventory {
		if id == itemID {
			has = true
			break
		}
	}
	if !has {
		return ToolResult{}, fmt.Errorf("use_item: %q is not in %s's inventory", itemID, actor)
	}

	def, ok := hctx.ex.ItemRegistry.Def(itemID)
	if !ok {
		return ToolResult{}, fmt.Errorf("use_item: unknown item %q", itemID)
	}
	if def.Delegation == nil {
		if _, ok := def.Methods[method]; !ok {
			return ToolResult{}, fmt.Errorf("use_item: item %q has no %q method", itemID, method)
		}
	}

	if (def.Dangerous || def.Poison) && !confirmed {
		if targetEnt, ok := gs.Entities[target]; ok && targetEnt.Type == world.EntityPC {
			return handleUseItemConfirm(hctx, itemID, actor, target, method, charges)
		}
	}

	if def.Delegation != nil {
		return handleUseItemDelegate(hctx, def, actor, target, itemID, charges)
	}

	tmpl, _ := hctx.ex.ItemRegistry.Lookup(itemID, method)
	effectsOut := instantiateOutcome(tmpl, actor, target, ent.CurrentZone)
	effectsOut = append(effectsOut, world.Effect{
		Type: world.EffectInventory, Target: actor, Source: actor, Cause: "use_item:" + itemID,
		Fields: map[string]any{"id": itemID, "delta": -charges},
	})

	return ToolResult{
		Facts:   map[string]any{"actor": actor, "item_id": itemID, "method": method, "charges": charges},
		Effects: effectsOut,
		NarrationHint: map[string]any{
			"summary":       fmt.Sprintf("%s uses %s (%s)", actor, itemID, method),
			"sentences_max": 2,
		},
	}, nil
}

// handleUseItemConfirm surfaces a confirm/cancel choice before a dangerous
// or poisoned item is used on a pc, reusing ask_clarifying's pending-choice
// machinery so the budget and expiry rules (§4.E) apply uniformly.
func handleUseItemConfirm(hctx handlerCtx, itemID, actor, target, method string, charges int) (ToolResult, error) {
	confirmArgs := map[string]any{
		"actor":    actor,
		"question": fmt.Sprintf("%s is dangerous — use it on %s anyway?", itemID, target),
		"reason":   "use_item_safety_check",
		"options": []any{
			map[string]any{
				"id": "confirm", "label": "go ahead", "tool_id": toolcatalog.UseItem,
				"args_patch": map[string]any{
					"actor": actor, "item_id": itemID, "target": target, "method": method,
					"charges": charges, "confirmed": true,
				},
			},
			map[string]any{
				"id": "cancel", "label": "hold off", "tool_id": toolcatalog.NarrateOnly,
				"args_patch": map[string]any{"actor": actor, "topic": itemID},
			},
		},
	}
	res, err := handleAskClarifying(handlerCtx{gs: hctx.gs, args: confirmArgs, utterance: hctx.utterance, seed: hctx.seed, ex: hctx.ex})
	if err != nil {
		return ToolResult{}, err
	}
	if res.ToolID == "" {
		res.ToolID = toolcatalog.AskClarifying
	}
	return res, nil
}

// handleUseItemDelegate executes def.Delegation.Tool with its ArgsOverride
// merged over the use_item call's own args, charges the item from
// inventory, and wraps the delegated envelope's narration to mention the
// item.
func handleUseItemDelegate(hctx handlerCtx, def ItemDef, actor, target, itemID string, charges int) (ToolResult, error) {
	merged := map[string]any{"actor": actor}
	if target != "" {
		merged["target"] = target
	}
	for k, v := range def.Delegation.ArgsOverride {
		merged[k] = v
	}

	delegated, err := dispatchHandler(def.Delegation.Tool, handlerCtx{
		gs: hctx.gs, args: merged, utterance: hctx.utterance, seed: hctx.seed, ex: hctx.ex,
	})
	if err != nil {
		return ToolResult{}, fmt.Errorf("use_item: delegated tool %q: %w", def.Delegation.Tool, err)
	}

	delegated.ToolID = def.Delegation.Tool
	delegated.Effects = append(delegated.Effects, world.Effect{
		Type: world.EffectInventory, Target: actor, Source: actor, Cause: "use_item:" + itemID,
		Fields: map[string]any{"id": itemID, "delta": -charges},
	})
	if delegated.Facts == nil {
		delegated.Facts = map[string]any{}
	}
	delegated.Facts["item_id"] = itemID
	delegated.Facts["delegated_tool"] = def.Delegation.Tool
	if delegated.NarrationHint == nil {
		delegated.NarrationHint = map[string]any{}
	}
	if summary, ok := delegated.NarrationHint["summary"].(string); ok {
		delegated.NarrationHint["summary"] = fmt.Sprintf("using %s, %s", itemID, summary)
	}
	return delegated, nil
}

func paginateStrings(items []string, offset, limit int) []string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(items) {
		offset = len(items)
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]string(nil), items[offset:end]...)
}

func paginateLogs(logs []world.LogEntry, offset, limit int) []world.LogEntry {
	if offset < 0 {
		offset = 0
	}
	if offset > len(logs) {
		offset = len(logs)
	}
	end := len(logs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return append([]world.LogEntry(nil), logs[offset:end]...)
}

// handleGetInfo is the read-only query surface, scoped by topic. Redaction
// for an out-of-character reader is layered on top by the caller (the
// turn pipeline composes this with the visibility package); get_info
// itself returns the raw facts an in-fiction actor with access would see.
func handleGetInfo(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args
	actor := getString(args, "actor", gs.CurrentActor)
	target := getString(args, "target", actor)
	topic, _ := args["topic"].(string)
	detail := getString(args, "detail_level", "brief")
	useRefs := getBool(args, "use_refs", false)
	limit := getInt(args, "limit", 0)
	offset := getInt(args, "offset", 0)

	facts := map[string]any{
		"actor": actor, "topic": topic,
		"snapshot_id": fmt.Sprintf("snap_%d_%d", gs.Scene.Round, hctx.seed),
	}

	switch topic {
	case "status":
		ent, ok := gs.Entities[target]
		if !ok {
			return ToolResult{}, fmt.Errorf("get_info: unknown target %q", target)
		}
		if ent.Living != nil {
			facts["hp"] = ent.Living.HP
			facts["guard"] = ent.Living.Guard
			if detail == "full" {
				facts["marks"] = ent.Living.Marks
				facts["conditions"] = ent.Living.Conditions
			}
		}
	case "inventory":
		ent, ok := gs.Entities[target]
		if !ok || ent.Living == nil {
			return ToolResult{}, fmt.Errorf("get_info: %q has no inventory", target)
		}
		items := paginateStrings(ent.Living.Inventory, offset, limit)
		if useRefs {
			facts["item_refs"] = items
		} else {
			facts["items"] = items
		}
	case "zone":
		ent, ok := gs.Entities[actor]
		if !ok {
			return ToolResult{}, fmt.Errorf("get_info: unknown actor %q", actor)
		}
		zone, ok := gs.Zones[ent.CurrentZone]
		if !ok {
			return ToolResult{}, fmt.Errorf("get_info: unknown zone %q", ent.CurrentZone)
		}
		facts["zone_id"] = zone.ID
		facts["adjacent_zones"] = zone.AdjacentZones()
		if detail == "full" {
			facts["blocked_exits"] = zone.BlockedExits()
		}
	case "scene":
		facts["round"] = gs.Scene.Round
		facts["turn_index"] = gs.Scene.TurnIndex
		facts["tags"] = gs.Scene.Tags
		facts["objective"] = gs.Scene.Objective
	case "effects":
		facts["log"] = paginateLogs(gs.Scene.LastEffectLog, offset, limit)
	case "clocks":
		facts["clocks"] = gs.Clocks
	case "relationships":
		if ent, ok := gs.Entities[target]; ok && ent.Living != nil {
			facts["marks"] = ent.Living.Marks
		}
	case "rules":
		facts["rules_summary"] = "d20 + style dice vs DC; nat20 or margin>=5 crits, margin>=0 succeeds, margin>=-3 partials, else fails."
	default:
		return ToolResult{}, fmt.Errorf("get_info: unknown topic %q", topic)
	}

	return ToolResult{
		Facts:         facts,
		NarrationHint: map[string]any{"summary": fmt.Sprintf("information on %s", topic), "sentences_max": 1},
	}, nil
}

// handleNarrateOnly produces descriptive prose without mutating state; the
// universal escape hatch.
func handleNarrateOnly(hctx handlerCtx) (ToolResult, error) {
	args := hctx.args
	topic := getString(args, "topic", "")
	actor := getString(args, "actor", hctx.gs.CurrentActor)

	summary := "the scene holds steady"
	if topic != "" {
		summary = fmt.Sprintf("%s takes a moment to attend to %s", actor, topic)
	}
	return ToolResult{
		Facts:         map[string]any{"actor": actor, "topic": topic},
		NarrationHint: map[string]any{"summary": summary, "sentences_max": 2},
	}, nil
}

func decodeEffect(m map[string]any) (world.Effect, error) {
	typ, _ := m["type"].(string)
	if typ == "" {
		return world.Effect{}, fmt.Errorf("apply_effects: effect entry missing 'type'")
	}
	target, _ := m["target"].(string)
	source, _ := m["source"].(string)
	cause, _ := m["cause"].(string)
	cond, _ := m["condition"].(string)
	afterRounds, _ := asIntArg(m["after_rounds"])
	fields, _ := m["fields"].(map[string]any)
	return world.Effect{
		Type: world.EffectType(typ), Target: target, Source: source, Cause: cause,
		Condition: cond, AfterRounds: afterRounds, Fields: fields,
	}, nil
}

// handleApplyEffects decodes the raw effects array and transaction options
// directly from args, for internal or direct apply_effects invocations.
func handleApplyEffects(hctx handlerCtx) (ToolResult, error) {
	args := hctx.args
	actor := getString(args, "actor", hctx.gs.CurrentActor)
	transactional := getBool(args, "transactional", true)
	mode := getString(args, "transaction_mode", "strict")
	seed := hctx.seed
	if n, ok := asIntArg(args["seed"]); ok {
		seed = int64(n)
	}

	raw, _ := args["effects"].([]any)
	effectsOut := make([]world.Effect, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		eff, err := decodeEffect(m)
		if err != nil {
			return ToolResult{}, err
		}
		effectsOut = append(effectsOut, eff)
	}

	return ToolResult{
		Facts:        map[string]any{"actor": actor, "effect_count": len(effectsOut)},
		Effects:      effectsOut,
		ApplyOptions: &effects.ApplyOptions{Actor: actor, Transactional: transactional, Mode: effects.TransactionMode(mode), Seed: seed},
	}, nil
}

// handleAskClarifying surfaces a disambiguation choice unless the turn's
// choice budget is already spent, in which case it downgrades itself to
// narrate_only (the "4th call this turn" case named in spec §4.E).
func handleAskClarifying(hctx handlerCtx) (ToolResult, error) {
	gs := hctx.gs
	args := hctx.args

	if gs.Scene.ChoiceCountThisTurn >= world.MaxChoicesPerTurn {
		return ToolResult{
			ToolID: toolcatalog.NarrateOnly,
			Facts:  map[string]any{"downgraded_from": toolcatalog.AskClarifying},
			NarrationHint: map[string]any{
				"summary":       "too many clarifications already this turn; narrating instead",
				"sentences_max": 2,
			},
		}, nil
	}

	question, _ := args["question"].(string)
	reason, _ := args["reason"].(string)
	actor := getString(args, "actor", gs.CurrentActor)
	contextNote := getString(args, "context_note", "")
	expiresIn := getInt(args, "expires_in_turns", 1)

	optsRaw, _ := args["options"].([]any)
	options := make([]world.ChoiceOption, 0, len(optsRaw))
	for _, o := range optsRaw {
		m, ok := o.(map[string]any)
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		label, _ := m["label"].(string)
		toolID, _ := m["tool_id"].(string)
		patch, _ := m["args_patch"].(map[string]any)
		options = append(options, world.ChoiceOption{ID: id, Label: label, ToolID: toolID, ArgsPatch: patch})
	}
	if len(options) < 2 {
		return ToolResult{}, fmt.Errorf("ask_clarifying: at least 2 options required")
	}

	gs.Scene.PendingChoice = &world.PendingChoice{
		ID:           fmt.Sprintf("choice_%d_%d", gs.Scene.Round, hctx.seed),
		Actor:        actor,
		Question:     question,
		Options:      options,
		Reason:       reason,
		ExpiresRound: gs.Scene.Round + expiresIn,
		CreatedTurn:  gs.Scene.TurnIndex,
		ContextNote:  contextNote,
	}
	gs.Scene.ChoiceCountThisTurn++

	return ToolResult{
		Facts: map[string]any{"question": question, "options": options, "reason": reason},
		NarrationHint: map[string]any{
			"summary":       question,
			"sentences_max": 1,
		},
	}, nil
}
