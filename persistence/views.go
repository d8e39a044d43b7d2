package persistence

import (
	"sort"
	"time"

	"github.com/duskward/ttrpgcore/world"
)

const timeLayout = time.RFC3339

// MetaView projects m per mode, per spec §6's four export modes.
func MetaView(m world.Meta, mode ExportMode) map[string]any {
	switch mode {
	case ModeMinimal:
		return map[string]any{
			"visibility": string(m.Visibility),
			"gm_only":    m.GMOnly,
		}
	case ModePublic:
		return map[string]any{
			"visibility":      string(m.Visibility),
			"gm_only":         m.GMOnly,
			"known_by_count":  m.KnownByCount(),
			"last_changed_at": m.LastChangedAt.Format(timeLayout),
		}
	case ModeSession:
		return map[string]any{
			"visibility":      string(m.Visibility),
			"gm_only":         m.GMOnly,
			"known_by":        sortedKeys(m.KnownBy),
			"last_changed_at": m.LastChangedAt.Format(timeLayout),
		}
	default: // ModeSave
		return map[string]any{
			"visibility":      string(m.Visibility),
			"gm_only":         m.GMOnly,
			"known_by":        sortedKeys(m.KnownBy),
			"created_at":      m.CreatedAt.Format(timeLayout),
			"last_changed_at": m.LastChangedAt.Format(timeLayout),
			"source":          m.Source,
			"notes":           m.Notes,
			"extra":           m.Extra,
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// EntityView projects e per mode. ok is false when mode excludes e
// entirely (ModePublic on a gm_only entity).
func EntityView(e world.Entity, mode ExportMode) (view map[string]any, ok bool) {
	if mode == ModePublic && e.Meta.GMOnly {
		return nil, false
	}
	out := map[string]any{
		"id":           e.ID,
		"type":         string(e.Type),
		"name":         e.Name,
		"current_zone": e.CurrentZone,
		"tags":         e.Tags,
		"meta":         MetaView(e.Meta, mode),
	}
	switch {
	case e.Living != nil:
		out["living"] = map[string]any{
			"hp":                   e.Living.HP,
			"abilities":            e.Living.Abilities,
			"inventory":            e.Living.Inventory,
			"visible_actors":       e.Living.VisibleActors,
			"has_weapon":           e.Living.HasWeapon,
			"has_talked_this_turn": e.Living.HasTalkedThisTurn,
			"conditions":           e.Living.Conditions,
			"guard":                e.Living.Guard,
			"guard_duration":       e.Living.GuardDuration,
			"style_bonus":          e.Living.StyleBonus,
			"marks":                e.Living.Marks,
		}
	case e.Object != nil:
		out["object"] = e.Object
	case e.Item != nil:
		out["item"] = e.Item
	}
	return out, true
}

// ZoneView projects z per mode, alongside the redacted views of the
// entities placed in it.
func ZoneView(z world.Zone, mode ExportMode, entitiesInZone []map[string]any) (view map[string]any, ok bool) {
	if mode == ModePublic && z.Meta.GMOnly {
		return nil, false
	}
	exits := make([]map[string]any, len(z.Exits))
	for i, ex := range z.Exits {
		exits[i] = map[string]any{
			"to":         ex.To,
			"label":      ex.Label,
			"direction":  string(ex.Direction),
			"blocked":    ex.Blocked,
			"lock_id":    ex.LockID,
			"conditions": ex.Conditions,
			"cost":       ex.Cost,
			"terrain":    string(ex.Terrain),
			"meta":       MetaView(ex.Meta, mode),
		}
	}
	return map[string]any{
		"id":            z.ID,
		"name":          z.Name,
		"description":   z.Description,
		"exits":         exits,
		"tags":          sortedKeys(z.Tags),
		"discovered_by": sortedKeys(z.DiscoveredBy),
		"region":        z.Region,
		"meta":          MetaView(z.Meta, mode),
		"entities":      entitiesInZone,
	}, true
}

// ClockView projects c per mode.
func ClockView(c world.Clock, mode ExportMode) map[string]any {
	return map[string]any{
		"id":                  c.ID,
		"name":                c.Name,
		"value":               c.Value,
		"min":                 c.Min,
		"max":                 c.Max,
		"filled_this_turn":    c.FilledThisTurn,
		"filled_by":           c.FilledBy,
		"last_modified_round": c.LastModifiedRound,
		"meta":                MetaView(c.Meta, mode),
	}
}

// SceneView projects s per mode. The effect log and pending-effects queue
// are GM-only bookkeeping and are dropped below ModeSave.
func SceneView(s world.Scene, mode ExportMode) map[string]any {
	out := map[string]any{
		"id":                     s.ID,
		"turn_order":             s.TurnOrder,
		"turn_index":             s.TurnIndex,
		"round":                  s.Round,
		"base_dc":                s.BaseDC,
		"tags":                   s.Tags,
		"objective":              s.Objective,
		"choice_count_this_turn": s.ChoiceCountThisTurn,
		"meta":                   MetaView(s.Meta, mode),
	}
	if mode == ModeSave {
		out["pending_choice"] = s.PendingChoice
		out["last_effect_log"] = s.LastEffectLog
		out["last_diff_summary"] = s.LastDiffSummary
		out["pending_effects"] = s.PendingEffects
	}
	return out
}
