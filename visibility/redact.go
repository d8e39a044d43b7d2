package visibility

import (
	"github.com/duskward/ttrpgcore/world"
)

// RedactEntity returns a schema-stable view of entity for pov under role.
// The top-level key set is the same regardless of visibility outcome —
// only values differ (null-sentinels vs real data) — so consumers never
// need to probe for key presence.
func RedactEntity(gs *world.GameState, pov *string, entity world.Entity, role Role) map[string]any {
	if role == RolePlayer {
		key := cacheKeyFor(pov, entity.ID)
		if cached, ok := gs.CacheGet(key); ok {
			if view, ok := cached.(map[string]any); ok {
				return view
			}
		}
		view := redactEntity(gs, pov, entity, role)
		gs.CachePut(key, view)
		return view
	}
	return redactEntity(gs, pov, entity, role)
}

func cacheKeyFor(pov *string, entityID string) world.CacheKey {
	p := ""
	if pov != nil {
		p = *pov
	}
	return world.CacheKey{POV: p, EntityID: entityID}
}

func redactEntity(gs *world.GameState, pov *string, e world.Entity, role Role) map[string]any {
	switch role {
	case RoleGM:
		return fullEntityDump(e, true)
	case RolePlayer:
		if CanPlayerSee(gs, pov, e) {
			v := fullEntityDump(e, true)
			meta := v["meta"].(map[string]any)
			meta["notes"] = nil
			return v
		}
		return hiddenEntityShell(e)
	case RoleNarrator:
		if CanPlayerSee(gs, pov, e) {
			return fullEntityDump(e, true)
		}
		return narratorHiddenEntityView(e)
	}
	return hiddenEntityShell(e)
}

func fullEntityDump(e world.Entity, visible bool) map[string]any {
	out := map[string]any{
		"id":           e.ID,
		"type":         string(e.Type),
		"name":         e.Name,
		"current_zone": e.CurrentZone,
		"tags":         e.Tags,
		"is_visible":   visible,
		"meta":         metaView(e.Meta),
	}
	attachTypeFields(out, e)
	return out
}

func attachTypeFields(out map[string]any, e world.Entity) {
	if e.Living != nil {
		out["hp"] = map[string]any{"current": e.Living.HP.Current, "max": e.Living.HP.Max}
		out["stats"] = abilitiesView(e.Living.Abilities)
		out["inventory"] = append([]string(nil), e.Living.Inventory...)
		out["visible_actors"] = append([]string(nil), e.Living.VisibleActors...)
		out["marks"] = marksView(e.Living.Marks)
		out["guard"] = e.Living.Guard
		out["has_weapon"] = e.Living.HasWeapon
		out["conditions"] = e.Living.Conditions
	} else {
		out["hp"] = map[string]any{"current": nil, "max": nil}
		out["stats"] = map[string]any{
			"strength": nil, "dexterity": nil, "constitution": nil,
			"intelligence": nil, "wisdom": nil, "charisma": nil,
		}
		out["inventory"] = []string{}
		out["visible_actors"] = []string{}
		out["marks"] = map[string]any{}
		out["guard"] = nil
		out["has_weapon"] = nil
		out["conditions"] = map[string]bool{}
	}
	if e.Object != nil {
		out["description"] = e.Object.Description
		out["interactable"] = e.Object.Interactable
		out["locked"] = e.Object.Locked
	}
	if e.Item != nil {
		out["description"] = e.Item.Description
		out["weight"] = e.Item.Weight
		out["value"] = e.Item.Value
	}
}

func abilitiesView(a world.Abilities) map[string]any {
	return map[string]any{
		"strength":     a.Strength,
		"dexterity":    a.Dexterity,
		"constitution": a.Constitution,
		"intelligence": a.Intelligence,
		"wisdom":       a.Wisdom,
		"charisma":     a.Charisma,
	}
}

func marksView(marks map[string]world.Mark) map[string]any {
	out := make(map[string]any, len(marks))
	for k, m := range marks {
		out[k] = map[string]any{
			"tag": m.Tag, "source": m.Source, "value": m.Value,
			"consumes": m.Consumes, "created_turn": m.CreatedTurn,
		}
	}
	return out
}

func metaView(m world.Meta) map[string]any {
	return map[string]any{
		"visibility":      string(m.Visibility),
		"gm_only":         m.GMOnly,
		"created_at":      m.CreatedAt,
		"last_changed_at": m.LastChangedAt,
		"source":          m.Source,
		"notes":           m.Notes,
	}
}

// hiddenEntityShell is the reduced shell returned to a player who cannot see
// the entity: stable type-appropriate null-sentinel fields, never raw data.
func hiddenEntityShell(e world.Entity) map[string]any {
	out := map[string]any{
		"id":           e.ID,
		"type":         string(e.Type),
		"is_visible":   false,
		"name":         "Unknown",
		"current_zone": nil,
		"tags":         map[string]any{},
		"meta": map[string]any{
			"visibility": "hidden",
		},
	}
	attachTypeFields(out, world.Entity{Type: e.Type})
	return out
}

// narratorHiddenEntityView keeps identity/location visible but numerically
// sentinels sensitive fields and collapses marks to a count, per the
// narrator-hidden redaction policy.
func narratorHiddenEntityView(e world.Entity) map[string]any {
	out := map[string]any{
		"id":           e.ID,
		"type":         string(e.Type),
		"name":         e.Name,
		"current_zone": e.CurrentZone,
		"tags":         e.Tags,
		"is_visible":   false,
		"meta":         metaView(e.Meta),
	}
	meta := out["meta"].(map[string]any)
	meta["notes"] = nil

	if e.Living != nil {
		out["hp"] = map[string]any{"current": -1, "max": -1}
		out["stats"] = map[string]any{
			"strength": -1, "dexterity": -1, "constitution": -1,
			"intelligence": -1, "wisdom": -1, "charisma": -1,
		}
		out["inventory"] = []string{}
		out["visible_actors"] = []string{}
		out["marks"] = map[string]any{"hidden_mark_count": len(e.Living.Marks)}
		out["guard"] = -1
		out["has_weapon"] = nil
		out["conditions"] = map[string]bool{}
	} else {
		attachTypeFields(out, world.Entity{Type: e.Type})
	}
	if e.Object != nil {
		out["description"] = e.Object.Description
		out["interactable"] = e.Object.Interactable
		out["locked"] = e.Object.Locked
	}
	if e.Item != nil {
		out["description"] = e.Item.Description
		out["weight"] = e.Item.Weight
		out["value"] = e.Item.Value
	}
	return out
}
