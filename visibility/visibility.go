// Package visibility implements the role-based view projector: redacted,
// schema-stable dictionaries of entities, zones, clocks, and exits safe for
// a given point of view and role.
package visibility

import (
	"github.com/duskward/ttrpgcore/world"
)

// Role selects the redaction policy applied to a view.
type Role string

const (
	RolePlayer   Role = "player"
	RoleNarrator Role = "narrator"
	RoleGM       Role = "gm"
)

// CanPlayerSee implements can_player_see: a nil pov is the GM POV and always
// sees everything; gm_only entities are never visible to a non-GM pov;
// hidden entities require pov to be in known_by; otherwise visibility
// follows co-location, plus a rule granting knowledge of public items
// globally known to pov.
func CanPlayerSee(gs *world.GameState, pov *string, entity world.Entity) bool {
	if pov == nil {
		return true
	}
	if entity.Meta.Visibility == world.VisibilityGMOnly {
		return false
	}
	if entity.Meta.Visibility == world.VisibilityHidden {
		return entity.Meta.Known(*pov)
	}
	if povEntity, ok := gs.Entities[*pov]; ok && povEntity.CurrentZone == entity.CurrentZone {
		return true
	}
	if entity.Type == world.EntityItem && entity.Meta.Known(*pov) {
		return true
	}
	return false
}
