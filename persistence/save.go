package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/duskward/ttrpgcore/world"
)

const (
	fileGM       = "gm.json"
	filePublic   = "public.json"
	fileSession  = "session.json"
	fileManifest = "manifest.json"
	dirPerm      = 0o755
	filePerm     = 0o644
)

// Manifest records the save's provenance, written alongside the three
// export documents.
type Manifest struct {
	SavedAt string   `json:"saved_at"`
	Round   int      `json:"round"`
	Files   []string `json:"files"`
}

// GameStateDoc is the full-fidelity, round-trip-safe export of a
// *world.GameState: exactly the fields Save/Load need to reconstruct one,
// keyed by the top-level "entities"/"zones"/"scene" names spec §7 requires
// a save file to carry.
type GameStateDoc struct {
	Entities      map[string]world.Entity `json:"entities"`
	Zones         map[string]world.Zone   `json:"zones"`
	Clocks        map[string]world.Clock  `json:"clocks"`
	Scene         world.Scene             `json:"scene"`
	CurrentActor  string                  `json:"current_actor"`
	PendingAction string                  `json:"pending_action"`
	TurnFlags     map[string]any          `json:"turn_flags"`
}

// SaveDocument is the top-level shape of gm.json: a "metadata" wrapper
// around the save-mode game state, matching the "metadata"/"game_state"
// keys a loader must find before it even attempts to unmarshal further.
type SaveDocument struct {
	Metadata  map[string]any `json:"metadata"`
	GameState GameStateDoc   `json:"game_state"`
}

func toGameStateDoc(gs *world.GameState) GameStateDoc {
	return GameStateDoc{
		Entities:      gs.Entities,
		Zones:         gs.Zones,
		Clocks:        gs.Clocks,
		Scene:         gs.Scene,
		CurrentActor:  gs.CurrentActor,
		PendingAction: gs.PendingAction,
		TurnFlags:     gs.TurnFlags,
	}
}

// Save writes gm.json (full fidelity), public.json and session.json
// (redacted map projections), and manifest.json into dir, creating it if
// necessary.
func Save(gs *world.GameState, dir string, now time.Time) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &LoadError{Category: CategoryIO, Detail: err.Error()}
	}

	gmDoc := SaveDocument{
		Metadata: map[string]any{
			"mode":     string(ModeSave),
			"saved_at": now.Format(timeLayout),
		},
		GameState: toGameStateDoc(gs),
	}
	if err := writeJSON(filepath.Join(dir, fileGM), gmDoc); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dir, filePublic), projectedDocument(gs, ModePublic)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, fileSession), projectedDocument(gs, ModeSession)); err != nil {
		return err
	}

	manifest := Manifest{
		SavedAt: now.Format(timeLayout),
		Round:   gs.Scene.Round,
		Files:   []string{fileGM, filePublic, fileSession},
	}
	return writeJSON(filepath.Join(dir, fileManifest), manifest)
}

// projectedDocument builds the map-based redacted view of gs for a
// non-save export mode, mirroring the shape Load's key-presence check
// expects ("metadata"/"game_state" holding "entities"/"zones"/"scene").
func projectedDocument(gs *world.GameState, mode ExportMode) map[string]any {
	entitiesByZone := make(map[string][]world.Entity, len(gs.Zones))
	for _, e := range gs.Entities {
		entitiesByZone[e.CurrentZone] = append(entitiesByZone[e.CurrentZone], e)
	}

	entities := make(map[string]any, len(gs.Entities))
	for id, e := range gs.Entities {
		if view, ok := EntityView(e, mode); ok {
			entities[id] = view
		}
	}

	zones := make(map[string]any, len(gs.Zones))
	for id, z := range gs.Zones {
		zoneEntities := make([]map[string]any, 0, len(entitiesByZone[id]))
		for _, e := range entitiesByZone[id] {
			if view, ok := EntityView(e, mode); ok {
				zoneEntities = append(zoneEntities, view)
			}
		}
		if view, ok := ZoneView(z, mode, zoneEntities); ok {
			zones[id] = view
		}
	}

	clocks := make(map[string]any, len(gs.Clocks))
	for id, c := range gs.Clocks {
		clocks[id] = ClockView(c, mode)
	}

	return map[string]any{
		"metadata": map[string]any{"mode": string(mode)},
		"game_state": map[string]any{
			"entities": entities,
			"zones":    zones,
			"clocks":   clocks,
			"scene":    SceneView(gs.Scene, mode),
		},
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &LoadError{Category: CategoryCorruptedJSON, Detail: err.Error()}
	}
	if err := os.WriteFile(path, b, filePerm); err != nil {
		return &LoadError{Category: CategoryIO, Detail: err.Error()}
	}
	return nil
}

// Load reads gm.json from dir and reconstructs a *world.GameState from it.
// It validates the presence of the required top-level and nested keys
// before attempting to decode the game state, so a truncated or
// hand-edited save fails with CategoryMissingKey rather than a confusing
// type-mismatch error deep in json.Unmarshal.
func Load(dir string) (*world.GameState, error) {
	path := filepath.Join(dir, fileGM)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Category: CategoryIO, Detail: err.Error()}
	}

	var generic map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, newLoadError(CategoryCorruptedJSON, "%s: %v", path, err)
	}
	if _, ok := generic["metadata"]; !ok {
		return nil, newLoadError(CategoryMissingKey, "%s: missing top-level key %q", path, "metadata")
	}
	gameStateRaw, ok := generic["game_state"]
	if !ok {
		return nil, newLoadError(CategoryMissingKey, "%s: missing top-level key %q", path, "game_state")
	}

	var gsFields map[string]json.RawMessage
	if err := json.Unmarshal(gameStateRaw, &gsFields); err != nil {
		return nil, newLoadError(CategoryCorruptedJSON, "%s: game_state: %v", path, err)
	}
	for _, key := range []string{"entities", "zones", "scene"} {
		if _, ok := gsFields[key]; !ok {
			return nil, newLoadError(CategoryMissingKey, "%s: game_state missing required key %q", path, key)
		}
	}

	var doc SaveDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, newLoadError(CategoryCorruptedJSON, "%s: %v", path, err)
	}

	gs := world.NewGameState(doc.GameState.Scene)
	gs.Entities = fixEntityMeta(doc.GameState.Entities)
	gs.Zones = fixZoneMeta(doc.GameState.Zones)
	gs.Clocks = fixClockMeta(doc.GameState.Clocks)
	gs.Scene.Meta = world.FixMeta(gs.Scene.Meta)
	gs.CurrentActor = doc.GameState.CurrentActor
	gs.PendingAction = doc.GameState.PendingAction
	if doc.GameState.TurnFlags != nil {
		gs.TurnFlags = doc.GameState.TurnFlags
	}
	return gs, nil
}

// fixEntityMeta auto-corrects gm_only/visibility consistency on every
// decoded entity (and, for zones/exits below, every Meta reachable through
// them), per Meta's "auto-corrected on deserialization" half of the
// invariant — a hand-edited or legacy save file need not satisfy the
// stricter construction-time panic.
func fixEntityMeta(in map[string]world.Entity) map[string]world.Entity {
	out := make(map[string]world.Entity, len(in))
	for id, e := range in {
		e.Meta = world.FixMeta(e.Meta)
		out[id] = e
	}
	return out
}

func fixZoneMeta(in map[string]world.Zone) map[string]world.Zone {
	out := make(map[string]world.Zone, len(in))
	for id, z := range in {
		z.Meta = world.FixMeta(z.Meta)
		for i, ex := range z.Exits {
			z.Exits[i].Meta = world.FixMeta(ex.Meta)
		}
		out[id] = z
	}
	return out
}

func fixClockMeta(in map[string]world.Clock) map[string]world.Clock {
	out := make(map[string]world.Clock, len(in))
	for id, c := range in {
		c.Meta = world.FixMeta(c.Meta)
		out[id] = c
	}
	return out
}
