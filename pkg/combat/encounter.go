package combat

import (
	"errors"
	"sort"
)

// Placement locates a combat unit on the map before resolution.
type Placement struct {
	Cell string
	Unit *Unit
}

// Encounter is the maximal set of units sharing one contested map cell.
type Encounter struct {
	Cell  string
	Units []*Unit
}

// ErrNotContested is returned when an encounter cannot form two sides.
var ErrNotContested = errors.New("encounter does not contain two opposing factions")

// DiscoverEncounters groups placed units by cell and returns an encounter
// for every cell holding units from two or more distinct factions.
// Single-faction and empty cells are never returned. Output is sorted by
// cell with units in ID order so discovery is deterministic.
func DiscoverEncounters(placed []Placement) []*Encounter {
	byCell := make(map[string][]*Unit)
	for _, p := range placed {
		if p.Cell == "" || p.Unit == nil {
			continue
		}
		byCell[p.Cell] = append(byCell[p.Cell], p.Unit)
	}

	var encounters []*Encounter
	for cell, units := range byCell {
		factions := make(map[Faction]bool)
		for _, u := range units {
			factions[u.Faction] = true
		}
		if len(factions) < 2 {
			continue
		}
		sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
		encounters = append(encounters, &Encounter{Cell: cell, Units: units})
	}
	sort.Slice(encounters, func(i, j int) bool { return encounters[i].Cell < encounters[j].Cell })
	return encounters
}

// assignSides splits an encounter into two opposing sides.
//
// If environmental units are present, every player faction merges into one
// side and the environmental units form the other. Otherwise the first two
// factions in discovery order (unit ID order) oppose each other; any third
// player faction sits the encounter out. That pairing mirrors the original
// rules and is intentionally not extended to a free-for-all.
func assignSides(enc *Encounter) (sideA, sideB []*Unit, err error) {
	var environmental []*Unit
	playerUnits := make(map[Faction][]*Unit)
	var factionOrder []Faction

	for _, u := range enc.Units {
		if u.Faction.IsEnvironmental() {
			environmental = append(environmental, u)
			continue
		}
		if _, seen := playerUnits[u.Faction]; !seen {
			factionOrder = append(factionOrder, u.Faction)
		}
		playerUnits[u.Faction] = append(playerUnits[u.Faction], u)
	}

	if len(environmental) > 0 {
		for _, f := range factionOrder {
			sideA = append(sideA, playerUnits[f]...)
		}
		if len(sideA) == 0 {
			return nil, nil, ErrNotContested
		}
		return sideA, environmental, nil
	}

	if len(factionOrder) < 2 {
		return nil, nil, ErrNotContested
	}
	return playerUnits[factionOrder[0]], playerUnits[factionOrder[1]], nil
}
