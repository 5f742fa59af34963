package loadout

import "github.com/freeeve/second-dawn/pkg/combat"

// Stats is the aggregate combat profile derived from a blueprint.
type Stats struct {
	MaxHP      int
	Initiative int
	Accuracy   int
	Defense    int
	Movement   int
	Weapons    []combat.Weapon
}

// defaults used for a ship with no resolvable blueprint. Such a ship
// still participates in combat as a bare hull.
const (
	fallbackHP         = 1
	fallbackInitiative = 1
)

// FromSlots derives combat stats from a hull type and its equipped slots.
// Unknown part IDs and empty slots are skipped. If the hull type itself
// is unknown the fallback profile is used so the ship still fights.
func FromSlots(shipType string, slots []string) Stats {
	s := Stats{MaxHP: fallbackHP, Initiative: fallbackInitiative}
	if h, ok := hulls[shipType]; ok {
		s.MaxHP = h.BaseHP
		s.Initiative = h.BaseInitiative
	}
	for _, id := range slots {
		p, ok := parts[id]
		if !ok {
			continue
		}
		switch p.Category {
		case CategoryCannon:
			s.Weapons = append(s.Weapons, combat.Weapon{Damage: p.Damage, Phase: combat.PhaseMain})
		case CategoryMissile:
			s.Weapons = append(s.Weapons, combat.Weapon{Damage: p.Damage, Phase: combat.PhaseOpening})
		case CategoryComputer:
			// Targeting computers sharpen aim and quicken reaction.
			s.Accuracy += p.Accuracy
			s.Initiative += p.Accuracy
		case CategoryShield:
			s.Defense += p.Shield
		case CategoryHull:
			s.MaxHP += p.ExtraHP
		case CategoryDrive:
			s.Movement += p.Movement
		}
	}
	return s
}

// Default returns the fallback profile for a ship whose blueprint could
// not be loaded: one hit point, initiative one, unarmed.
func Default() Stats {
	return Stats{MaxHP: fallbackHP, Initiative: fallbackInitiative}
}

// AncientInterceptor is the fixed profile of the roaming ancient ships
// guarding unexplored sectors.
func AncientInterceptor() Stats {
	return Stats{
		MaxHP:      1,
		Initiative: 4,
		Accuracy:   2,
		Defense:    1,
		Weapons:    []combat.Weapon{{Damage: 2, Phase: combat.PhaseMain}},
	}
}

// GalacticCenterDefense is the fixed profile of the defense system
// occupying the galactic center at game start.
func GalacticCenterDefense() Stats {
	return Stats{
		MaxHP:      2,
		Initiative: 4,
		Accuracy:   2,
		Defense:    3,
		Weapons: []combat.Weapon{
			{Damage: 4, Phase: combat.PhaseMain},
			{Damage: 4, Phase: combat.PhaseMain},
		},
	}
}
