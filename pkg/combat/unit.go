// Package combat implements fleet combat resolution: grouping co-located
// hostile units into encounters, simulating rounds of weapon fire with
// simultaneous damage, and attributing victory points. The engine is pure:
// it reads nothing from storage and all randomness comes from an injected
// generator, so resolutions can be replayed exactly in tests.
package combat

// Faction identifies which side a unit fights for: a player, or the
// environmental faction used for unowned guardians (ancients, the galactic
// center defense system). The zero value is not a valid faction.
type Faction struct {
	playerID      string
	environmental bool
}

// PlayerFaction returns the faction for a player-owned unit.
func PlayerFaction(playerID string) Faction {
	return Faction{playerID: playerID}
}

// Environmental is the reserved faction for unowned hostile units.
var Environmental = Faction{environmental: true}

// IsEnvironmental reports whether f is the environmental faction.
func (f Faction) IsEnvironmental() bool { return f.environmental }

// PlayerID returns the owning player ID, or "" for the environmental faction.
func (f Faction) PlayerID() string { return f.playerID }

func (f Faction) String() string {
	if f.environmental {
		return "environmental"
	}
	return f.playerID
}

// WeaponPhase tags when a weapon fires within a combat round.
type WeaponPhase int

const (
	// PhaseOpening weapons (missiles) fire before main weapons.
	PhaseOpening WeaponPhase = iota
	// PhaseMain weapons (cannons) fire after the opening volley.
	PhaseMain
)

func (p WeaponPhase) String() string {
	if p == PhaseOpening {
		return "opening"
	}
	return "main"
}

// Weapon is a single equipped weapon.
type Weapon struct {
	Damage int
	Phase  WeaponPhase
}

// Unit is the ephemeral combat view of a ship. It is built fresh for each
// encounter from the persisted ship and its loadout; only HP and the
// destroyed state are written back after resolution.
type Unit struct {
	ID         string
	Faction    Faction
	MaxHP      int
	HP         int
	Initiative int
	Accuracy   int
	Defense    int
	Weapons    []Weapon
}

// NewUnit constructs a combat unit with its own copy of the weapon list.
func NewUnit(id string, faction Faction, maxHP, hp, initiative, accuracy, defense int, weapons []Weapon) *Unit {
	owned := make([]Weapon, len(weapons))
	copy(owned, weapons)
	return &Unit{
		ID:         id,
		Faction:    faction,
		MaxHP:      maxHP,
		HP:         hp,
		Initiative: initiative,
		Accuracy:   accuracy,
		Defense:    defense,
		Weapons:    owned,
	}
}

// Alive reports whether the unit still has hit points.
func (u *Unit) Alive() bool { return u.HP > 0 }

// Destroyed reports whether the unit was reduced to zero hit points.
func (u *Unit) Destroyed() bool { return u.HP <= 0 }
