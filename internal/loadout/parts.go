// Package loadout holds the static ship part and hull definitions and
// derives combat statistics for ships from their persisted blueprints.
package loadout

// Category classifies a ship part.
type Category string

const (
	CategoryCannon   Category = "cannon"
	CategoryMissile  Category = "missile"
	CategoryDrive    Category = "drive"
	CategorySource   Category = "source"
	CategoryComputer Category = "computer"
	CategoryShield   Category = "shield"
	CategoryHull     Category = "hull"
)

// Part is the definition of a single ship component.
type Part struct {
	ID       string
	Name     string
	Category Category

	PowerGenerated int
	PowerConsumed  int

	Damage     int  // cannons and missiles
	FiresFirst bool // missiles fire before cannons

	Movement int // drives
	Accuracy int // computers
	Shield   int // shields
	ExtraHP  int // hull plating
}

// HullClass is the base frame of a ship type.
type HullClass struct {
	ShipType       string
	Slots          int
	BaseHP         int
	BaseInitiative int
	Moveable       bool
	MaterialCost   int
}

var parts = map[string]Part{
	// Sources
	"nuclear_source":    {ID: "nuclear_source", Name: "Nuclear Source", Category: CategorySource, PowerGenerated: 3},
	"fusion_source":     {ID: "fusion_source", Name: "Fusion Source", Category: CategorySource, PowerGenerated: 6},
	"antimatter_source": {ID: "antimatter_source", Name: "Antimatter Source", Category: CategorySource, PowerGenerated: 9},

	// Drives
	"electron_drive": {ID: "electron_drive", Name: "Electron Drive", Category: CategoryDrive, PowerConsumed: 1, Movement: 1},
	"nuclear_drive":  {ID: "nuclear_drive", Name: "Nuclear Drive", Category: CategoryDrive, PowerConsumed: 2, Movement: 2},
	"fusion_drive":   {ID: "fusion_drive", Name: "Fusion Drive", Category: CategoryDrive, PowerConsumed: 3, Movement: 3},

	// Cannons
	"ion_cannon":        {ID: "ion_cannon", Name: "Ion Cannon", Category: CategoryCannon, PowerConsumed: 1, Damage: 1},
	"plasma_cannon":     {ID: "plasma_cannon", Name: "Plasma Cannon", Category: CategoryCannon, PowerConsumed: 2, Damage: 2},
	"antimatter_cannon": {ID: "antimatter_cannon", Name: "Antimatter Cannon", Category: CategoryCannon, PowerConsumed: 4, Damage: 4},

	// Missiles
	"flux_missile":   {ID: "flux_missile", Name: "Flux Missile", Category: CategoryMissile, Damage: 1, FiresFirst: true},
	"plasma_missile": {ID: "plasma_missile", Name: "Plasma Missile", Category: CategoryMissile, PowerConsumed: 1, Damage: 2, FiresFirst: true},

	// Computers
	"electron_computer": {ID: "electron_computer", Name: "Electron Computer", Category: CategoryComputer, Accuracy: 1},
	"positron_computer": {ID: "positron_computer", Name: "Positron Computer", Category: CategoryComputer, PowerConsumed: 1, Accuracy: 2},
	"gluon_computer":    {ID: "gluon_computer", Name: "Gluon Computer", Category: CategoryComputer, PowerConsumed: 2, Accuracy: 3},

	// Shields
	"gauss_shield": {ID: "gauss_shield", Name: "Gauss Shield", Category: CategoryShield, Shield: 1},
	"phase_shield": {ID: "phase_shield", Name: "Phase Shield", Category: CategoryShield, PowerConsumed: 1, Shield: 2},

	// Hull
	"hull_plating":          {ID: "hull_plating", Name: "Hull Plating", Category: CategoryHull, ExtraHP: 1},
	"improved_hull":         {ID: "improved_hull", Name: "Improved Hull", Category: CategoryHull, ExtraHP: 2},
	"conifold_field":        {ID: "conifold_field", Name: "Conifold Field", Category: CategoryHull, PowerConsumed: 2, ExtraHP: 3},
	"sentient_hull_plating": {ID: "sentient_hull_plating", Name: "Sentient Hull", Category: CategoryHull, ExtraHP: 1},
}

var hulls = map[string]HullClass{
	"interceptor": {ShipType: "interceptor", Slots: 4, BaseHP: 1, BaseInitiative: 2, Moveable: true, MaterialCost: 3},
	"cruiser":     {ShipType: "cruiser", Slots: 6, BaseHP: 1, BaseInitiative: 1, Moveable: true, MaterialCost: 5},
	"dreadnought": {ShipType: "dreadnought", Slots: 8, BaseHP: 2, BaseInitiative: 0, Moveable: true, MaterialCost: 8},
	"starbase":    {ShipType: "starbase", Slots: 5, BaseHP: 3, BaseInitiative: 4, Moveable: false, MaterialCost: 3},
}

// PartByID returns a part definition.
func PartByID(id string) (Part, bool) {
	p, ok := parts[id]
	return p, ok
}

// HullByType returns a hull class definition.
func HullByType(shipType string) (HullClass, bool) {
	h, ok := hulls[shipType]
	return h, ok
}

// DefaultSlots returns the starter blueprint for a hull type.
func DefaultSlots(shipType string) []string {
	switch shipType {
	case "interceptor":
		return []string{"ion_cannon", "nuclear_source", "electron_drive", ""}
	case "cruiser":
		return []string{"ion_cannon", "electron_computer", "hull_plating", "nuclear_source", "electron_drive", ""}
	case "dreadnought":
		return []string{"ion_cannon", "ion_cannon", "electron_computer", "hull_plating", "hull_plating", "nuclear_source", "electron_drive", ""}
	case "starbase":
		return []string{"ion_cannon", "electron_computer", "hull_plating", "nuclear_source", ""}
	default:
		return nil
	}
}
