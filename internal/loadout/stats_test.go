package loadout

import (
	"testing"

	"github.com/freeeve/second-dawn/pkg/combat"
)

func TestFromSlotsDefaultInterceptor(t *testing.T) {
	s := FromSlots("interceptor", DefaultSlots("interceptor"))
	if s.MaxHP != 1 {
		t.Errorf("MaxHP = %d, want 1", s.MaxHP)
	}
	if s.Initiative != 2 {
		t.Errorf("Initiative = %d, want 2", s.Initiative)
	}
	if s.Movement != 1 {
		t.Errorf("Movement = %d, want 1", s.Movement)
	}
	if len(s.Weapons) != 1 || s.Weapons[0].Damage != 1 || s.Weapons[0].Phase != combat.PhaseMain {
		t.Errorf("Weapons = %+v, want one main-phase damage-1 cannon", s.Weapons)
	}
}

func TestFromSlotsAggregates(t *testing.T) {
	slots := []string{
		"plasma_cannon", "flux_missile",
		"positron_computer", "electron_computer",
		"gauss_shield", "phase_shield",
		"hull_plating", "improved_hull",
	}
	s := FromSlots("dreadnought", slots)
	if s.Accuracy != 3 {
		t.Errorf("Accuracy = %d, want 3", s.Accuracy)
	}
	if s.Defense != 3 {
		t.Errorf("Defense = %d, want 3", s.Defense)
	}
	// dreadnought base 0 + computer accuracy 2 + 1
	if s.Initiative != 3 {
		t.Errorf("Initiative = %d, want 3", s.Initiative)
	}
	// dreadnought base 2 + plating 1 + improved 2
	if s.MaxHP != 5 {
		t.Errorf("MaxHP = %d, want 5", s.MaxHP)
	}
	if len(s.Weapons) != 2 {
		t.Fatalf("Weapons = %d, want 2", len(s.Weapons))
	}
	var opening, main int
	for _, w := range s.Weapons {
		if w.Phase == combat.PhaseOpening {
			opening++
		} else {
			main++
		}
	}
	if opening != 1 || main != 1 {
		t.Errorf("phases opening=%d main=%d, want 1/1", opening, main)
	}
}

func TestFromSlotsUnknownHullAndParts(t *testing.T) {
	s := FromSlots("mystery", []string{"", "not_a_part", "ion_cannon"})
	if s.MaxHP != fallbackHP || s.Initiative != fallbackInitiative {
		t.Errorf("fallback profile = %+v", s)
	}
	if len(s.Weapons) != 1 {
		t.Errorf("Weapons = %d, want 1", len(s.Weapons))
	}
}

func TestEnvironmentalProfiles(t *testing.T) {
	a := AncientInterceptor()
	if a.Accuracy != 2 || a.Initiative != 4 || a.Defense != 1 || a.MaxHP != 1 {
		t.Errorf("ancient = %+v", a)
	}
	if len(a.Weapons) != 1 || a.Weapons[0].Damage != 2 {
		t.Errorf("ancient weapons = %+v", a.Weapons)
	}

	g := GalacticCenterDefense()
	if g.Accuracy != 2 || g.Initiative != 4 || g.Defense != 3 || g.MaxHP != 2 {
		t.Errorf("gcds = %+v", g)
	}
	if len(g.Weapons) != 2 || g.Weapons[0].Damage != 4 || g.Weapons[1].Damage != 4 {
		t.Errorf("gcds weapons = %+v", g.Weapons)
	}
}
