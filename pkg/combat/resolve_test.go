package combat

import "testing"

// scriptRNG returns a fixed roll sequence (repeating the last value once
// exhausted) and always picks the first living target.
type scriptRNG struct {
	rolls []int
	i     int
}

func (s *scriptRNG) Roll() int {
	if s.i < len(s.rolls) {
		v := s.rolls[s.i]
		s.i++
		return v
	}
	return s.rolls[len(s.rolls)-1]
}

func (s *scriptRNG) Pick(int) int { return 0 }

func alwaysHit() RNG  { return &scriptRNG{rolls: []int{6}} }
func alwaysMiss() RNG { return &scriptRNG{rolls: []int{1}} }

func testUnit(id string, f Faction, hp, initiative int, weapons ...Weapon) *Unit {
	return NewUnit(id, f, hp, hp, initiative, 0, 0, weapons)
}

func TestHitBoundary(t *testing.T) {
	tests := []struct {
		roll, accuracy, defense int
		want                    bool
	}{
		{6, 0, 0, true},
		{5, 0, 0, false},
		{4, 2, 0, true},
		{6, 0, 2, false},
		{1, 5, 0, true},
		{1, 0, 0, false},
	}
	for _, tc := range tests {
		if got := Hits(tc.roll, tc.accuracy, tc.defense); got != tc.want {
			t.Errorf("Hits(%d, %d, %d) = %v, want %v", tc.roll, tc.accuracy, tc.defense, got, tc.want)
		}
	}
}

func TestSimultaneousLethalDamage(t *testing.T) {
	// Two units guaranteed to land a lethal hit on each other in the same
	// phase must both end that phase at 0 HP.
	a := testUnit("a1", PlayerFaction("p1"), 2, 3, Weapon{Damage: 2, Phase: PhaseMain})
	b := testUnit("b1", PlayerFaction("p2"), 2, 1, Weapon{Damage: 2, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{a, b}}

	res, err := Resolve(enc, alwaysHit())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.HP != 0 || b.HP != 0 {
		t.Errorf("expected both units at 0 HP, got a=%d b=%d", a.HP, b.HP)
	}
	if res.Winner != WinnerDraw {
		t.Errorf("expected draw, got %s", res.Winner)
	}
	if len(res.Destroyed) != 2 {
		t.Errorf("expected 2 destroyed units, got %d", len(res.Destroyed))
	}
}

func TestMutualDestructionRoundOne(t *testing.T) {
	// End-to-end property: two 1-HP units, always-hit rolls, one weapon
	// each. Both die in round 1's resolving phase, outcome is a draw, and
	// no VP is awarded to either side.
	a := testUnit("a1", PlayerFaction("p1"), 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	b := testUnit("b1", PlayerFaction("p2"), 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{a, b}}

	res, err := Resolve(enc, alwaysHit())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, e := range res.Log {
		if e.Round > 1 {
			t.Errorf("combat should end in round 1, saw entry for round %d", e.Round)
		}
	}
	if res.Winner != WinnerDraw {
		t.Errorf("expected draw, got %s", res.Winner)
	}
	if len(res.Awards) != 0 {
		t.Errorf("draw must award no VP, got %v", res.Awards)
	}
}

func TestDestroyedUnitNeverFiresAgain(t *testing.T) {
	// a1 has an opening weapon that kills b1 before main weapons fire.
	// b1 carries a main weapon it must never get to use, in this round
	// or any later one.
	a := testUnit("a1", PlayerFaction("p1"), 2, 1, Weapon{Damage: 5, Phase: PhaseOpening})
	b := testUnit("b1", PlayerFaction("p2"), 2, 9, Weapon{Damage: 1, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{a, b}}

	res, err := Resolve(enc, alwaysHit())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, e := range res.Log {
		if e.Event == EventShot && e.Shooter == "b1" {
			t.Errorf("destroyed unit fired in round %d phase %s", e.Round, e.Phase)
		}
	}
	if res.Winner != WinnerSideA {
		t.Errorf("expected side_a win, got %s", res.Winner)
	}
}

func TestShooterAtZeroPendingHPStillFiresInSamePhase(t *testing.T) {
	// Simultaneity also holds with uneven initiative: the slower unit has
	// already absorbed a lethal pending hit when its turn comes, but it
	// still fires because damage only lands at the end of the phase.
	fast := testUnit("a1", PlayerFaction("p1"), 1, 5, Weapon{Damage: 1, Phase: PhaseMain})
	slow := testUnit("b1", PlayerFaction("p2"), 1, 0, Weapon{Damage: 1, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{fast, slow}}

	res, err := Resolve(enc, alwaysHit())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	slowFired := false
	for _, e := range res.Log {
		if e.Event == EventShot && e.Shooter == "b1" {
			slowFired = true
		}
	}
	if !slowFired {
		t.Error("slower unit should still fire in the phase it dies")
	}
	if res.Winner != WinnerDraw {
		t.Errorf("expected draw, got %s", res.Winner)
	}
}

func TestAllMissesTerminatesAtRoundCap(t *testing.T) {
	a := testUnit("a1", PlayerFaction("p1"), 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	b := testUnit("b1", PlayerFaction("p2"), 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{a, b}}

	res, err := Resolve(enc, alwaysMiss())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Winner != WinnerDraw {
		t.Errorf("expected draw at round cap, got %s", res.Winner)
	}
	maxRound := 0
	for _, e := range res.Log {
		if e.Round > maxRound {
			maxRound = e.Round
		}
	}
	if maxRound != MaxRounds {
		t.Errorf("expected combat to run %d rounds, got %d", MaxRounds, maxRound)
	}
	last := res.Log[len(res.Log)-1]
	if last.Event != EventEnd || last.Winner != WinnerDraw {
		t.Errorf("expected terminal combat_end draw entry, got %+v", last)
	}
}

func TestFiringOrderByInitiativeDescending(t *testing.T) {
	a1 := testUnit("a1", PlayerFaction("p1"), 5, 2, Weapon{Damage: 1, Phase: PhaseMain})
	a2 := testUnit("a2", PlayerFaction("p1"), 5, 7, Weapon{Damage: 1, Phase: PhaseMain})
	b1 := testUnit("b1", PlayerFaction("p2"), 5, 4, Weapon{Damage: 1, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{a1, a2, b1}}

	res, err := Resolve(enc, &scriptRNG{rolls: []int{1}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var order []string
	for _, e := range res.Log {
		if e.Event == EventShot && e.Round == 1 {
			order = append(order, e.Shooter)
		}
	}
	want := []string{"a2", "b1", "a1"}
	if len(order) != len(want) {
		t.Fatalf("expected %d shots in round 1, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("shot %d fired by %s, want %s", i, order[i], want[i])
		}
	}
}

func TestEnvironmentalMergesPlayerFactions(t *testing.T) {
	p1 := testUnit("a1", PlayerFaction("p1"), 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	p2 := testUnit("a2", PlayerFaction("p2"), 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	env := testUnit("e1", Environmental, 1, 1, Weapon{Damage: 1, Phase: PhaseMain})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{p1, p2, env}}

	sideA, sideB, err := assignSides(enc)
	if err != nil {
		t.Fatalf("assignSides: %v", err)
	}
	if len(sideA) != 2 || len(sideB) != 1 {
		t.Errorf("expected players merged vs environmental, got %d vs %d", len(sideA), len(sideB))
	}
	if !sideB[0].Faction.IsEnvironmental() {
		t.Error("side B should hold the environmental units")
	}
}

func TestThreePlayerFactionsPairsFirstTwo(t *testing.T) {
	p1 := testUnit("a1", PlayerFaction("p1"), 1, 1)
	p2 := testUnit("b1", PlayerFaction("p2"), 1, 1)
	p3 := testUnit("c1", PlayerFaction("p3"), 1, 1)
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{p1, p2, p3}}

	sideA, sideB, err := assignSides(enc)
	if err != nil {
		t.Fatalf("assignSides: %v", err)
	}
	if len(sideA) != 1 || sideA[0].ID != "a1" {
		t.Errorf("side A should be the first discovered faction, got %+v", sideA)
	}
	if len(sideB) != 1 || sideB[0].ID != "b1" {
		t.Errorf("side B should be the second discovered faction, got %+v", sideB)
	}
}

func TestVictoryPointAwards(t *testing.T) {
	// p1 and p2 fight the environment: a guardian (2 pts) plus p2's only
	// unit go down while p1 survives. p1 banks the full 3 points.
	p1 := NewUnit("a1", PlayerFaction("p1"), 3, 3, 5, 2, 0, []Weapon{{Damage: 2, Phase: PhaseMain}})
	p2 := NewUnit("a2", PlayerFaction("p2"), 1, 1, 1, 0, 0, []Weapon{{Damage: 1, Phase: PhaseMain}})
	env := NewUnit("e1", Environmental, 2, 2, 4, 0, 0, []Weapon{{Damage: 1, Phase: PhaseMain}})
	enc := &Encounter{Cell: "hex-1", Units: []*Unit{p1, p2, env}}

	// Round 1 main phase shot order by initiative: a1 (init 5), e1 (init 4),
	// a2 (init 1). Scripted rolls: a1 hits e1 (6), e1 hits first living
	// player target a1... Pick always selects index 0, so target selection
	// is the first living unit on the opposing side. Make e1 kill a2 by
	// ordering units so a2 is first on the player side.
	enc.Units = []*Unit{p2, p1, env} // discovery order: p2 first
	sideRNG := &scriptRNG{rolls: []int{
		// round 1 main: a1 fires at e1 (hit, 2 dmg: e1 destroyed),
		// e1 fires at a2 (hit: a2 destroyed), a2 fires at e1 (miss).
		6, 6, 1,
	}}
	res, err := Resolve(enc, sideRNG)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Winner != WinnerSideA {
		t.Fatalf("expected side_a win, got %s", res.Winner)
	}
	if got := res.Awards[PlayerFaction("p1")]; got != 3 {
		t.Errorf("p1 should earn 3 VP (2 environmental + 1 player), got %d", got)
	}
	if _, ok := res.Awards[PlayerFaction("p2")]; ok {
		t.Error("wiped-out faction p2 must not receive VP")
	}
}

func TestLoadoutStatsOwnedPerUnit(t *testing.T) {
	weapons := []Weapon{{Damage: 1, Phase: PhaseMain}}
	u1 := NewUnit("a1", PlayerFaction("p1"), 1, 1, 1, 0, 0, weapons)
	u2 := NewUnit("a2", PlayerFaction("p1"), 1, 1, 1, 0, 0, weapons)
	u1.Weapons[0].Damage = 99
	if u2.Weapons[0].Damage != 1 {
		t.Error("units must not share weapon slices")
	}
	if weapons[0].Damage != 1 {
		t.Error("NewUnit must copy the caller's weapon slice")
	}
}
