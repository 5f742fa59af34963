package combat

import (
	"math/rand/v2"
	"sort"
)

// MaxRounds caps the round loop so a combat where both sides perpetually
// miss still terminates (as a draw).
const MaxRounds = 10

// hitThreshold is the value roll + accuracy - defense must reach to hit.
// A natural 6 always suffices against equal accuracy and defense.
const hitThreshold = 6

// RNG supplies the random draws used during resolution. Injecting it keeps
// resolutions replayable: tests script fixed roll sequences, production
// wraps math/rand.
type RNG interface {
	// Roll returns a die roll uniformly in [1, 6].
	Roll() int
	// Pick returns a uniform index in [0, n). n is always >= 1.
	Pick(n int) int
}

type stdRNG struct{ r *rand.Rand }

// NewRNG returns an RNG backed by math/rand/v2 with the given seed.
func NewRNG(seed uint64) RNG {
	return &stdRNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *stdRNG) Roll() int      { return s.r.IntN(6) + 1 }
func (s *stdRNG) Pick(n int) int { return s.r.IntN(n) }

// Hits applies the hit rule: a shot hits iff roll + accuracy - defense >= 6.
func Hits(roll, accuracy, defense int) bool {
	return roll+accuracy-defense >= hitThreshold
}

// Entry is one event in an encounter's combat log.
type Entry struct {
	Round     int    `json:"round,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Event     string `json:"event"`
	Shooter   string `json:"shooter,omitempty"`
	Target    string `json:"target,omitempty"`
	Roll      int    `json:"roll,omitempty"`
	Accuracy  int    `json:"accuracy,omitempty"`
	Defense   int    `json:"defense,omitempty"`
	Hit       bool   `json:"hit,omitempty"`
	Damage    int    `json:"damage,omitempty"`
	HPBefore  *int   `json:"hp_before,omitempty"`
	HPAfter   *int   `json:"hp_after,omitempty"`
	Destroyed bool   `json:"destroyed,omitempty"`
	Winner    string `json:"winner,omitempty"`
}

// Log event names.
const (
	EventShot   = "shot"
	EventDamage = "damage"
	EventEnd    = "combat_end"
)

// Winner labels for the terminal log entry.
const (
	WinnerSideA = "side_a"
	WinnerSideB = "side_b"
	WinnerDraw  = "draw"
)

// Result is the outcome of resolving one encounter.
type Result struct {
	// Log holds every shot, damage application, and the terminal event.
	Log []Entry
	// SideA and SideB are the assigned sides with final HP values.
	SideA, SideB []*Unit
	// Winner is WinnerSideA, WinnerSideB, or WinnerDraw.
	Winner string
	// Destroyed lists every unit reduced to zero HP, both sides.
	Destroyed []*Unit
	// Awards maps each surviving player faction on the winning side to its
	// VP total. Every entry carries the full sum, not a divided share.
	Awards map[Faction]int
}

// Resolve simulates the encounter to completion, mutating unit HP in place.
// Each round runs the opening phase then the main phase; damage within a
// phase lands simultaneously after every shooter has fired. The loop stops
// once a side has no living units, or after MaxRounds.
func Resolve(enc *Encounter, rng RNG) (*Result, error) {
	sideA, sideB, err := assignSides(enc)
	if err != nil {
		return nil, err
	}

	res := &Result{SideA: sideA, SideB: sideB}
	for round := 1; round <= MaxRounds; round++ {
		if !anyAlive(sideA) || !anyAlive(sideB) {
			break
		}
		resolveRound(res, sideA, sideB, round, rng)
	}

	switch {
	case anyAlive(sideA) && !anyAlive(sideB):
		res.Winner = WinnerSideA
	case anyAlive(sideB) && !anyAlive(sideA):
		res.Winner = WinnerSideB
	default:
		res.Winner = WinnerDraw
	}
	res.Log = append(res.Log, Entry{Event: EventEnd, Winner: res.Winner})

	for _, u := range enc.Units {
		if u.Destroyed() {
			res.Destroyed = append(res.Destroyed, u)
		}
	}
	res.Awards = awardVictoryPoints(res)
	return res, nil
}

// resolveRound runs one full combat round (opening phase then main phase).
func resolveRound(res *Result, sideA, sideB []*Unit, round int, rng RNG) {
	for _, phase := range []WeaponPhase{PhaseOpening, PhaseMain} {
		// Firing order: every living unit from both sides, initiative
		// descending, stable on ties. A unit that reaches 0 pending HP
		// during this phase keeps firing until the phase applies damage.
		shooters := make([]*Unit, 0, len(sideA)+len(sideB))
		for _, u := range sideA {
			if u.Alive() {
				shooters = append(shooters, u)
			}
		}
		for _, u := range sideB {
			if u.Alive() {
				shooters = append(shooters, u)
			}
		}
		sort.SliceStable(shooters, func(i, j int) bool {
			return shooters[i].Initiative > shooters[j].Initiative
		})

		pending := make(map[*Unit]int)
		var order []*Unit // damage application order, first-hit first

		for _, shooter := range shooters {
			enemies := sideB
			if contains(sideB, shooter) {
				enemies = sideA
			}
			for _, w := range shooter.Weapons {
				if w.Phase != phase {
					continue
				}
				target := pickTarget(enemies, rng)
				if target == nil {
					break
				}
				roll := rng.Roll()
				hit := Hits(roll, shooter.Accuracy, target.Defense)
				damage := 0
				if hit {
					damage = w.Damage
					if _, seen := pending[target]; !seen {
						order = append(order, target)
					}
					pending[target] += damage
				}
				res.Log = append(res.Log, Entry{
					Round:    round,
					Phase:    phase.String(),
					Event:    EventShot,
					Shooter:  shooter.ID,
					Target:   target.ID,
					Roll:     roll,
					Accuracy: shooter.Accuracy,
					Defense:  target.Defense,
					Hit:      hit,
					Damage:   damage,
				})
			}
		}

		// Simultaneous damage: nothing lands until every shooter has fired.
		for _, target := range order {
			before := target.HP
			target.HP = max(0, before-pending[target])
			after := target.HP
			res.Log = append(res.Log, Entry{
				Round:     round,
				Phase:     phase.String(),
				Event:     EventDamage,
				Target:    target.ID,
				Damage:    pending[target],
				HPBefore:  &before,
				HPAfter:   &after,
				Destroyed: target.HP == 0,
			})
		}
	}
}

// pickTarget returns a uniformly random living enemy, or nil if none remain.
func pickTarget(enemies []*Unit, rng RNG) *Unit {
	alive := make([]*Unit, 0, len(enemies))
	for _, e := range enemies {
		if e.Alive() {
			alive = append(alive, e)
		}
	}
	if len(alive) == 0 {
		return nil
	}
	return alive[rng.Pick(len(alive))]
}

// awardVictoryPoints credits the winning side for kills: 1 VP per destroyed
// player-owned unit, 2 VP per destroyed environmental unit. Counted kills
// are every destroyed unit whose faction has no living member on the
// winning side, so a merged side's wiped-out co-belligerent counts toward
// the survivors' total. Each surviving player faction on the winning side
// receives the full sum, not a divided share. A draw awards nothing.
func awardVictoryPoints(res *Result) map[Faction]int {
	awards := make(map[Faction]int)
	var winners []*Unit
	switch res.Winner {
	case WinnerSideA:
		winners = res.SideA
	case WinnerSideB:
		winners = res.SideB
	default:
		return awards
	}

	surviving := make(map[Faction]bool)
	for _, u := range winners {
		if u.Alive() && !u.Faction.IsEnvironmental() {
			surviving[u.Faction] = true
		}
	}
	if len(surviving) == 0 {
		return awards
	}

	sum := 0
	for _, u := range res.Destroyed {
		if surviving[u.Faction] {
			continue
		}
		if u.Faction.IsEnvironmental() {
			sum += 2
		} else {
			sum++
		}
	}
	if sum == 0 {
		return awards
	}
	for f := range surviving {
		awards[f] = sum
	}
	return awards
}

func anyAlive(units []*Unit) bool {
	for _, u := range units {
		if u.Alive() {
			return true
		}
	}
	return false
}

func contains(units []*Unit, u *Unit) bool {
	for _, x := range units {
		if x == u {
			return true
		}
	}
	return false
}
