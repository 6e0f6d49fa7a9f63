// Package combatant models the entities that fight in a battle: their
// stats, elemental types, type-effectiveness table, and move list.
package combatant

import (
	"fmt"
	"maps"
	"slices"

	"golang.org/x/text/cases"

	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// NormalType is the elemental type used when none is known.
const NormalType = "Normal"

// fold case-folds names for lookup. cases.Caser is not safe for
// concurrent use, so each call makes its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Key returns the lookup key for a combatant, move, or type name.
func Key(name string) string {
	return fold(name)
}

// Stats holds the six numeric fields advertised in battle setup.
type Stats struct {
	MaxHP     int `yaml:"max_hp" json:"max_hp"`
	Attack    int `yaml:"attack" json:"attack"`
	Defense   int `yaml:"defense" json:"defense"`
	SpAttack  int `yaml:"sp_attack" json:"sp_attack"`
	SpDefense int `yaml:"sp_defense" json:"sp_defense"`
	Speed     int `yaml:"speed" json:"speed"`
}

// Slice returns the stats in wire order: max health, attack, defense,
// special-attack, special-defense, speed.
func (s Stats) Slice() []int {
	return []int{s.MaxHP, s.Attack, s.Defense, s.SpAttack, s.SpDefense, s.Speed}
}

// StatsFromSlice is the inverse of Stats.Slice.
func StatsFromSlice(v []int) (Stats, error) {
	if len(v) != StatCount {
		return Stats{}, errors.NewValidationError(fmt.Sprintf("expected %d stats, got %d", StatCount, len(v))).
			WithField("stats").
			WithValue(len(v))
	}
	return Stats{
		MaxHP:     v[0],
		Attack:    v[1],
		Defense:   v[2],
		SpAttack:  v[3],
		SpDefense: v[4],
		Speed:     v[5],
	}, nil
}

// StatCount is the number of fields in Stats.
const StatCount = 6

// Combatant is one battling entity.
//
// A Combatant is not safe for concurrent use. The protocol session owns
// its copies and mutates them only under its own lock.
type Combatant struct {
	Name        string
	Stats       Stats
	Types       []string
	IsLegendary bool

	hp        int
	against   map[string]float64 // folded type -> multiplier
	moves     []Move
	moveIndex map[string]int // folded move name -> index into moves
}

// New creates a Combatant at full health. Empty type names are dropped;
// with no types left the combatant is NormalType.
func New(name string, stats Stats, types ...string) *Combatant {
	var kept []string
	for _, t := range types {
		if t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		kept = []string{NormalType}
	}
	if len(kept) > 2 {
		kept = kept[:2]
	}
	if stats.MaxHP < 0 {
		stats.MaxHP = 0
	}
	return &Combatant{
		Name:      name,
		Stats:     stats,
		Types:     kept,
		hp:        stats.MaxHP,
		against:   make(map[string]float64),
		moveIndex: make(map[string]int),
	}
}

// HP returns current health.
func (c *Combatant) HP() int { return c.hp }

// SetHP sets current health, clamped to [0, MaxHP].
func (c *Combatant) SetHP(hp int) {
	c.hp = min(max(hp, 0), c.Stats.MaxHP)
}

// ApplyDamage lowers current health by amount, floored at zero, and
// returns the new value.
func (c *Combatant) ApplyDamage(amount int) int {
	c.SetHP(c.hp - amount)
	return c.hp
}

// Fainted reports whether health has reached zero.
func (c *Combatant) Fainted() bool { return c.hp <= 0 }

// HasType reports whether t is one of the combatant's elemental types.
func (c *Combatant) HasType(t string) bool {
	k := fold(t)
	for _, own := range c.Types {
		if fold(own) == k {
			return true
		}
	}
	return false
}

// SetAgainst records the multiplier applied to moves of type t.
func (c *Combatant) SetAgainst(t string, multiplier float64) {
	c.against[fold(t)] = multiplier
}

// Against returns the damage multiplier for an incoming move of type t,
// or 1.0 if the type is not listed.
func (c *Combatant) Against(t string) float64 {
	if m, ok := c.against[fold(t)]; ok {
		return m
	}
	return 1.0
}

// AgainstTable returns a copy of the type-effectiveness table, keyed by
// folded type name.
func (c *Combatant) AgainstTable() map[string]float64 {
	return maps.Clone(c.against)
}

// AddMove appends m to the move list. A move with the same folded name
// is replaced in place, keeping its position.
func (c *Combatant) AddMove(m Move) {
	k := fold(m.Name)
	if i, ok := c.moveIndex[k]; ok {
		c.moves[i] = m
		return
	}
	c.moveIndex[k] = len(c.moves)
	c.moves = append(c.moves, m)
}

// Move looks up a move by name, ignoring case.
func (c *Combatant) Move(name string) (Move, bool) {
	i, ok := c.moveIndex[fold(name)]
	if !ok {
		return Move{}, false
	}
	return c.moves[i], true
}

// Moves returns the moves in insertion order.
func (c *Combatant) Moves() []Move {
	return slices.Clone(c.moves)
}

// WithStats returns an independent copy carrying the given stats at full
// health. Types, table and moves are kept.
func (c *Combatant) WithStats(stats Stats) *Combatant {
	out := c.Clone()
	if stats.MaxHP < 0 {
		stats.MaxHP = 0
	}
	out.Stats = stats
	out.hp = stats.MaxHP
	return out
}

// Clone returns a deep copy. Mutating the copy never affects c.
func (c *Combatant) Clone() *Combatant {
	return &Combatant{
		Name:        c.Name,
		Stats:       c.Stats,
		Types:       slices.Clone(c.Types),
		IsLegendary: c.IsLegendary,
		hp:          c.hp,
		against:     maps.Clone(c.against),
		moves:       slices.Clone(c.moves),
		moveIndex:   maps.Clone(c.moveIndex),
	}
}

// PrimaryType returns the first elemental type.
func (c *Combatant) PrimaryType() string {
	return c.Types[0]
}

func (c *Combatant) String() string {
	return fmt.Sprintf("%s (HP:%d/%d A:%d D:%d SA:%d SD:%d S:%d %v)",
		c.Name, c.hp, c.Stats.MaxHP, c.Stats.Attack, c.Stats.Defense,
		c.Stats.SpAttack, c.Stats.SpDefense, c.Stats.Speed, c.Types)
}
