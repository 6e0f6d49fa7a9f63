// Package damage computes the effect of a move. Both peers run the same
// computation on the same inputs and compare results, so everything here
// is a pure function of its arguments.
package damage

import (
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
)

const (
	// BoostMultiplier scales a special stat while its boost is active.
	BoostMultiplier = 1.5
	// STABMultiplier applies when the move shares a type with the attacker.
	STABMultiplier = 1.5
	// MinFactor and MaxFactor bound the random factor.
	MinFactor = 0.85
	MaxFactor = 1.0
	// MinDamage is the smallest value Resolve returns.
	MinDamage = 1
)

// Input is everything a damage computation depends on.
type Input struct {
	Move     combatant.Move
	Attacker *combatant.Combatant
	Defender *combatant.Combatant
	// AttackBoost and DefenseBoost only affect special moves.
	AttackBoost  bool
	DefenseBoost bool
	Seed         uint64
}

// Result is a resolved damage value with its intermediate terms, for logs.
type Result struct {
	Damage        int
	Base          float64
	Effectiveness float64
	STAB          bool
	Factor        float64
}

// Resolve computes the damage dealt by in.Move.
func Resolve(in Input) Result {
	var offense, defense float64
	if in.Move.IsSpecial() {
		offense = float64(in.Attacker.Stats.SpAttack)
		defense = float64(in.Defender.Stats.SpDefense)
		if in.AttackBoost {
			offense *= BoostMultiplier
		}
		if in.DefenseBoost {
			defense *= BoostMultiplier
		}
	} else {
		offense = float64(in.Attacker.Stats.Attack)
		defense = float64(in.Defender.Stats.Defense)
	}
	if defense <= 0 {
		defense = 1
	}

	res := Result{
		Base:          float64(in.Move.Power) * (offense / defense),
		Effectiveness: in.Defender.Against(in.Move.Type),
		STAB:          in.Attacker.HasType(in.Move.Type),
		Factor:        RandomFactor(in.Seed, PairingKey(in.Attacker.Name, in.Defender.Name)),
	}

	value := res.Base * res.Effectiveness
	if res.STAB {
		value *= STABMultiplier
	}
	value *= res.Factor

	res.Damage = max(MinDamage, int(math.Round(value)))
	return res
}

// Compute is Resolve returning only the damage.
func Compute(in Input) int {
	return Resolve(in).Damage
}

// PairingKey identifies an attacker/defender pair. It is direction
// sensitive and ignores case.
func PairingKey(attacker, defender string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(attacker)))
	h.Write([]byte("->"))
	h.Write([]byte(strings.ToUpper(defender)))
	return h.Sum64()
}

// RandomFactor derives a value in [MinFactor, MaxFactor) from the battle
// seed and a pairing key.
func RandomFactor(seed, pairing uint64) float64 {
	r := rand.New(rand.NewPCG(seed, pairing)).Float64()
	return MinFactor + (MaxFactor-MinFactor)*r
}
