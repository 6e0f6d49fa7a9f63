package protocol

import (
	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/damage"
	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

// actionError explains why a user action is not allowed right now.
func (s *Session) actionError(action string) error {
	if s.state.IsTerminal() {
		return errors.NewSequencingError(string(s.state), action).WithCause(errors.ErrGameOver)
	}
	return errors.NewSequencingError(string(s.state), action).WithCause(errors.ErrNotYourTurn)
}

// Attack announces moveName. Valid only in READY_TO_ATTACK. An unknown
// move is a LookupError and changes nothing.
func (s *Session) Attack(moveName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReadyToAttack {
		return s.actionError("attack")
	}
	move, ok := s.self.Move(moveName)
	if !ok {
		return errors.NewLookupError(errors.LookupMove, moveName).WithOwner(s.self.Name)
	}

	boost := s.attackBoostArmed
	announce := wire.AttackAnnounce{Move: move.Name, SpecialAttackBoost: boost}
	if err := s.send(announce.Message()); err != nil {
		return err
	}

	s.attackBoostArmed = false
	s.turn = turnState{attacking: true, move: move.Name, attackBoost: boost}
	s.logger.Info("attack announced", "move", move.Name, "special_attack_boost", boost, "turn", s.turnNo)
	s.transition(StateAwaitingResolution)
	return nil
}

// Boost spends a special-attack boost on the next attack. Valid only in
// READY_TO_ATTACK, with a boost remaining and none already armed.
func (s *Session) Boost() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReadyToAttack {
		return s.actionError("boost")
	}
	if s.attackBoostArmed {
		return errors.NewValidationError("special attack boost already active")
	}
	if s.attackBoosts <= 0 {
		return errors.NewValidationError("no special attack boosts left").WithCause(errors.ErrNoBoostsRemaining)
	}

	if err := s.send(wire.BoostRequest{Kind: wire.BoostSpecialAttack}.Message()); err != nil {
		return err
	}
	s.attackBoosts--
	s.attackBoostArmed = true
	s.logger.Info("boost armed", "kind", string(wire.BoostSpecialAttack), "remaining", s.attackBoosts)
	s.publish(event.NewBoostEvent(s.id, event.SideSelf, string(wire.BoostSpecialAttack), s.attackBoosts))
	return nil
}

// onAttackAnnounce: the defender computes damage against itself and asks
// the attacker to confirm it.
func (s *Session) onAttackAnnounce(msg *wire.Message) error {
	if s.state != StateReadyToDefend {
		return s.unexpected(msg.Type)
	}
	announce, err := msg.AsAttackAnnounce()
	if err != nil {
		return err
	}
	move, ok := s.opponent.Move(announce.Move)
	if !ok {
		return errors.NewLookupError(errors.LookupMove, announce.Move).WithOwner(s.opponent.Name)
	}

	defenseBoost := s.cfg.AutoDefenseBoost && move.IsSpecial() && s.defenseBoosts > 0

	res := damage.Resolve(damage.Input{
		Move:         move,
		Attacker:     s.opponent,
		Defender:     s.self,
		AttackBoost:  announce.SpecialAttackBoost,
		DefenseBoost: defenseBoost,
		Seed:         s.seed,
	})

	if defenseBoost {
		if err := s.send(wire.BoostRequest{Kind: wire.BoostSpecialDefense}.Message()); err != nil {
			return err
		}
	}
	req := wire.ResolutionRequest{
		Move:                move.Name,
		Damage:              res.Damage,
		SpecialAttackBoost:  announce.SpecialAttackBoost,
		SpecialDefenseBoost: defenseBoost,
	}
	if err := s.send(req.Message()); err != nil {
		return err
	}

	// The boost is spent only once the request is out.
	if defenseBoost {
		s.defenseBoosts--
		s.logger.Info("defense boost spent", "remaining", s.defenseBoosts)
		s.publish(event.NewBoostEvent(s.id, event.SideSelf, string(wire.BoostSpecialDefense), s.defenseBoosts))
	}
	s.turn = turnState{
		move:         move.Name,
		attackBoost:  announce.SpecialAttackBoost,
		defenseBoost: defenseBoost,
		damage:       res.Damage,
	}
	s.logger.Info("damage computed",
		"move", move.Name,
		"damage", res.Damage,
		"effectiveness", res.Effectiveness,
		"stab", res.STAB,
		"factor", res.Factor,
		"turn", s.turnNo)
	s.transition(StateAwaitingResolution)
	return nil
}

// onResolutionRequest: the attacker recomputes with the defender's inputs.
// On a match it applies the damage to the opponent copy and reports it;
// on a mismatch the turn stalls.
func (s *Session) onResolutionRequest(msg *wire.Message) error {
	if s.state != StateAwaitingResolution || !s.turn.attacking {
		return s.unexpected(msg.Type)
	}
	req, err := msg.AsResolutionRequest()
	if err != nil {
		return err
	}
	if combatant.Key(req.Move) != combatant.Key(s.turn.move) {
		return errors.NewSequencingError(string(s.state), string(msg.Type)+" for "+req.Move)
	}
	move, ok := s.self.Move(s.turn.move)
	if !ok {
		return errors.NewLookupError(errors.LookupMove, s.turn.move).WithOwner(s.self.Name)
	}

	local := damage.Compute(damage.Input{
		Move:         move,
		Attacker:     s.self,
		Defender:     s.opponent,
		AttackBoost:  s.turn.attackBoost,
		DefenseBoost: req.SpecialDefenseBoost,
		Seed:         s.seed,
	})
	if local != req.Damage {
		return s.mismatch(move.Name, local, req.Damage)
	}

	if err := s.send(wire.CalculationReport{Move: move.Name, Damage: local}.Message()); err != nil {
		return err
	}
	s.turn.defenseBoost = req.SpecialDefenseBoost
	s.turn.damage = local
	s.applyDamage(s.opponent, event.SidePeer, s.self.Name, move.Name, local)
	s.transition(StateAwaitingConfirmation)
	return nil
}

// onCalculationReport: the defender checks the attacker's value against
// its own and applies it to itself.
func (s *Session) onCalculationReport(msg *wire.Message) error {
	if s.state != StateAwaitingResolution || s.turn.attacking {
		return s.unexpected(msg.Type)
	}
	report, err := msg.AsCalculationReport()
	if err != nil {
		return err
	}
	if report.Damage != s.turn.damage {
		return s.mismatch(s.turn.move, s.turn.damage, report.Damage)
	}

	if err := s.send(wire.CalculationConfirm{}.Message()); err != nil {
		return err
	}
	s.applyDamage(s.self, event.SideSelf, s.opponent.Name, s.turn.move, report.Damage)
	s.transition(StateAwaitingConfirmation)
	return nil
}

// onCalculationConfirm closes the turn. The attacker echoes one confirm
// so the defender closes the same turn; the defender does not reply.
func (s *Session) onCalculationConfirm() error {
	if s.state != StateAwaitingConfirmation {
		return s.unexpected(wire.TypeCalculationConfirm)
	}
	if s.turn.attacking {
		if err := s.send(wire.CalculationConfirm{}.Message()); err != nil {
			return err
		}
	}
	s.closeTurn()
	return nil
}

// closeTurn ends the battle if either side has fainted, or swaps roles.
func (s *Session) closeTurn() {
	attacked := s.turn.attacking
	s.turn = turnState{}
	s.peerAttackActive = false
	s.peerDefenseActive = false

	if s.self.Fainted() || s.opponent.Fainted() {
		s.outcome = decideOutcome(s.self.HP(), s.opponent.HP())
		s.logger.Info("battle over",
			"outcome", string(s.outcome),
			"turns", s.turnNo,
			"own_hp", s.self.HP(),
			"opponent_hp", s.opponent.HP())
		s.transition(StateGameOver)
		s.publish(event.NewBattleOverEvent(s.id, string(s.outcome), s.turnNo, s.self.HP(), s.opponent.HP()))
		return
	}

	s.turnNo++
	if attacked {
		s.transition(StateReadyToDefend)
	} else {
		s.transition(StateReadyToAttack)
	}
}

func (s *Session) applyDamage(target *combatant.Combatant, side event.Side, attacker, move string, amount int) {
	hp := target.ApplyDamage(amount)
	s.logger.Info("damage applied",
		"target", target.Name,
		"move", move,
		"damage", amount,
		"hp", hp,
		"max_hp", target.Stats.MaxHP)
	s.publish(event.NewDamageAppliedEvent(s.id, s.turnNo, attacker, target.Name, side, move, amount, hp, target.Stats.MaxHP))
}

// mismatch reports a verification failure. State is left unchanged.
func (s *Session) mismatch(move string, local, peer int) error {
	s.publish(event.NewVerificationFailedEvent(s.id, s.turnNo, move, local, peer))
	return errors.NewVerificationError(move, local, peer)
}
