package protocol

import (
	"net"

	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

// Connect binds the server address and sends HELLO. Only a client in INIT
// may connect, and only once.
func (s *Session) Connect(peer net.Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.role != RoleClient || s.state != StateInit || s.helloSent {
		return errors.NewSequencingError(string(s.state), "connect")
	}
	if peer == nil {
		return errors.ErrPeerUnknown
	}

	s.peer = peer
	if err := s.send(wire.Hello{Name: s.self.Name}.Message()); err != nil {
		s.peer = nil
		return err
	}
	s.helloSent = true
	s.logger = s.logger.WithPeer(peer.String())
	s.logger.Info("hello sent", "combatant", s.self.Name)
	return nil
}

// onHello: the server binds the peer, draws the seed, and replies with
// WELCOME followed by its own BATTLE_SETUP.
func (s *Session) onHello(msg *wire.Message, from net.Addr) error {
	if s.role != RoleServer || s.state != StateAwaitingHello {
		return s.unexpected(msg.Type)
	}
	hello, err := msg.AsHello()
	if err != nil {
		return err
	}

	seed := s.seedSource()
	s.peer = from
	if err := s.send(wire.Welcome{Seed: seed}.Message()); err != nil {
		s.peer = nil
		return err
	}
	if err := s.send(s.battleSetup().Message()); err != nil {
		s.peer = nil
		return err
	}

	s.seed = seed
	s.seedSet = true
	s.logger = s.logger.WithPeer(from.String())
	s.logger.Info("hello received", "opponent", hello.Name, "seed", s.seed)
	s.transition(StateAwaitingSetupExchange)
	return nil
}

// onWelcome: the client stores the seed and sends its BATTLE_SETUP.
func (s *Session) onWelcome(msg *wire.Message) error {
	if s.role != RoleClient || s.state != StateInit || !s.helloSent {
		return s.unexpected(msg.Type)
	}
	welcome, err := msg.AsWelcome()
	if err != nil {
		return err
	}

	if err := s.send(s.battleSetup().Message()); err != nil {
		return err
	}
	s.seed = welcome.Seed
	s.seedSet = true
	s.logger.Info("welcome received", "seed", s.seed)
	s.transition(StateAwaitingSetupExchange)
	return nil
}

// onBattleSetup builds the opponent copy from the local roster entry and
// the advertised stats. The server attacks first.
func (s *Session) onBattleSetup(msg *wire.Message) error {
	if s.state != StateAwaitingSetupExchange {
		return s.unexpected(msg.Type)
	}
	setup, err := msg.AsBattleSetup()
	if err != nil {
		return err
	}

	base, ok := s.roster.Lookup(setup.Name)
	if !ok {
		return errors.NewLookupError(errors.LookupCombatant, setup.Name)
	}

	s.opponent = base.WithStats(setup.Stats)
	s.peerAttackBoosts = max(setup.SpecialAttackUses, 0)
	s.peerDefenseBoosts = max(setup.SpecialDefenseUses, 0)
	s.turnNo = 1
	s.logger.Info("battle setup received",
		"opponent", s.opponent.Name,
		"max_hp", setup.Stats.MaxHP,
		"special_attack_uses", setup.SpecialAttackUses,
		"special_defense_uses", setup.SpecialDefenseUses)

	if s.role == RoleServer {
		s.transition(StateReadyToAttack)
	} else {
		s.transition(StateReadyToDefend)
	}
	return nil
}

func (s *Session) battleSetup() wire.BattleSetup {
	return wire.BattleSetup{
		Name:               s.self.Name,
		Stats:              s.self.Stats,
		SpecialAttackUses:  s.attackBoosts,
		SpecialDefenseUses: s.defenseBoosts,
	}
}
