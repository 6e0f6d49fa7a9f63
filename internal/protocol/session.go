package protocol

import (
	"math/rand/v2"
	"net"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/logging"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

// Sender sends one application payload reliably. It must not block on
// acknowledgment.
type Sender interface {
	SendReliable(payload []byte, dest net.Addr) (uint64, error)
}

// Roster resolves a combatant name to an independent copy.
type Roster interface {
	Lookup(name string) (*combatant.Combatant, bool)
}

// Config holds battle rules.
type Config struct {
	// SpecialAttackBoosts and SpecialDefenseBoosts are the starting counts.
	SpecialAttackBoosts  int
	SpecialDefenseBoosts int
	// AutoDefenseBoost makes the defender spend a special-defense boost,
	// if it has one, whenever a special move is announced against it.
	AutoDefenseBoost bool
}

// DefaultConfig returns one boost of each kind with automatic defense.
func DefaultConfig() Config {
	return Config{
		SpecialAttackBoosts:  1,
		SpecialDefenseBoosts: 1,
		AutoDefenseBoost:     true,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.baseLogger = l
		}
	}
}

// WithBus sets the event bus.
func WithBus(b *event.Bus) Option {
	return func(s *Session) { s.bus = b }
}

// WithSeedSource replaces the battle-seed generator used by a server.
func WithSeedSource(f func() uint64) Option {
	return func(s *Session) { s.seedSource = f }
}

// WithSessionID sets the id used in logs and events. The default is a
// random UUID.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// turnState is the bookkeeping for the turn in progress.
type turnState struct {
	attacking    bool
	move         string
	attackBoost  bool
	defenseBoost bool
	damage       int // defender: value sent in RESOLUTION_REQUEST
}

// Session is one peer's battle state machine. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id         string
	role       Role
	cfg        Config
	roster     Roster
	sender     Sender
	bus        *event.Bus
	baseLogger *logging.Logger
	logger     *logging.Logger
	seedSource func() uint64

	state     State
	self      *combatant.Combatant
	opponent  *combatant.Combatant
	peer      net.Addr
	helloSent bool
	seed      uint64
	seedSet   bool
	turnNo    int
	turn      turnState
	outcome   Outcome

	attackBoosts      int
	defenseBoosts     int
	attackBoostArmed  bool
	peerAttackBoosts  int
	peerDefenseBoosts int
	peerAttackActive  bool
	peerDefenseActive bool
}

// NewSession creates a session playing role with its own combatant self.
// The session keeps its own copy of self.
func NewSession(role Role, self *combatant.Combatant, roster Roster, sender Sender, cfg Config, opts ...Option) *Session {
	s := &Session{
		role:          role,
		cfg:           cfg,
		roster:        roster,
		sender:        sender,
		baseLogger:    logging.NopLogger(),
		seedSource:    rand.Uint64,
		state:         InitialState(role),
		self:          self.Clone(),
		attackBoosts:  max(cfg.SpecialAttackBoosts, 0),
		defenseBoosts: max(cfg.SpecialDefenseBoosts, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.logger = s.baseLogger.WithSession(s.id).WithRole(string(role)).WithComponent("protocol")
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Role returns the session's role.
func (s *Session) Role() Role { return s.role }

// State returns the current protocol state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Seed returns the battle seed and whether it has been agreed yet.
func (s *Session) Seed() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed, s.seedSet
}

// Peer returns the bound peer address, or nil.
func (s *Session) Peer() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peer
}

// CombatantView is a read-only summary of one combatant.
type CombatantView struct {
	Name  string   `json:"name"`
	HP    int      `json:"hp"`
	MaxHP int      `json:"max_hp"`
	Types []string `json:"types"`
}

func viewOf(c *combatant.Combatant) CombatantView {
	return CombatantView{
		Name:  c.Name,
		HP:    c.HP(),
		MaxHP: c.Stats.MaxHP,
		Types: slices.Clone(c.Types),
	}
}

// Snapshot is a consistent copy of session state.
type Snapshot struct {
	SessionID         string           `json:"session_id"`
	Role              Role             `json:"role"`
	State             State            `json:"state"`
	Turn              int              `json:"turn"`
	Peer              string           `json:"peer,omitempty"`
	Self              CombatantView    `json:"self"`
	Opponent          *CombatantView   `json:"opponent,omitempty"`
	Moves             []combatant.Move `json:"moves"`
	AttackBoosts      int              `json:"attack_boosts"`
	DefenseBoosts     int              `json:"defense_boosts"`
	AttackBoostArmed  bool             `json:"attack_boost_armed"`
	PeerAttackBoosts  int              `json:"peer_attack_boosts"`
	PeerDefenseBoosts int              `json:"peer_defense_boosts"`
	// PeerAttackActive and PeerDefenseActive are set by the peer's
	// BOOST_REQUEST and cleared when the turn closes.
	PeerAttackActive  bool             `json:"peer_attack_active"`
	PeerDefenseActive bool             `json:"peer_defense_active"`
	Outcome           Outcome          `json:"outcome,omitempty"`
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:         s.id,
		Role:              s.role,
		State:             s.state,
		Turn:              s.turnNo,
		Self:              viewOf(s.self),
		Moves:             s.self.Moves(),
		AttackBoosts:      s.attackBoosts,
		DefenseBoosts:     s.defenseBoosts,
		AttackBoostArmed:  s.attackBoostArmed,
		PeerAttackBoosts:  s.peerAttackBoosts,
		PeerDefenseBoosts: s.peerDefenseBoosts,
		PeerAttackActive:  s.peerAttackActive,
		PeerDefenseActive: s.peerDefenseActive,
		Outcome:           s.outcome,
	}
	if s.peer != nil {
		snap.Peer = s.peer.String()
	}
	if s.opponent != nil {
		v := viewOf(s.opponent)
		snap.Opponent = &v
	}
	return snap
}

// HandleDatagram interprets one inbound application payload. It is
// shaped to be installed as the transport's handler. Errors are logged,
// never returned: a bad message is discarded and state is unchanged.
func (s *Session) HandleDatagram(payload []byte, from net.Addr) {
	if err := s.handle(payload, from); err != nil {
		s.logError("discarding message", err)
	}
}

func (s *Session) handle(payload []byte, from net.Addr) error {
	msg, err := wire.Decode(payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkPeer(msg.Type, from); err != nil {
		return err
	}

	s.logger.Debug("message received", "message_type", string(msg.Type), "state", string(s.state))

	switch msg.Type {
	case wire.TypeHello:
		return s.onHello(msg, from)
	case wire.TypeWelcome:
		return s.onWelcome(msg)
	case wire.TypeBattleSetup:
		return s.onBattleSetup(msg)
	case wire.TypeAttackAnnounce:
		return s.onAttackAnnounce(msg)
	case wire.TypeResolutionRequest:
		return s.onResolutionRequest(msg)
	case wire.TypeCalculationReport:
		return s.onCalculationReport(msg)
	case wire.TypeCalculationConfirm:
		return s.onCalculationConfirm()
	case wire.TypeChat:
		return s.onChat(msg)
	case wire.TypeBoostRequest:
		return s.onBoostRequest(msg)
	}
	return errors.NewSequencingError(string(s.state), string(msg.Type))
}

// checkPeer enforces the single-peer binding. Only a server waiting for
// HELLO accepts a datagram before a peer is bound.
func (s *Session) checkPeer(t wire.MessageType, from net.Addr) error {
	if s.peer == nil {
		if s.role == RoleServer && t == wire.TypeHello {
			return nil
		}
		return errors.Wrapf(errors.ErrPeerUnknown, "%s from %s before handshake", t, from)
	}
	if from.String() != s.peer.String() {
		return errors.Wrapf(errors.ErrPeerUnknown, "%s from unexpected address %s", t, from)
	}
	return nil
}

// send encodes and sends m to the bound peer.
func (s *Session) send(m *wire.Message) error {
	if s.peer == nil {
		return errors.ErrPeerUnknown
	}
	seq, err := s.sender.SendReliable(m.Encode(), s.peer)
	if err != nil {
		return errors.Wrapf(err, "failed to send %s", m.Type)
	}
	s.logger.Debug("message sent", "message_type", string(m.Type), "seq", seq)
	return nil
}

// transition moves to a new state and publishes the change.
func (s *Session) transition(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.logger.Info("state changed", "from", string(from), "to", string(to), "turn", s.turnNo)
	s.publish(event.NewStateChangedEvent(s.id, string(s.role), string(from), string(to), s.turnNo))
}

func (s *Session) publish(e event.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// logError logs err at the level its kind calls for.
func (s *Session) logError(msg string, err error) {
	if errors.Is(err, errors.ErrPeerUnknown) {
		s.logger.Warn(msg, "error", err)
		return
	}
	switch errors.GetSeverity(err) {
	case errors.SeverityDebug, errors.SeverityInfo:
		s.logger.Debug(msg, "error", err)
	case errors.SeverityWarning:
		s.logger.Warn(msg, "error", err)
	default:
		s.logger.Error(msg, "error", err)
	}
}

// unexpected builds the sequencing error for message t in the current state.
func (s *Session) unexpected(t wire.MessageType) error {
	return errors.NewSequencingError(string(s.state), string(t))
}
