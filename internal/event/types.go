package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "battle.over", "transport.retransmit")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type names.
const (
	TypeStateChanged       = "battle.state_changed"
	TypeChat               = "battle.chat"
	TypeBoost              = "battle.boost"
	TypeDamageApplied      = "battle.damage_applied"
	TypeVerificationFailed = "battle.verification_failed"
	TypeBattleOver         = "battle.over"
	TypeRetransmit         = "transport.retransmit"
	TypeDeliveryFailed     = "transport.delivery_failed"
)

// Side says which peer an event concerns, from the local point of view.
type Side string

const (
	SideSelf Side = "self"
	SidePeer Side = "peer"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Battle Events
// -----------------------------------------------------------------------------

// StateChangedEvent is emitted on every protocol state transition.
type StateChangedEvent struct {
	baseEvent
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	From      string `json:"from"`
	To        string `json:"to"`
	Turn      int    `json:"turn"`
}

// NewStateChangedEvent creates a StateChangedEvent.
func NewStateChangedEvent(sessionID, role, from, to string, turn int) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(TypeStateChanged),
		SessionID: sessionID,
		Role:      role,
		From:      from,
		To:        to,
		Turn:      turn,
	}
}

// ChatEvent is emitted when a chat line is sent (SideSelf) or received (SidePeer).
type ChatEvent struct {
	baseEvent
	SessionID string `json:"session_id"`
	From      Side   `json:"from"`
	Text      string `json:"text"`
}

// NewChatEvent creates a ChatEvent.
func NewChatEvent(sessionID string, from Side, text string) ChatEvent {
	return ChatEvent{
		baseEvent: newBaseEvent(TypeChat),
		SessionID: sessionID,
		From:      from,
		Text:      text,
	}
}

// BoostEvent is emitted when either side spends a boost.
type BoostEvent struct {
	baseEvent
	SessionID string `json:"session_id"`
	Side      Side   `json:"side"`
	Kind      string `json:"kind"`
	Remaining int    `json:"remaining"`
}

// NewBoostEvent creates a BoostEvent.
func NewBoostEvent(sessionID string, side Side, kind string, remaining int) BoostEvent {
	return BoostEvent{
		baseEvent: newBaseEvent(TypeBoost),
		SessionID: sessionID,
		Side:      side,
		Kind:      kind,
		Remaining: remaining,
	}
}

// DamageAppliedEvent is emitted when verified damage lowers a combatant's health.
type DamageAppliedEvent struct {
	baseEvent
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
	Attacker  string `json:"attacker"`
	Defender  string `json:"defender"`
	Target    Side   `json:"target"`
	Move      string `json:"move"`
	Damage    int    `json:"damage"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
}

// NewDamageAppliedEvent creates a DamageAppliedEvent.
func NewDamageAppliedEvent(sessionID string, turn int, attacker, defender string, target Side, move string, damage, hp, maxHP int) DamageAppliedEvent {
	return DamageAppliedEvent{
		baseEvent: newBaseEvent(TypeDamageApplied),
		SessionID: sessionID,
		Turn:      turn,
		Attacker:  attacker,
		Defender:  defender,
		Target:    target,
		Move:      move,
		Damage:    damage,
		HP:        hp,
		MaxHP:     maxHP,
	}
}

// VerificationFailedEvent is emitted when a recomputed damage value disagrees
// with the peer's. The turn stalls.
type VerificationFailedEvent struct {
	baseEvent
	SessionID string `json:"session_id"`
	Turn      int    `json:"turn"`
	Move      string `json:"move"`
	Local     int    `json:"local"`
	Peer      int    `json:"peer"`
}

// NewVerificationFailedEvent creates a VerificationFailedEvent.
func NewVerificationFailedEvent(sessionID string, turn int, move string, local, peer int) VerificationFailedEvent {
	return VerificationFailedEvent{
		baseEvent: newBaseEvent(TypeVerificationFailed),
		SessionID: sessionID,
		Turn:      turn,
		Move:      move,
		Local:     local,
		Peer:      peer,
	}
}

// BattleOverEvent is emitted once, when the session reaches GAME_OVER.
type BattleOverEvent struct {
	baseEvent
	SessionID  string `json:"session_id"`
	Outcome    string `json:"outcome"`
	Turns      int    `json:"turns"`
	OwnHP      int    `json:"own_hp"`
	OpponentHP int    `json:"opponent_hp"`
}

// NewBattleOverEvent creates a BattleOverEvent.
func NewBattleOverEvent(sessionID, outcome string, turns, ownHP, opponentHP int) BattleOverEvent {
	return BattleOverEvent{
		baseEvent:  newBaseEvent(TypeBattleOver),
		SessionID:  sessionID,
		Outcome:    outcome,
		Turns:      turns,
		OwnHP:      ownHP,
		OpponentHP: opponentHP,
	}
}

// -----------------------------------------------------------------------------
// Transport Events
// -----------------------------------------------------------------------------

// RetransmitEvent is emitted each time the sweep resends an unacknowledged datagram.
type RetransmitEvent struct {
	baseEvent
	Sequence    uint64 `json:"sequence"`
	Destination string `json:"destination"`
	Attempt     int    `json:"attempt"`
}

// NewRetransmitEvent creates a RetransmitEvent.
func NewRetransmitEvent(seq uint64, dest string, attempt int) RetransmitEvent {
	return RetransmitEvent{
		baseEvent:   newBaseEvent(TypeRetransmit),
		Sequence:    seq,
		Destination: dest,
		Attempt:     attempt,
	}
}

// DeliveryFailedEvent is emitted when an outstanding send is abandoned.
// The peer may be gone; the session is not torn down.
type DeliveryFailedEvent struct {
	baseEvent
	Sequence    uint64 `json:"sequence"`
	Destination string `json:"destination"`
	Attempts    int    `json:"attempts"`
}

// NewDeliveryFailedEvent creates a DeliveryFailedEvent.
func NewDeliveryFailedEvent(seq uint64, dest string, attempts int) DeliveryFailedEvent {
	return DeliveryFailedEvent{
		baseEvent:   newBaseEvent(TypeDeliveryFailed),
		Sequence:    seq,
		Destination: dest,
		Attempts:    attempts,
	}
}
