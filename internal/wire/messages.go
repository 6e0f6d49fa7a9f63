package wire

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// BoostKind names a boost in BOOST_REQUEST.
type BoostKind string

const (
	BoostSpecialAttack  BoostKind = "SP_ATTACK"
	BoostSpecialDefense BoostKind = "SP_DEFENSE"
)

// Hello opens the handshake.
type Hello struct {
	Name string
}

// Message encodes h as a HELLO message.
func (h Hello) Message() *Message {
	return NewMessage(TypeHello).Set(KeyName, h.Name)
}

// Welcome carries the battle seed.
type Welcome struct {
	Seed uint64
}

// Message encodes w as a WELCOME message.
func (w Welcome) Message() *Message {
	return NewMessage(TypeWelcome).Set(KeySeed, strconv.FormatUint(w.Seed, 10))
}

// BattleSetup advertises a peer's combatant.
type BattleSetup struct {
	Name               string
	Stats              combatant.Stats
	SpecialAttackUses  int
	SpecialDefenseUses int
}

// Message encodes b as a BATTLE_SETUP message, stats in wire order.
func (b BattleSetup) Message() *Message {
	stats := b.Stats.Slice()
	parts := make([]string, len(stats))
	for i, v := range stats {
		parts[i] = strconv.Itoa(v)
	}
	return NewMessage(TypeBattleSetup).
		Set(KeyName, b.Name).
		Set(KeyStats, strings.Join(parts, ",")).
		SetInt(KeySpecialAttackUses, b.SpecialAttackUses).
		SetInt(KeySpecialDefenseUses, b.SpecialDefenseUses)
}

// AttackAnnounce names the move the attacker is using.
type AttackAnnounce struct {
	Move               string
	SpecialAttackBoost bool
}

// Message encodes a as an ATTACK_ANNOUNCE message.
func (a AttackAnnounce) Message() *Message {
	return NewMessage(TypeAttackAnnounce).
		Set(KeyMoveName, a.Move).
		SetBool(KeySpecialAttackBoost, a.SpecialAttackBoost)
}

// ResolutionRequest carries the defender's computed damage and the boost
// flags it used.
type ResolutionRequest struct {
	Move                string
	Damage              int
	SpecialAttackBoost  bool
	SpecialDefenseBoost bool
}

// Message encodes r as a RESOLUTION_REQUEST message.
func (r ResolutionRequest) Message() *Message {
	return NewMessage(TypeResolutionRequest).
		Set(KeyMoveName, r.Move).
		SetInt(KeyDamage, r.Damage).
		SetBool(KeySpecialAttackBoost, r.SpecialAttackBoost).
		SetBool(KeySpecialDefenseBoost, r.SpecialDefenseBoost)
}

// CalculationReport carries the attacker's verified damage.
type CalculationReport struct {
	Move   string
	Damage int
}

// Message encodes c as a CALCULATION_REPORT message.
func (c CalculationReport) Message() *Message {
	return NewMessage(TypeCalculationReport).
		Set(KeyMoveName, c.Move).
		SetInt(KeyDamage, c.Damage)
}

// CalculationConfirm closes a turn.
type CalculationConfirm struct{}

// Message encodes a CALCULATION_CONFIRM message.
func (CalculationConfirm) Message() *Message {
	return NewMessage(TypeCalculationConfirm)
}

// Chat is a single line of text.
type Chat struct {
	Text string
}

// Message encodes c as a CHAT message.
func (c Chat) Message() *Message {
	return NewMessage(TypeChat).Set(KeyText, c.Text)
}

// BoostRequest tells the peer a boost was spent.
type BoostRequest struct {
	Kind BoostKind
}

// Message encodes b as a BOOST_REQUEST message.
func (b BoostRequest) Message() *Message {
	return NewMessage(TypeBoostRequest).Set(KeyKind, string(b.Kind))
}

// The As* accessors decode a typed view of m. They fail with a
// MalformedError if m has another type or a field is missing or bad.

func (m *Message) expect(t MessageType) error {
	if m.Type != t {
		return errors.NewMalformedError(errors.ErrMalformedMessage, "expected "+string(t)+", got "+string(m.Type)).
			WithField(KeyMessageType)
	}
	return nil
}

// AsHello decodes a HELLO message.
func (m *Message) AsHello() (Hello, error) {
	if err := m.expect(TypeHello); err != nil {
		return Hello{}, err
	}
	name, err := m.Field(KeyName)
	if err != nil {
		return Hello{}, err
	}
	return Hello{Name: name}, nil
}

// AsWelcome decodes a WELCOME message. The seed must be a decimal uint64.
func (m *Message) AsWelcome() (Welcome, error) {
	if err := m.expect(TypeWelcome); err != nil {
		return Welcome{}, err
	}
	seed, err := m.Uint64(KeySeed)
	if err != nil {
		return Welcome{}, err
	}
	return Welcome{Seed: seed}, nil
}

// AsBattleSetup decodes a BATTLE_SETUP message. Exactly six stats are required.
func (m *Message) AsBattleSetup() (BattleSetup, error) {
	var out BattleSetup
	if err := m.expect(TypeBattleSetup); err != nil {
		return out, err
	}
	var err error
	if out.Name, err = m.Field(KeyName); err != nil {
		return out, err
	}
	values, err := m.Ints(KeyStats)
	if err != nil {
		return out, err
	}
	if out.Stats, err = combatant.StatsFromSlice(values); err != nil {
		raw, _ := m.Get(KeyStats)
		return out, errors.NewMalformedError(errors.ErrMalformedMessage, err.Error()).
			WithField(KeyStats).
			WithRaw(raw)
	}
	if out.SpecialAttackUses, err = m.Int(KeySpecialAttackUses); err != nil {
		return out, err
	}
	if out.SpecialDefenseUses, err = m.Int(KeySpecialDefenseUses); err != nil {
		return out, err
	}
	return out, nil
}

// AsAttackAnnounce decodes an ATTACK_ANNOUNCE message. A missing boost flag is false.
func (m *Message) AsAttackAnnounce() (AttackAnnounce, error) {
	var out AttackAnnounce
	if err := m.expect(TypeAttackAnnounce); err != nil {
		return out, err
	}
	var err error
	if out.Move, err = m.Field(KeyMoveName); err != nil {
		return out, err
	}
	if out.SpecialAttackBoost, err = m.Bool(KeySpecialAttackBoost); err != nil {
		return out, err
	}
	return out, nil
}

// AsResolutionRequest decodes a RESOLUTION_REQUEST message.
func (m *Message) AsResolutionRequest() (ResolutionRequest, error) {
	var out ResolutionRequest
	if err := m.expect(TypeResolutionRequest); err != nil {
		return out, err
	}
	var err error
	if out.Move, err = m.Field(KeyMoveName); err != nil {
		return out, err
	}
	if out.Damage, err = m.Int(KeyDamage); err != nil {
		return out, err
	}
	if out.SpecialAttackBoost, err = m.Bool(KeySpecialAttackBoost); err != nil {
		return out, err
	}
	if out.SpecialDefenseBoost, err = m.Bool(KeySpecialDefenseBoost); err != nil {
		return out, err
	}
	return out, nil
}

// AsCalculationReport decodes a CALCULATION_REPORT message.
func (m *Message) AsCalculationReport() (CalculationReport, error) {
	var out CalculationReport
	if err := m.expect(TypeCalculationReport); err != nil {
		return out, err
	}
	var err error
	if out.Move, err = m.Field(KeyMoveName); err != nil {
		return out, err
	}
	if out.Damage, err = m.Int(KeyDamage); err != nil {
		return out, err
	}
	return out, nil
}

// AsChat decodes a CHAT message.
func (m *Message) AsChat() (Chat, error) {
	if err := m.expect(TypeChat); err != nil {
		return Chat{}, err
	}
	text, err := m.Field(KeyText)
	if err != nil {
		return Chat{}, err
	}
	return Chat{Text: text}, nil
}

// AsBoostRequest decodes a BOOST_REQUEST message.
func (m *Message) AsBoostRequest() (BoostRequest, error) {
	if err := m.expect(TypeBoostRequest); err != nil {
		return BoostRequest{}, err
	}
	kind, err := m.Field(KeyKind)
	if err != nil {
		return BoostRequest{}, err
	}
	switch k := BoostKind(strings.ToUpper(kind)); k {
	case BoostSpecialAttack, BoostSpecialDefense:
		return BoostRequest{Kind: k}, nil
	}
	return BoostRequest{}, errors.NewMalformedError(errors.ErrMalformedMessage, "unknown boost kind").
		WithField(KeyKind).
		WithRaw(kind)
}
