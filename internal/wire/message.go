package wire

import (
	"strconv"
	"strings"

	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// MessageType is the value of the message_type line.
type MessageType string

const (
	TypeHello              MessageType = "HELLO"
	TypeWelcome            MessageType = "WELCOME"
	TypeBattleSetup        MessageType = "BATTLE_SETUP"
	TypeAttackAnnounce     MessageType = "ATTACK_ANNOUNCE"
	TypeResolutionRequest  MessageType = "RESOLUTION_REQUEST"
	TypeCalculationReport  MessageType = "CALCULATION_REPORT"
	TypeCalculationConfirm MessageType = "CALCULATION_CONFIRM"
	TypeChat               MessageType = "CHAT"
	TypeBoostRequest       MessageType = "BOOST_REQUEST"
)

var knownTypes = map[MessageType]bool{
	TypeHello:              true,
	TypeWelcome:            true,
	TypeBattleSetup:        true,
	TypeAttackAnnounce:     true,
	TypeResolutionRequest:  true,
	TypeCalculationReport:  true,
	TypeCalculationConfirm: true,
	TypeChat:               true,
	TypeBoostRequest:       true,
}

// Field keys.
const (
	KeyMessageType         = "message_type"
	KeyName                = "name"
	KeySeed                = "seed"
	KeyStats               = "stats"
	KeySpecialAttackUses   = "special_attack_uses"
	KeySpecialDefenseUses  = "special_defense_uses"
	KeyMoveName            = "move_name"
	KeySpecialAttackBoost  = "special_attack_boost"
	KeySpecialDefenseBoost = "special_defense_boost"
	KeyDamage              = "damage"
	KeyText                = "text"
	KeyKind                = "kind"
)

type field struct {
	key   string
	value string
}

// Message is an ordered set of key: value lines.
type Message struct {
	Type   MessageType
	fields []field
}

// NewMessage starts a message of type t.
func NewMessage(t MessageType) *Message {
	return &Message{Type: t}
}

// Set adds or replaces a field. Line breaks in value become spaces.
func (m *Message) Set(key, value string) *Message {
	value = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(value)
	for i := range m.fields {
		if m.fields[i].key == key {
			m.fields[i].value = value
			return m
		}
	}
	m.fields = append(m.fields, field{key: key, value: value})
	return m
}

// SetInt sets an integer field.
func (m *Message) SetInt(key string, v int) *Message {
	return m.Set(key, strconv.Itoa(v))
}

// SetBool sets a boolean field.
func (m *Message) SetBool(key string, v bool) *Message {
	return m.Set(key, strconv.FormatBool(v))
}

// Get returns a field value.
func (m *Message) Get(key string) (string, bool) {
	for _, f := range m.fields {
		if f.key == key {
			return f.value, true
		}
	}
	return "", false
}

// Field returns a required string field.
func (m *Message) Field(key string) (string, error) {
	v, ok := m.Get(key)
	if !ok {
		return "", m.missing(key)
	}
	return v, nil
}

// Int returns a required integer field.
func (m *Message) Int(key string) (int, error) {
	v, ok := m.Get(key)
	if !ok {
		return 0, m.missing(key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, m.invalid(key, v)
	}
	return n, nil
}

// Uint64 returns a required unsigned integer field.
func (m *Message) Uint64(key string) (uint64, error) {
	v, ok := m.Get(key)
	if !ok {
		return 0, m.missing(key)
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, m.invalid(key, v)
	}
	return n, nil
}

// Bool returns a boolean field; a missing field is false.
func (m *Message) Bool(key string) (bool, error) {
	v, ok := m.Get(key)
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, m.invalid(key, v)
	}
	return b, nil
}

// Ints returns a required comma-separated integer list.
func (m *Message) Ints(key string) ([]int, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, m.missing(key)
	}
	parts := strings.Split(v, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, m.invalid(key, v)
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *Message) missing(key string) error {
	return errors.NewMalformedError(errors.ErrMalformedMessage, string(m.Type)+" missing field").WithField(key)
}

func (m *Message) invalid(key, raw string) error {
	return errors.NewMalformedError(errors.ErrMalformedMessage, string(m.Type)+" has unparseable value").
		WithField(key).
		WithRaw(raw)
}

// Encode renders the message as key: value lines.
func (m *Message) Encode() []byte {
	var b strings.Builder
	b.WriteString(KeyMessageType)
	b.WriteString(": ")
	b.WriteString(string(m.Type))
	for _, f := range m.fields {
		b.WriteByte('\n')
		b.WriteString(f.key)
		b.WriteString(": ")
		b.WriteString(f.value)
	}
	return []byte(b.String())
}

// Decode parses key: value lines. Blank lines are ignored. The first line
// must carry a known message_type. Repeated keys keep the first value.
func Decode(payload []byte) (*Message, error) {
	var m *Message
	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.NewMalformedError(errors.ErrMalformedMessage, "line missing ':'").WithRaw(line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if m == nil {
			if key != KeyMessageType {
				return nil, errors.NewMalformedError(errors.ErrMalformedMessage, "first line must be message_type").
					WithField(key).
					WithRaw(line)
			}
			t := MessageType(value)
			if !knownTypes[t] {
				return nil, errors.NewMalformedError(errors.ErrMalformedMessage, "unknown message type").
					WithField(KeyMessageType).
					WithRaw(value)
			}
			m = NewMessage(t)
			continue
		}
		if _, dup := m.Get(key); dup {
			continue
		}
		m.fields = append(m.fields, field{key: key, value: value})
	}
	if m == nil {
		return nil, errors.NewMalformedError(errors.ErrMalformedMessage, "empty payload")
	}
	return m, nil
}
