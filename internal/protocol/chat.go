package protocol

import (
	"strings"

	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

// Chat sends one line of text. It needs a bound peer and a battle that is
// not over. Text that would not fit in one datagram is rejected.
func (s *Session) Chat(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.NewValidationError("chat text is empty").WithField("text")
	}
	if strings.ContainsAny(text, "\r\n") {
		return errors.NewValidationError("chat text must be a single line").WithField("text")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return s.actionError("chat")
	}
	if s.peer == nil {
		return errors.ErrPeerUnknown
	}
	if err := s.send(wire.Chat{Text: text}.Message()); err != nil {
		return err
	}
	s.publish(event.NewChatEvent(s.id, event.SideSelf, text))
	return nil
}

func (s *Session) onChat(msg *wire.Message) error {
	if s.state.IsTerminal() {
		return s.unexpected(msg.Type)
	}
	chat, err := msg.AsChat()
	if err != nil {
		return err
	}
	s.logger.Info("chat received", "text", chat.Text)
	s.publish(event.NewChatEvent(s.id, event.SidePeer, chat.Text))
	return nil
}

// onBoostRequest updates the mirror of the peer's boost counters. The
// flags it sets are informational; the boosts that count for damage
// travel in ATTACK_ANNOUNCE and RESOLUTION_REQUEST.
func (s *Session) onBoostRequest(msg *wire.Message) error {
	if s.state.IsTerminal() {
		return s.unexpected(msg.Type)
	}
	req, err := msg.AsBoostRequest()
	if err != nil {
		return err
	}

	var remaining int
	switch req.Kind {
	case wire.BoostSpecialAttack:
		s.peerAttackBoosts = max(s.peerAttackBoosts-1, 0)
		s.peerAttackActive = true
		remaining = s.peerAttackBoosts
	case wire.BoostSpecialDefense:
		s.peerDefenseBoosts = max(s.peerDefenseBoosts-1, 0)
		s.peerDefenseActive = true
		remaining = s.peerDefenseBoosts
	}
	s.logger.Info("peer boost", "kind", string(req.Kind), "remaining", remaining)
	s.publish(event.NewBoostEvent(s.id, event.SidePeer, string(req.Kind), remaining))
	return nil
}
