// Package event provides a pub-sub event bus that decouples the battle
// core from whatever is watching it.
//
// The protocol session and the transport publish events. The console
// renderer and the websocket spectator feed subscribe to them. Neither side
// imports the other.
//
// # Event Categories
//
// Battle:
//   - [StateChangedEvent]: the protocol state machine moved to a new state
//   - [ChatEvent]: a chat line was sent or received
//   - [BoostEvent]: a special-attack or special-defense boost was spent
//   - [DamageAppliedEvent]: a verified damage value lowered a combatant's health
//   - [VerificationFailedEvent]: the two peers disagree on a damage value
//   - [BattleOverEvent]: the battle reached GAME_OVER
//
// Transport:
//   - [RetransmitEvent]: an outstanding send was retransmitted
//   - [DeliveryFailedEvent]: an outstanding send hit the retry ceiling
//
// # Thread Safety
//
// [Bus] is safe for concurrent use. Handlers run synchronously on the
// publisher's goroutine and are protected against panics. The session
// publishes while holding its lock, so handlers must not call back into
// the session.
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//	bus.SubscribePrefix("battle.", func(e event.Event) {
//	    fmt.Println(e.EventType())
//	})
//	bus.Publish(event.NewChatEvent("s-1", event.SidePeer, "hi"))
package event
