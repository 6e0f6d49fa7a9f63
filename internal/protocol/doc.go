// Package protocol implements the two-party battle state machine.
//
// A [Session] owns one peer's view of the battle: its own combatant, an
// independent copy of the opponent's, the shared seed, boost counters and
// the current [State]. It sends messages through a [Sender] (normally the
// reliable transport) and consumes inbound payloads via
// [Session.HandleDatagram].
//
// # Lifecycle
//
//	server: AWAITING_HELLO --HELLO--> AWAITING_SETUP_EXCHANGE
//	client: INIT --Connect, WELCOME--> AWAITING_SETUP_EXCHANGE
//	both:   AWAITING_SETUP_EXCHANGE --BATTLE_SETUP--> READY_TO_ATTACK (server)
//	                                                  READY_TO_DEFEND (client)
//
// Each turn then runs:
//
//	attacker                          defender
//	Attack -> ATTACK_ANNOUNCE  ----->  computes damage
//	                           <-----  RESOLUTION_REQUEST
//	verifies, applies
//	CALCULATION_REPORT         ----->  checks, applies
//	                           <-----  CALCULATION_CONFIRM
//	closes turn
//	CALCULATION_CONFIRM        ----->  closes turn
//
// Closing a turn either ends the battle (GAME_OVER) when a combatant has
// fainted, or swaps the attacker and defender roles.
//
// # Errors
//
// Nothing a peer sends can make a Session fail. Unknown names, messages
// that arrive in the wrong state, malformed payloads and damage mismatches
// are logged and the message is discarded. A damage mismatch stalls the
// turn: the session stays where it is and publishes
// [event.VerificationFailedEvent].
//
// # Concurrency
//
// Every inbound message and every user action runs under one lock, so
// observers never see a half-applied turn. Events are published while the
// lock is held; handlers must not call back into the Session.
package protocol
