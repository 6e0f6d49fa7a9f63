package protocol

// Role says which side of the handshake a session plays.
type Role string

const (
	RoleServer Role = "server"
	RoleClient Role = "client"
)

// State is a protocol state.
type State string

const (
	StateAwaitingHello         State = "AWAITING_HELLO"
	StateInit                  State = "INIT"
	StateAwaitingSetupExchange State = "AWAITING_SETUP_EXCHANGE"
	StateReadyToAttack         State = "READY_TO_ATTACK"
	StateReadyToDefend         State = "READY_TO_DEFEND"
	StateAwaitingResolution    State = "AWAITING_RESOLUTION"
	StateAwaitingConfirmation  State = "AWAITING_CONFIRMATION"
	StateGameOver              State = "GAME_OVER"
)

// InitialState returns the state a new session of role r starts in.
func InitialState(r Role) State {
	if r == RoleServer {
		return StateAwaitingHello
	}
	return StateInit
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool { return s == StateGameOver }

// Outcome is the result of a finished battle from the local point of view.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomeDraw Outcome = "DRAW"
)

// decideOutcome compares remaining health.
func decideOutcome(ownHP, opponentHP int) Outcome {
	switch {
	case ownHP > opponentHP:
		return OutcomeWin
	case ownHP < opponentHP:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}
