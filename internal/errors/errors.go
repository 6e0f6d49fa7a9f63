// Package errors provides centralized error definitions for pokebattle.
//
// # Error Kinds
//
// Every failure a battle can hit falls into one of five kinds, each with its
// own type:
//   - LookupError: an unknown combatant or move name
//   - SequencingError: a message that is not valid for the current state
//   - VerificationError: a recomputed damage value disagrees with the peer's
//   - DeliveryError: a reliable send exceeded its retry ceiling
//   - MalformedError: a frame or message that could not be decoded
//
// ValidationError covers bad configuration and bad user input.
//
// None of these kinds is fatal. Callers log them and carry on; only an
// explicit shutdown ends a battle.
//
// # Usage
//
//	err := errors.NewLookupError(errors.LookupMove, "Surf")
//	if errors.Is(err, errors.ErrMoveNotFound) { ... }
//
//	var seqErr *errors.SequencingError
//	if errors.As(err, &seqErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Lookup sentinel errors
var (
	// ErrCombatantNotFound indicates that no combatant has the requested name.
	ErrCombatantNotFound = New("combatant not found")
	// ErrMoveNotFound indicates that a combatant has no move with the requested name.
	ErrMoveNotFound = New("move not found")
)

// Protocol sentinel errors
var (
	// ErrUnexpectedMessage indicates a message that is not valid in the current state.
	ErrUnexpectedMessage = New("unexpected message for state")
	// ErrNotYourTurn indicates a user action attempted outside its state.
	ErrNotYourTurn = New("not your turn")
	// ErrNoBoostsRemaining indicates that the boost counter is exhausted.
	ErrNoBoostsRemaining = New("no boosts remaining")
	// ErrGameOver indicates an action attempted after the battle ended.
	ErrGameOver = New("battle is over")
	// ErrPeerUnknown indicates a send before the peer address is known.
	ErrPeerUnknown = New("peer address unknown")
	// ErrDamageMismatch indicates that two peers disagree on a damage value.
	ErrDamageMismatch = New("damage mismatch")
)

// Transport sentinel errors
var (
	// ErrDeliveryFailed indicates that a reliable send was abandoned.
	ErrDeliveryFailed = New("delivery failed")
	// ErrPayloadTooLarge indicates a framed datagram above the size limit.
	ErrPayloadTooLarge = New("payload too large")
	// ErrTransportClosed indicates a send on a closed transport.
	ErrTransportClosed = New("transport closed")
)

// Wire sentinel errors
var (
	// ErrMalformedFrame indicates a datagram without valid transport framing.
	ErrMalformedFrame = New("malformed frame")
	// ErrMalformedMessage indicates an application payload that could not be parsed.
	ErrMalformedMessage = New("malformed message")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BattleError is the base interface for all pokebattle errors.
type BattleError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to the player.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// formatWithContext renders "prefix [k=v, ...]: message: cause".
func formatWithContext(prefix string, parts []string, message string, cause error) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, message, cause)
	}
	return fmt.Sprintf("%s: %s", prefix, message)
}

// -----------------------------------------------------------------------------
// Lookup Errors
// -----------------------------------------------------------------------------

// LookupKind names what was being looked up.
type LookupKind string

const (
	LookupCombatant LookupKind = "combatant"
	LookupMove      LookupKind = "move"
)

// LookupError reports an unknown combatant or move name.
//
// Example:
//
//	err := errors.NewLookupError(errors.LookupMove, "Surf").WithOwner("CHARIZARD")
//	fmt.Println(err) // "lookup error [owner=CHARIZARD]: move 'Surf' not found"
type LookupError struct {
	baseError
	Kind  LookupKind
	Name  string
	Owner string
}

// NewLookupError creates a LookupError wrapping the sentinel for kind.
func NewLookupError(kind LookupKind, name string) *LookupError {
	cause := ErrCombatantNotFound
	if kind == LookupMove {
		cause = ErrMoveNotFound
	}
	return &LookupError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", kind, name),
			cause:      cause,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Kind: kind,
		Name: name,
	}
}

// WithOwner records the combatant whose move list was searched.
func (e *LookupError) WithOwner(owner string) *LookupError {
	e.Owner = owner
	return e
}

// Error returns the formatted error message.
func (e *LookupError) Error() string {
	var parts []string
	if e.Owner != "" {
		parts = append(parts, fmt.Sprintf("owner=%s", e.Owner))
	}
	return formatWithContext("lookup error", parts, e.message, nil)
}

// -----------------------------------------------------------------------------
// Sequencing Errors
// -----------------------------------------------------------------------------

// SequencingError reports a message or action that arrived in the wrong state.
//
// Example:
//
//	err := errors.NewSequencingError("READY_TO_ATTACK", "ATTACK_ANNOUNCE")
type SequencingError struct {
	baseError
	State   string
	Message string
}

// NewSequencingError creates a SequencingError.
func NewSequencingError(state, message string) *SequencingError {
	return &SequencingError{
		baseError: baseError{
			message:  fmt.Sprintf("%s not valid in state %s", message, state),
			cause:    ErrUnexpectedMessage,
			severity: SeverityWarning,
			// The peer's retransmission may realign timing.
			retryable:  true,
			userFacing: true,
		},
		State:   state,
		Message: message,
	}
}

// WithCause replaces the sentinel cause, e.g. with ErrNotYourTurn for user actions.
func (e *SequencingError) WithCause(cause error) *SequencingError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *SequencingError) Error() string {
	return formatWithContext("sequencing error", nil, e.message, e.cause)
}

// -----------------------------------------------------------------------------
// Verification Errors
// -----------------------------------------------------------------------------

// VerificationError reports a damage value that two peers computed differently.
type VerificationError struct {
	baseError
	Move  string
	Local int
	Peer  int
}

// NewVerificationError creates a VerificationError.
func NewVerificationError(move string, local, peer int) *VerificationError {
	return &VerificationError{
		baseError: baseError{
			message:    fmt.Sprintf("local damage %d, peer damage %d", local, peer),
			cause:      ErrDamageMismatch,
			severity:   SeverityError,
			userFacing: true,
		},
		Move:  move,
		Local: local,
		Peer:  peer,
	}
}

// Error returns the formatted error message.
func (e *VerificationError) Error() string {
	var parts []string
	if e.Move != "" {
		parts = append(parts, fmt.Sprintf("move=%s", e.Move))
	}
	return formatWithContext("verification error", parts, e.message, e.cause)
}

// -----------------------------------------------------------------------------
// Delivery Errors
// -----------------------------------------------------------------------------

// DeliveryError reports a reliable send abandoned after its retry ceiling.
type DeliveryError struct {
	baseError
	Sequence    uint64
	Attempts    int
	Destination string
}

// NewDeliveryError creates a DeliveryError.
func NewDeliveryError(seq uint64, attempts int, dest string) *DeliveryError {
	return &DeliveryError{
		baseError: baseError{
			message:    fmt.Sprintf("no ack after %d attempts", attempts),
			cause:      ErrDeliveryFailed,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Sequence:    seq,
		Attempts:    attempts,
		Destination: dest,
	}
}

// Error returns the formatted error message.
func (e *DeliveryError) Error() string {
	parts := []string{fmt.Sprintf("seq=%d", e.Sequence)}
	if e.Destination != "" {
		parts = append(parts, fmt.Sprintf("dest=%s", e.Destination))
	}
	return formatWithContext("delivery error", parts, e.message, e.cause)
}

// -----------------------------------------------------------------------------
// Malformed Wire Data
// -----------------------------------------------------------------------------

// MalformedError reports a frame or message that could not be decoded.
//
// Example:
//
//	err := errors.NewMalformedError(errors.ErrMalformedFrame, "missing sequence").WithRaw(raw)
type MalformedError struct {
	baseError
	Field string
	Raw   string
}

// NewMalformedError creates a MalformedError. cause should be
// ErrMalformedFrame or ErrMalformedMessage.
func NewMalformedError(cause error, message string) *MalformedError {
	return &MalformedError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
	}
}

// WithField records the offending field name.
func (e *MalformedError) WithField(field string) *MalformedError {
	e.Field = field
	return e
}

// WithRaw records (a prefix of) the raw input for diagnostics.
func (e *MalformedError) WithRaw(raw string) *MalformedError {
	const maxRaw = 64
	if len(raw) > maxRaw {
		raw = raw[:maxRaw]
	}
	e.Raw = raw
	return e
}

// Error returns the formatted error message.
func (e *MalformedError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	return formatWithContext("malformed data", parts, e.message, e.cause)
}

// -----------------------------------------------------------------------------
// Validation Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("chat text must be a single line").WithField("text")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			cause:      ErrInvalidInput,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause replaces the cause.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	var cause error
	if e.cause != ErrInvalidInput {
		cause = e.cause
	}
	return formatWithContext("validation error", parts, e.message, cause)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var battleErr BattleError
	if As(err, &battleErr) {
		return battleErr.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display to the player.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var battleErr BattleError
	if As(err, &battleErr) {
		return battleErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement BattleError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var battleErr BattleError
	if As(err, &battleErr) {
		return battleErr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
