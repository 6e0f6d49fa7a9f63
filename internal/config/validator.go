package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"

	"github.com/Iron-Ham/pokebattle/internal/console"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "transport.max_retries")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateNetwork()...)
	errors = append(errors, c.validateTransport()...)
	errors = append(errors, c.validateBattle()...)
	errors = append(errors, c.validateRoster()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateDisplay()...)
	errors = append(errors, c.validateSpectate()...)

	return errors
}

// validateNetwork validates the NetworkConfig
func (c *Config) validateNetwork() []ValidationError {
	var errors []ValidationError

	// Port 0 asks the OS for an ephemeral port
	if c.Network.Port < 0 || c.Network.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "network.port",
			Value:   c.Network.Port,
			Message: "must be between 0 and 65535",
		})
	}

	if c.Network.PeerAddress != "" {
		if err := validateHostPort(c.Network.PeerAddress); err != "" {
			errors = append(errors, ValidationError{
				Field:   "network.peer_address",
				Value:   c.Network.PeerAddress,
				Message: err,
			})
		}
	}

	return errors
}

// validateTransport validates the TransportConfig
func (c *Config) validateTransport() []ValidationError {
	var errors []ValidationError
	t := c.Transport

	durations := []struct {
		field string
		value any
		ok    bool
	}{
		{"transport.retransmit_timeout", t.RetransmitTimeout, t.RetransmitTimeout > 0},
		{"transport.sweep_interval", t.SweepInterval, t.SweepInterval > 0},
		{"transport.poll_timeout", t.PollTimeout, t.PollTimeout > 0},
	}
	for _, d := range durations {
		if !d.ok {
			errors = append(errors, ValidationError{
				Field:   d.field,
				Value:   d.value,
				Message: "must be positive",
			})
		}
	}

	// A sweep slower than the timeout delays every retransmission
	if t.SweepInterval > 0 && t.RetransmitTimeout > 0 && t.SweepInterval > t.RetransmitTimeout {
		errors = append(errors, ValidationError{
			Field:   "transport.sweep_interval",
			Value:   t.SweepInterval,
			Message: fmt.Sprintf("must not exceed transport.retransmit_timeout (%s)", t.RetransmitTimeout),
		})
	}

	if t.PollTimeout > 0 && t.RetransmitTimeout > 0 && t.PollTimeout > t.RetransmitTimeout {
		errors = append(errors, ValidationError{
			Field:   "transport.poll_timeout",
			Value:   t.PollTimeout,
			Message: fmt.Sprintf("must not exceed transport.retransmit_timeout (%s)", t.RetransmitTimeout),
		})
	}

	if t.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "transport.max_retries",
			Value:   t.MaxRetries,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateBattle validates the BattleConfig
func (c *Config) validateBattle() []ValidationError {
	var errors []ValidationError

	if c.Battle.SpecialAttackBoosts < 0 {
		errors = append(errors, ValidationError{
			Field:   "battle.special_attack_boosts",
			Value:   c.Battle.SpecialAttackBoosts,
			Message: "must be non-negative",
		})
	}
	if c.Battle.SpecialDefenseBoosts < 0 {
		errors = append(errors, ValidationError{
			Field:   "battle.special_defense_boosts",
			Value:   c.Battle.SpecialDefenseBoosts,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateRoster validates the RosterConfig
func (c *Config) validateRoster() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Roster.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "roster.path",
			Value:   c.Roster.Path,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

// validateDisplay validates the DisplayConfig
func (c *Config) validateDisplay() []ValidationError {
	var errors []ValidationError

	if c.Display.Color != "" && !slices.Contains(console.ValidColorModes(), c.Display.Color) {
		errors = append(errors, ValidationError{
			Field:   "display.color",
			Value:   c.Display.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(console.ValidColorModes(), ", ")),
		})
	}

	return errors
}

// validateSpectate validates the SpectateConfig
func (c *Config) validateSpectate() []ValidationError {
	var errors []ValidationError

	if c.Spectate.Addr != "" {
		if err := validateHostPort(c.Spectate.Addr); err != "" {
			errors = append(errors, ValidationError{
				Field:   "spectate.addr",
				Value:   c.Spectate.Addr,
				Message: err,
			})
		}
	}

	return errors
}

// validateHostPort checks a host:port pair. The host may be empty. It
// returns a message, or "" when addr is valid.
func validateHostPort(addr string) string {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "must be in host:port form"
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return "port must be between 0 and 65535"
	}
	return ""
}
