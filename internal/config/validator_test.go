package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "transport.max_retries",
		Value:   -1,
		Message: "must be non-negative",
	}

	expected := "transport.max_retries: must be non-negative (got: -1)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "test.field", Value: 123, Message: "is invalid"},
		}
		expected := "test.field: is invalid (got: 123)"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default config should be valid, got errors: %v", errs)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{"negative port", func(c *Config) { c.Network.Port = -1 }, "network.port"},
		{"port too large", func(c *Config) { c.Network.Port = 70000 }, "network.port"},
		{"peer without port", func(c *Config) { c.Network.PeerAddress = "localhost" }, "network.peer_address"},
		{"peer bad port", func(c *Config) { c.Network.PeerAddress = "localhost:http" }, "network.peer_address"},
		{"zero timeout", func(c *Config) { c.Transport.RetransmitTimeout = 0 }, "transport.retransmit_timeout"},
		{"negative sweep", func(c *Config) { c.Transport.SweepInterval = -time.Millisecond }, "transport.sweep_interval"},
		{"sweep above timeout", func(c *Config) { c.Transport.SweepInterval = time.Second }, "transport.sweep_interval"},
		{"zero poll", func(c *Config) { c.Transport.PollTimeout = 0 }, "transport.poll_timeout"},
		{"poll above timeout", func(c *Config) { c.Transport.PollTimeout = time.Second }, "transport.poll_timeout"},
		{"negative retries", func(c *Config) { c.Transport.MaxRetries = -1 }, "transport.max_retries"},
		{"negative attack boosts", func(c *Config) { c.Battle.SpecialAttackBoosts = -1 }, "battle.special_attack_boosts"},
		{"negative defense boosts", func(c *Config) { c.Battle.SpecialDefenseBoosts = -2 }, "battle.special_defense_boosts"},
		{"empty roster path", func(c *Config) { c.Roster.Path = " " }, "roster.path"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad color", func(c *Config) { c.Display.Color = "rainbow" }, "display.color"},
		{"bad spectate addr", func(c *Config) { c.Spectate.Addr = "8080" }, "spectate.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			errs := cfg.Validate()
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an error for %s", errs, tt.wantField)
			}
		})
	}
}

func TestConfig_Validate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"ephemeral port", func(c *Config) { c.Network.Port = 0 }},
		{"no retries", func(c *Config) { c.Transport.MaxRetries = 0 }},
		{"no boosts", func(c *Config) { c.Battle.SpecialAttackBoosts = 0; c.Battle.SpecialDefenseBoosts = 0 }},
		{"upper-case level", func(c *Config) { c.Logging.Level = "DEBUG" }},
		{"spectate any host", func(c *Config) { c.Spectate.Addr = ":8080" }},
		{"color never", func(c *Config) { c.Display.Color = "never" }},
		{"sweep equals timeout", func(c *Config) { c.Transport.SweepInterval = c.Transport.RetransmitTimeout }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if errs := cfg.Validate(); len(errs) != 0 {
				t.Errorf("Validate() = %v, want no errors", errs)
			}
		})
	}
}
