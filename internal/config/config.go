package config

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config represents the complete pokebattle configuration
type Config struct {
	Network   NetworkConfig   `mapstructure:"network"`
	Transport TransportConfig `mapstructure:"transport"`
	Battle    BattleConfig    `mapstructure:"battle"`
	Roster    RosterConfig    `mapstructure:"roster"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Display   DisplayConfig   `mapstructure:"display"`
	Spectate  SpectateConfig  `mapstructure:"spectate"`
}

// NetworkConfig controls addressing
type NetworkConfig struct {
	// Port is the UDP port a server listens on (default: 5000).
	// Clients bind an ephemeral port unless --port is given.
	Port int `mapstructure:"port"`
	// PeerAddress is the server a client connects to (default: "127.0.0.1:5000")
	PeerAddress string `mapstructure:"peer_address"`
}

// TransportConfig controls retransmission
type TransportConfig struct {
	// RetransmitTimeout is how old an unacknowledged send must be before it is resent
	RetransmitTimeout time.Duration `mapstructure:"retransmit_timeout"`
	// SweepInterval is how often outstanding sends are checked
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// PollTimeout bounds each socket read so shutdown is noticed promptly
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
	// MaxRetries is the number of resends before a send is abandoned
	MaxRetries int `mapstructure:"max_retries"`
}

// BattleConfig controls battle rules
type BattleConfig struct {
	SpecialAttackBoosts  int `mapstructure:"special_attack_boosts"`
	SpecialDefenseBoosts int `mapstructure:"special_defense_boosts"`
	// AutoDefenseBoost spends a special defense boost automatically when a
	// special move is announced against us (default: true)
	AutoDefenseBoost bool `mapstructure:"auto_defense_boost"`
}

// RosterConfig locates the combatant data
type RosterConfig struct {
	// Path is the combatant CSV (default: "pokemon.csv")
	Path string `mapstructure:"path"`
	// MovesPath is an optional YAML file of extra moves per combatant
	MovesPath string `mapstructure:"moves_path"`
}

// LoggingConfig controls logging
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where battle.log is written; empty means stderr
	Dir string `mapstructure:"dir"`
}

// DisplayConfig controls console output
type DisplayConfig struct {
	// Color is auto, always or never (default: "auto")
	Color string `mapstructure:"color"`
}

// SpectateConfig controls the websocket event feed
type SpectateConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:8080". Empty disables the feed.
	Addr string `mapstructure:"addr"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			Port:        5000,
			PeerAddress: "127.0.0.1:5000",
		},
		Transport: TransportConfig{
			RetransmitTimeout: 500 * time.Millisecond,
			SweepInterval:     125 * time.Millisecond,
			PollTimeout:       100 * time.Millisecond,
			MaxRetries:        3,
		},
		Battle: BattleConfig{
			SpecialAttackBoosts:  1,
			SpecialDefenseBoosts: 1,
			AutoDefenseBoost:     true,
		},
		Roster: RosterConfig{
			Path: "pokemon.csv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Display: DisplayConfig{
			Color: "auto",
		},
	}
}

// SetDefaults registers the defaults with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers the defaults with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Network defaults
	v.SetDefault("network.port", defaults.Network.Port)
	v.SetDefault("network.peer_address", defaults.Network.PeerAddress)

	// Transport defaults
	v.SetDefault("transport.retransmit_timeout", defaults.Transport.RetransmitTimeout)
	v.SetDefault("transport.sweep_interval", defaults.Transport.SweepInterval)
	v.SetDefault("transport.poll_timeout", defaults.Transport.PollTimeout)
	v.SetDefault("transport.max_retries", defaults.Transport.MaxRetries)

	// Battle defaults
	v.SetDefault("battle.special_attack_boosts", defaults.Battle.SpecialAttackBoosts)
	v.SetDefault("battle.special_defense_boosts", defaults.Battle.SpecialDefenseBoosts)
	v.SetDefault("battle.auto_defense_boost", defaults.Battle.AutoDefenseBoost)

	// Roster defaults
	v.SetDefault("roster.path", defaults.Roster.Path)
	v.SetDefault("roster.moves_path", defaults.Roster.MovesPath)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)

	// Display defaults
	v.SetDefault("display.color", defaults.Display.Color)

	// Spectate defaults
	v.SetDefault("spectate.addr", defaults.Spectate.Addr)
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	v := viper.New()
	SetDefaultsOn(v)
	keys := v.AllKeys()
	slices.Sort(keys)
	return keys
}

// decodeHook lets duration keys be written as "500ms" and numeric keys as strings.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Load reads the configuration from the global viper instance and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v and validates it
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pokebattle")
	}
	// Fall back to ~/.config/pokebattle
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pokebattle"
	}
	return filepath.Join(home, ".config", "pokebattle")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
