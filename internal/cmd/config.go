package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/pokebattle/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify pokebattle configuration",
	Long: `View or modify pokebattle configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  pokebattle config set network.port 6000
  pokebattle config set transport.retransmit_timeout 750ms
  pokebattle config set battle.auto_defense_boost false

Run 'pokebattle config show' to see every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/pokebattle/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "network:")
	fmt.Fprintf(out, "  port: %d\n", cfg.Network.Port)
	fmt.Fprintf(out, "  peer_address: %s\n", cfg.Network.PeerAddress)

	fmt.Fprintln(out, "transport:")
	fmt.Fprintf(out, "  retransmit_timeout: %s\n", cfg.Transport.RetransmitTimeout)
	fmt.Fprintf(out, "  sweep_interval: %s\n", cfg.Transport.SweepInterval)
	fmt.Fprintf(out, "  poll_timeout: %s\n", cfg.Transport.PollTimeout)
	fmt.Fprintf(out, "  max_retries: %d\n", cfg.Transport.MaxRetries)

	fmt.Fprintln(out, "battle:")
	fmt.Fprintf(out, "  special_attack_boosts: %d\n", cfg.Battle.SpecialAttackBoosts)
	fmt.Fprintf(out, "  special_defense_boosts: %d\n", cfg.Battle.SpecialDefenseBoosts)
	fmt.Fprintf(out, "  auto_defense_boost: %v\n", cfg.Battle.AutoDefenseBoost)

	fmt.Fprintln(out, "roster:")
	fmt.Fprintf(out, "  path: %s\n", cfg.Roster.Path)
	fmt.Fprintf(out, "  moves_path: %s\n", cfg.Roster.MovesPath)

	fmt.Fprintln(out, "logging:")
	fmt.Fprintf(out, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(out, "  dir: %s\n", cfg.Logging.Dir)

	fmt.Fprintln(out, "display:")
	fmt.Fprintf(out, "  color: %s\n", cfg.Display.Color)

	fmt.Fprintln(out, "spectate:")
	fmt.Fprintf(out, "  addr: %s\n", cfg.Spectate.Addr)

	return nil
}

// coerceValue converts raw to the type of the key's default.
func coerceValue(key, raw string) (any, error) {
	if !slices.Contains(config.Keys(), key) {
		return nil, fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(config.Keys(), ", "))
	}

	defaults := viper.New()
	config.SetDefaultsOn(defaults)

	switch defaults.Get(key).(type) {
	case int:
		v, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		return v, nil
	case bool:
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return v, nil
	case time.Duration:
		v, err := cast.ToDurationE(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected a duration such as 500ms", key)
		}
		// Stored as text so the file stays readable.
		return v.String(), nil
	default:
		return raw, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value, err := coerceValue(key, args[1])
	if err != nil {
		return err
	}

	// Validate the result before touching the file
	previous := viper.Get(key)
	viper.Set(key, value)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return err
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, value)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

const configTemplate = `# pokebattle configuration

network:
  # UDP port the server listens on
  port: 5000
  # Server address a client connects to
  peer_address: 127.0.0.1:5000

# Reliable delivery over UDP
transport:
  # Resend a datagram that has not been acknowledged for this long
  retransmit_timeout: 500ms
  # How often outstanding datagrams are checked (must not exceed the timeout)
  sweep_interval: 125ms
  # Socket read deadline; bounds how long shutdown takes
  poll_timeout: 100ms
  # Resends before a datagram is given up on
  max_retries: 3

battle:
  special_attack_boosts: 1
  special_defense_boosts: 1
  # Spend a special defense boost automatically against special moves
  auto_defense_boost: true

roster:
  # Combatant table (CSV)
  path: pokemon.csv
  # Optional YAML file with extra moves per combatant
  moves_path: ""

logging:
  # debug, info, warn or error (changes take effect while running)
  level: info
  # Directory for battle.log; empty logs to stderr
  dir: ""

display:
  # auto, always or never
  color: auto

spectate:
  # Websocket event feed, e.g. 127.0.0.1:8080; empty disables it
  addr: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'pokebattle config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", configFile)
	fmt.Fprintf(out, "  2. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: POKEBATTLE_* (e.g., POKEBATTLE_TRANSPORT_MAX_RETRIES)")

	return nil
}
