package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/pokebattle/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "pokebattle",
	Short: "Two-player turn-based battles over UDP",
	Long: `Pokebattle runs one side of a two-player battle. One player starts a
server, the other connects as a client, and the two peers exchange moves
over UDP with acknowledged, retransmitted delivery. Each peer computes the
damage of every move independently and the two results are cross-checked.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/pokebattle/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("roster", "", "combatant CSV file")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("roster.path", rootCmd.PersistentFlags().Lookup("roster"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("POKEBATTLE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., POKEBATTLE_TRANSPORT_MAX_RETRIES for transport.max_retries
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
