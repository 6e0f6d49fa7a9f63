package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/pokebattle/internal/protocol"
)

var serverCmd = &cobra.Command{
	Use:   "server <combatant>",
	Short: "Host a battle and wait for a challenger",
	Long: `Host a battle with the named combatant. The server listens on
network.port (or --port), accepts the first client that says HELLO, picks
the battle seed, and attacks first.`,
	Args: cobra.ExactArgs(1),
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", 5000, "UDP port to listen on")
	_ = viper.BindPFlag("network.port", serverCmd.Flags().Lookup("port"))
}

func runServer(cmd *cobra.Command, args []string) error {
	return runBattle(cmd.Context(), battleOptions{
		role:      protocol.RoleServer,
		combatant: args[0],
		port:      viper.GetInt("network.port"),
		in:        cmd.InOrStdin(),
		out:       cmd.OutOrStdout(),
	})
}
