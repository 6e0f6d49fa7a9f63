package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/pokebattle/internal/protocol"
)

var clientCmd = &cobra.Command{
	Use:   "client <combatant>",
	Short: "Challenge a waiting server",
	Long: `Connect to a server at network.peer_address (or --peer) with the
named combatant. The client defends first.`,
	Args: cobra.ExactArgs(1),
	RunE: runClient,
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().String("peer", "127.0.0.1:5000", "server address (host:port)")
	clientCmd.Flags().IntP("port", "p", 0, "local UDP port (0 picks one)")
	_ = viper.BindPFlag("network.peer_address", clientCmd.Flags().Lookup("peer"))
}

func runClient(cmd *cobra.Command, args []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return err
	}
	return runBattle(cmd.Context(), battleOptions{
		role:      protocol.RoleClient,
		combatant: args[0],
		port:      port,
		peer:      viper.GetString("network.peer_address"),
		in:        cmd.InOrStdin(),
		out:       cmd.OutOrStdout(),
	})
}
