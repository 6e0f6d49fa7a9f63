package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/config"
	"github.com/Iron-Ham/pokebattle/internal/logging"
	"github.com/Iron-Ham/pokebattle/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster [name]",
	Short: "List combatants, or show one in detail",
	Long: `Load the combatant table named by roster.path (and roster.moves_path,
if set). Without arguments, list every combatant. With a name, show its
stats, types, moves, and type matchups.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	r, err := loadRoster(cfg, logging.NopLogger())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		printRoster(out, r)
		return nil
	}
	c, err := r.Get(args[0])
	if err != nil {
		return err
	}
	printCombatant(out, c)
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func printRoster(w io.Writer, r *roster.Roster) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "TYPES", "HP", "ATK", "DEF", "SP.ATK", "SP.DEF", "SPD")
	for _, name := range r.Names() {
		c, ok := r.Lookup(name)
		if !ok {
			continue
		}
		row := []string{c.Name, strings.Join(c.Types, "/")}
		for _, v := range c.Stats.Slice() {
			row = append(row, strconv.Itoa(v))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d combatants\n", r.Len())
}

func printCombatant(w io.Writer, c *combatant.Combatant) {
	fmt.Fprintln(w, headerStyle.Render(c.Name))
	fmt.Fprintf(w, "  types:   %s\n", strings.Join(c.Types, ", "))
	s := c.Stats
	fmt.Fprintf(w, "  stats:   hp %d  atk %d  def %d  sp.atk %d  sp.def %d  spd %d\n",
		s.MaxHP, s.Attack, s.Defense, s.SpAttack, s.SpDefense, s.Speed)
	if c.IsLegendary {
		fmt.Fprintln(w, "  legendary")
	}

	moves := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MOVE", "POWER", "CATEGORY", "TYPE")
	for _, m := range c.Moves() {
		moves.Row(m.Name, strconv.Itoa(m.Power), string(m.Category), m.Type)
	}
	fmt.Fprintln(w, moves.Render())

	var weak, resist []string
	matchups := c.AgainstTable()
	for _, t := range slices.Sorted(maps.Keys(matchups)) {
		switch m := matchups[t]; {
		case m > 1:
			weak = append(weak, fmt.Sprintf("%s x%g", t, m))
		case m < 1:
			resist = append(resist, fmt.Sprintf("%s x%g", t, m))
		}
	}
	if len(weak) > 0 {
		fmt.Fprintf(w, "  weak to: %s\n", strings.Join(weak, ", "))
	}
	if len(resist) > 0 {
		fmt.Fprintf(w, "  resists: %s\n", strings.Join(resist, ", "))
	}
}
