package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/protocol"
)

// ColorMode controls whether output is styled.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ValidColorModes returns the accepted color modes.
func ValidColorModes() []string {
	return []string{string(ColorAuto), string(ColorAlways), string(ColorNever)}
}

var (
	primaryColor = lipgloss.Color("#A78BFA")
	greenColor   = lipgloss.Color("#10B981")
	yellowColor  = lipgloss.Color("#FBBF24")
	redColor     = lipgloss.Color("#F87171")
	blueColor    = lipgloss.Color("#60A5FA")
	mutedColor   = lipgloss.Color("#9CA3AF")
)

// hpBarWidth is the number of cells in a health bar.
const hpBarWidth = 20

// Theme renders battle output.
type Theme struct {
	Title   lipgloss.Style
	Self    lipgloss.Style
	Peer    lipgloss.Style
	Info    lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	HPHigh  lipgloss.Style
	HPMid   lipgloss.Style
	HPLow   lipgloss.Style
	Win     lipgloss.Style
	Loss    lipgloss.Style
}

// NewTheme builds a theme for out. In ColorAuto mode output is styled only
// when out is a terminal.
func NewTheme(out io.Writer, mode ColorMode) *Theme {
	r := lipgloss.NewRenderer(out)
	if colorEnabled(out, mode) {
		if mode == ColorAlways {
			r.SetColorProfile(termenv.TrueColor)
		}
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Theme{
		Title:   r.NewStyle().Bold(true).Foreground(primaryColor),
		Self:    r.NewStyle().Bold(true).Foreground(blueColor),
		Peer:    r.NewStyle().Bold(true).Foreground(yellowColor),
		Info:    r.NewStyle().Foreground(greenColor),
		Warning: r.NewStyle().Foreground(yellowColor),
		Error:   r.NewStyle().Bold(true).Foreground(redColor),
		Muted:   r.NewStyle().Foreground(mutedColor),
		HPHigh:  r.NewStyle().Foreground(greenColor),
		HPMid:   r.NewStyle().Foreground(yellowColor),
		HPLow:   r.NewStyle().Foreground(redColor),
		Win: r.NewStyle().
			Bold(true).
			Foreground(greenColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(greenColor).
			Padding(0, 2),
		Loss: r.NewStyle().
			Bold(true).
			Foreground(redColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(redColor).
			Padding(0, 2),
	}
}

func colorEnabled(out io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// HPBar draws hp out of maxHP. Any positive hp fills at least one cell.
func (t *Theme) HPBar(hp, maxHP int) string {
	if maxHP <= 0 {
		maxHP = 1
	}
	hp = min(max(hp, 0), maxHP)
	filled := (hp*hpBarWidth + maxHP - 1) / maxHP

	style := t.HPHigh
	switch {
	case hp*5 <= maxHP:
		style = t.HPLow
	case hp*2 <= maxHP:
		style = t.HPMid
	}
	bar := style.Render(strings.Repeat("█", filled)) + t.Muted.Render(strings.Repeat("░", hpBarWidth-filled))
	return fmt.Sprintf("%s %d/%d", bar, hp, maxHP)
}

// Status renders a snapshot for the status command.
func (t *Theme) Status(s protocol.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  turn %d  %s\n", t.Title.Render("Battle "+string(s.Role)), s.Turn, t.Muted.Render(string(s.State)))
	fmt.Fprintf(&b, "  %-12s %s  boosts atk %d def %d\n",
		t.Self.Render(s.Self.Name), t.HPBar(s.Self.HP, s.Self.MaxHP), s.AttackBoosts, s.DefenseBoosts)
	if s.Opponent != nil {
		fmt.Fprintf(&b, "  %-12s %s  boosts atk %d def %d\n",
			t.Peer.Render(s.Opponent.Name), t.HPBar(s.Opponent.HP, s.Opponent.MaxHP), s.PeerAttackBoosts, s.PeerDefenseBoosts)
	} else {
		fmt.Fprintf(&b, "  %s\n", t.Muted.Render("waiting for opponent"))
	}
	if s.AttackBoostArmed {
		fmt.Fprintf(&b, "  %s\n", t.Info.Render("special attack boost armed"))
	}
	if len(s.Moves) > 0 {
		names := make([]string, len(s.Moves))
		for i, m := range s.Moves {
			names[i] = fmt.Sprintf("%s (%d %s %s)", m.Name, m.Power, m.Category, m.Type)
		}
		fmt.Fprintf(&b, "  moves: %s\n", strings.Join(names, ", "))
	}
	if s.Outcome != protocol.OutcomeNone {
		fmt.Fprintf(&b, "  outcome: %s\n", s.Outcome)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Event renders e, or returns "" for events the console does not show.
func (t *Theme) Event(e event.Event) string {
	switch e := e.(type) {
	case event.StateChangedEvent:
		switch protocol.State(e.To) {
		case protocol.StateReadyToAttack:
			return t.Info.Render(fmt.Sprintf("Turn %d: your move.", e.Turn)) + " " + t.Muted.Render("attack <move> | boost | chat <text> | status | quit")
		case protocol.StateReadyToDefend:
			return t.Muted.Render(fmt.Sprintf("Turn %d: waiting for the opponent's attack...", e.Turn))
		}
	case event.ChatEvent:
		if e.From == event.SideSelf {
			return t.Self.Render("[you]") + " " + e.Text
		}
		return t.Peer.Render("[opponent]") + " " + e.Text
	case event.BoostEvent:
		who := "You"
		if e.Side == event.SidePeer {
			who = "Opponent"
		}
		return t.Warning.Render(fmt.Sprintf("%s spent a %s boost (%d left).", who, e.Kind, e.Remaining))
	case event.DamageAppliedEvent:
		return fmt.Sprintf("%s used %s: %s took %d damage  %s",
			e.Attacker, e.Move, e.Defender, e.Damage, t.HPBar(e.HP, e.MaxHP))
	case event.VerificationFailedEvent:
		return t.Error.Render(fmt.Sprintf("Damage mismatch on %s: we computed %d, opponent reported %d. Turn stalled.", e.Move, e.Local, e.Peer))
	case event.BattleOverEvent:
		text := fmt.Sprintf("%s after %d turns (you %d HP, opponent %d HP)", e.Outcome, e.Turns, e.OwnHP, e.OpponentHP)
		if e.Outcome == string(protocol.OutcomeWin) {
			return t.Win.Render(text)
		}
		return t.Loss.Render(text)
	case event.DeliveryFailedEvent:
		return t.Warning.Render(fmt.Sprintf("No acknowledgment from %s after %d attempts.", e.Destination, e.Attempts))
	}
	return ""
}
