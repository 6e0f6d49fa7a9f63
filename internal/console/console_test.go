package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/protocol"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr error
	}{
		{"", Command{}, nil},
		{"   ", Command{}, nil},
		{"attack Tackle", Command{Action: ActionAttack, Arg: "Tackle"}, nil},
		{"ATTACK  Elemental Beam ", Command{Action: ActionAttack, Arg: "Elemental Beam"}, nil},
		{"a power hit", Command{Action: ActionAttack, Arg: "power hit"}, nil},
		{"boost", Command{Action: ActionBoost}, nil},
		{"chat good luck, have fun", Command{Action: ActionChat, Arg: "good luck, have fun"}, nil},
		{"say hi", Command{Action: ActionChat, Arg: "hi"}, nil},
		{"status", Command{Action: ActionStatus}, nil},
		{"help", Command{Action: ActionHelp}, nil},
		{"q", Command{Action: ActionQuit}, nil},
		{"exit", Command{Action: ActionQuit}, nil},
		{"attack", Command{}, errors.ErrInvalidInput},
		{"chat   ", Command{}, errors.ErrInvalidInput},
		{"boost twice", Command{}, errors.ErrInvalidInput},
		{"dance", Command{}, ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Parse(%q) error = %v, want %v", tt.line, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

type fakeBattle struct {
	calls     []string
	attackErr error
	snapshot  protocol.Snapshot
}

func (f *fakeBattle) Attack(move string) error {
	f.calls = append(f.calls, "attack:"+move)
	return f.attackErr
}

func (f *fakeBattle) Boost() error {
	f.calls = append(f.calls, "boost")
	return nil
}

func (f *fakeBattle) Chat(text string) error {
	f.calls = append(f.calls, "chat:"+text)
	return nil
}

func (f *fakeBattle) Snapshot() protocol.Snapshot {
	f.calls = append(f.calls, "snapshot")
	return f.snapshot
}

func newTestConsole(battle Battle, in io.Reader) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	return New(battle, in, &out, WithTheme(NewTheme(&out, ColorNever))), &out
}

func TestExecute(t *testing.T) {
	battle := &fakeBattle{}
	c, out := newTestConsole(battle, strings.NewReader(""))

	for _, line := range []string{"attack Tackle", "boost", "chat hello there", "dance"} {
		if c.Execute(line) {
			t.Errorf("Execute(%q) reported quit", line)
		}
	}
	if !c.Execute("quit") {
		t.Error("Execute(quit) should report quit")
	}

	want := []string{"attack:Tackle", "boost", "chat:hello there"}
	if strings.Join(battle.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", battle.calls, want)
	}
	if !strings.Contains(out.String(), "unknown command: dance") {
		t.Errorf("output should report the unknown command, got %q", out.String())
	}
}

func TestExecute_ReportsErrors(t *testing.T) {
	battle := &fakeBattle{
		attackErr: errors.NewLookupError(errors.LookupMove, "Surf").WithOwner("CHARIZARD"),
	}
	c, out := newTestConsole(battle, strings.NewReader(""))

	c.Execute("attack Surf")
	if !strings.Contains(out.String(), "move 'Surf' not found") {
		t.Errorf("output = %q, want the lookup error", out.String())
	}

	out.Reset()
	battle.attackErr = errors.ErrPeerUnknown
	c.Execute("attack Tackle")
	if !strings.Contains(out.String(), "command failed") {
		t.Errorf("output = %q, want a generic failure", out.String())
	}
}

func TestExecute_Status(t *testing.T) {
	battle := &fakeBattle{snapshot: protocol.Snapshot{
		Role:          protocol.RoleServer,
		State:         protocol.StateReadyToAttack,
		Turn:          3,
		Self:          protocol.CombatantView{Name: "CHARIZARD", HP: 40, MaxHP: 78},
		Opponent:      &protocol.CombatantView{Name: "BLASTOISE", HP: 10, MaxHP: 79},
		Moves:         combatant.DefaultMoves("Fire"),
		AttackBoosts:  1,
		DefenseBoosts: 0,
	}}
	c, out := newTestConsole(battle, strings.NewReader(""))

	c.Execute("status")

	for _, want := range []string{"turn 3", "READY_TO_ATTACK", "CHARIZARD", "40/78", "BLASTOISE", "10/79", "Elemental Beam (60 special Fire)"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRun(t *testing.T) {
	battle := &fakeBattle{}
	in := strings.NewReader("attack Tackle\n\nchat hi\nquit\nboost\n")
	c, _ := newTestConsole(battle, in)

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"attack:Tackle", "chat:hi"}
	if strings.Join(battle.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v (nothing after quit)", battle.calls, want)
	}
}

func TestRun_EOF(t *testing.T) {
	battle := &fakeBattle{}
	c, _ := newTestConsole(battle, strings.NewReader("boost"))

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(battle.calls) != 1 || battle.calls[0] != "boost" {
		t.Errorf("calls = %v, want [boost]", battle.calls)
	}
}

func TestRun_Cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c, _ := newTestConsole(&fakeBattle{}, pr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestAttach(t *testing.T) {
	bus := event.NewBus(nil)
	c, out := newTestConsole(&fakeBattle{}, strings.NewReader(""))
	c.Attach(bus)

	bus.Publish(event.NewChatEvent("s", event.SidePeer, "nice move"))
	bus.Publish(event.NewDamageAppliedEvent("s", 1, "CHARIZARD", "BLASTOISE", event.SidePeer, "Tackle", 12, 67, 79))
	bus.Publish(event.NewRetransmitEvent(4, "127.0.0.1:5000", 1))
	bus.Publish(event.NewBattleOverEvent("s", "WIN", 4, 20, 0))

	got := out.String()
	for _, want := range []string{"[opponent] nice move", "BLASTOISE took 12 damage", "67/79", "WIN after 4 turns"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "127.0.0.1:5000") {
		t.Error("retransmit events should not be shown")
	}

	c.Detach()
	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Detach, want 0", bus.SubscriptionCount())
	}
	out.Reset()
	bus.Publish(event.NewChatEvent("s", event.SidePeer, "ignored"))
	if out.Len() != 0 {
		t.Errorf("detached console wrote %q", out.String())
	}
}

func TestHPBar(t *testing.T) {
	theme := NewTheme(io.Discard, ColorNever)

	tests := []struct {
		hp, maxHP int
		filled    int
	}{
		{78, 78, hpBarWidth},
		{0, 78, 0},
		{1, 78, 1},
		{39, 78, 10},
		{-5, 78, 0},
		{100, 78, hpBarWidth},
	}
	for _, tt := range tests {
		bar := theme.HPBar(tt.hp, tt.maxHP)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("HPBar(%d, %d) filled = %d, want %d (%q)", tt.hp, tt.maxHP, got, tt.filled, bar)
		}
	}
}

func TestNewTheme_ColorModes(t *testing.T) {
	var buf bytes.Buffer

	plain := NewTheme(&buf, ColorNever).Error.Render("x")
	if strings.Contains(plain, "\x1b[") {
		t.Errorf("ColorNever output contains escapes: %q", plain)
	}
	styled := NewTheme(&buf, ColorAlways).Error.Render("x")
	if !strings.Contains(styled, "\x1b[") {
		t.Errorf("ColorAlways output has no escapes: %q", styled)
	}
	// A buffer is not a terminal.
	auto := NewTheme(&buf, ColorAuto).Error.Render("x")
	if strings.Contains(auto, "\x1b[") {
		t.Errorf("ColorAuto on a non-terminal contains escapes: %q", auto)
	}
}
