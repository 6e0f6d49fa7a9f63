// Package console is the line-oriented front end of a battle. It reads
// commands, hands them to the session, and prints what the session
// publishes on the event bus.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/logging"
	"github.com/Iron-Ham/pokebattle/internal/protocol"
)

// Battle is the part of a protocol session the console drives.
type Battle interface {
	Attack(move string) error
	Boost() error
	Chat(text string) error
	Snapshot() protocol.Snapshot
}

// Console reads commands from in and writes to out.
type Console struct {
	battle Battle
	in     io.Reader
	out    io.Writer
	theme  *Theme
	logger *logging.Logger

	mu    sync.Mutex // serializes writes to out
	bus   *event.Bus
	subID string
}

// Option configures a Console.
type Option func(*Console)

// WithTheme sets the theme. The default is NewTheme(out, ColorAuto).
func WithTheme(t *Theme) Option {
	return func(c *Console) { c.theme = t }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a console for battle.
func New(battle Battle, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		battle: battle,
		in:     in,
		out:    out,
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.theme == nil {
		c.theme = NewTheme(out, ColorAuto)
	}
	c.logger = c.logger.WithComponent("console")
	return c
}

// Attach subscribes the console to bus. Handlers only write to out, so it
// is safe for the session to publish while holding its lock.
func (c *Console) Attach(bus *event.Bus) {
	c.Detach()
	c.bus = bus
	c.subID = bus.SubscribeAll(c.onEvent)
}

// Detach removes the bus subscription, if any.
func (c *Console) Detach() {
	if c.bus != nil {
		c.bus.Unsubscribe(c.subID)
		c.bus = nil
		c.subID = ""
	}
}

func (c *Console) onEvent(e event.Event) {
	if line := c.theme.Event(e); line != "" {
		c.println(line)
	}
}

// Run reads commands until quit, end of input, or ctx is done. It returns
// ctx.Err() when cancelled and nil otherwise.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						c.logger.Warn("input read failed", "error", err)
					}
				default:
				}
				return nil
			}
			if c.Execute(line) {
				return nil
			}
		}
	}
}

// Execute runs one input line and reports whether the user asked to quit.
func (c *Console) Execute(line string) (quit bool) {
	cmd, err := Parse(line)
	if err != nil {
		c.showError(err)
		return false
	}
	if cmd.Action != ActionNone {
		c.logger.Debug("command", "action", string(cmd.Action), "arg", cmd.Arg)
	}

	switch cmd.Action {
	case ActionAttack:
		c.report(c.battle.Attack(cmd.Arg))
	case ActionBoost:
		c.report(c.battle.Boost())
	case ActionChat:
		c.report(c.battle.Chat(cmd.Arg))
	case ActionStatus:
		c.println(c.theme.Status(c.battle.Snapshot()))
	case ActionHelp:
		c.println(helpText)
	case ActionQuit:
		c.println(c.theme.Muted.Render("Leaving the battle."))
		return true
	}
	return false
}

func (c *Console) report(err error) {
	if err != nil {
		c.showError(err)
	}
}

// showError prints user-facing errors as they are and anything else as a
// generic failure; the details go to the log.
func (c *Console) showError(err error) {
	if errors.IsUserFacing(err) {
		c.println(c.theme.Error.Render(err.Error()))
		return
	}
	c.logger.Warn("command failed", "error", err)
	c.println(c.theme.Error.Render("command failed: " + err.Error()))
}

// Printf writes a formatted line to out.
func (c *Console) Printf(format string, args ...any) {
	c.println(fmt.Sprintf(format, args...))
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
