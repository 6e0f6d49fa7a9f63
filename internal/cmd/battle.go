package cmd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/pokebattle/internal/config"
	"github.com/Iron-Ham/pokebattle/internal/console"
	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/logging"
	"github.com/Iron-Ham/pokebattle/internal/protocol"
	"github.com/Iron-Ham/pokebattle/internal/roster"
	"github.com/Iron-Ham/pokebattle/internal/spectate"
	"github.com/Iron-Ham/pokebattle/internal/transport"
)

// battleOptions are the process parameters of one battle.
type battleOptions struct {
	role      protocol.Role
	combatant string
	port      int    // local UDP port; 0 picks one
	peer      string // server address, client only
	in        io.Reader
	out       io.Writer
}

// transportConfig maps the transport section onto transport.Config.
func transportConfig(cfg *config.Config) transport.Config {
	return transport.Config{
		RetransmitTimeout: cfg.Transport.RetransmitTimeout,
		SweepInterval:     cfg.Transport.SweepInterval,
		PollTimeout:       cfg.Transport.PollTimeout,
		MaxRetries:        cfg.Transport.MaxRetries,
	}
}

// battleConfig maps the battle section onto protocol.Config.
func battleConfig(cfg *config.Config) protocol.Config {
	return protocol.Config{
		SpecialAttackBoosts:  cfg.Battle.SpecialAttackBoosts,
		SpecialDefenseBoosts: cfg.Battle.SpecialDefenseBoosts,
		AutoDefenseBoost:     cfg.Battle.AutoDefenseBoost,
	}
}

func loadRoster(cfg *config.Config, logger *logging.Logger) (*roster.Roster, error) {
	return roster.NewLoader(afero.NewOsFs(), logger).Load(cfg.Roster.Path, cfg.Roster.MovesPath)
}

// runBattle wires transport, session, console and the optional spectator
// feed, then runs the console until quit, end of input, or a signal.
func runBattle(ctx context.Context, opts battleOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	sessionID := uuid.NewString()
	watchConfig(viper.GetViper(), logger)

	r, err := loadRoster(cfg, logger)
	if err != nil {
		return err
	}
	self, err := r.Get(opts.combatant)
	if err != nil {
		return err
	}

	bus := event.NewBus(logger)

	tr, err := transport.Listen(net.JoinHostPort("", strconv.Itoa(opts.port)), transportConfig(cfg),
		transport.WithLogger(logger.WithSession(sessionID).WithRole(string(opts.role))),
		transport.WithBus(bus))
	if err != nil {
		return err
	}
	defer tr.Close()

	session := protocol.NewSession(opts.role, self, r, tr, battleConfig(cfg),
		protocol.WithLogger(logger),
		protocol.WithBus(bus),
		protocol.WithSessionID(sessionID))
	tr.SetHandler(session.HandleDatagram)
	tr.Start()

	theme := console.NewTheme(opts.out, console.ColorMode(cfg.Display.Color))
	con := console.New(session, opts.in, opts.out,
		console.WithTheme(theme),
		console.WithLogger(logger))
	con.Attach(bus)
	defer con.Detach()

	if cfg.Spectate.Addr != "" {
		hub := spectate.NewHub(
			spectate.WithLogger(logger),
			spectate.WithSnapshot(func() any { return session.Snapshot() }))
		hub.Attach(bus)
		addr, err := hub.Start(cfg.Spectate.Addr)
		if err != nil {
			return err
		}
		defer hub.Close()
		con.Printf("Spectator feed at ws://%s%s", addr, spectate.Path)
	}

	switch opts.role {
	case protocol.RoleServer:
		con.Printf("%s is waiting for a challenger on %s", theme.Self.Render(self.Name), tr.LocalAddr())
	case protocol.RoleClient:
		peer, err := net.ResolveUDPAddr("udp", opts.peer)
		if err != nil {
			return fmt.Errorf("invalid peer address %q: %w", opts.peer, err)
		}
		if err := session.Connect(peer); err != nil {
			return err
		}
		con.Printf("%s is challenging %s", theme.Self.Render(self.Name), peer)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := con.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("battle ended", "state", string(session.State()))
	return nil
}

// watchConfig re-applies logging.level whenever the config file in use
// changes. Other settings are fixed for the life of the process.
func watchConfig(v *viper.Viper, logger *logging.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		applyConfigChange(v, logger, e)
	})
	v.WatchConfig()
}

func applyConfigChange(v *viper.Viper, logger *logging.Logger, e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	level := logging.ParseLevel(v.GetString("logging.level"))
	if level == logger.Level() {
		return
	}
	logger.SetLevel(level)
	logger.Info("log level changed", "file", e.Name, "level", level)
}
