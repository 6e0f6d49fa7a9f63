package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/logging"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

// Config holds the reliability timings.
type Config struct {
	// RetransmitTimeout is the age after which an outstanding send is resent.
	RetransmitTimeout time.Duration
	// SweepInterval is how often outstanding sends are checked.
	SweepInterval time.Duration
	// PollTimeout bounds each socket read so the receive loop sees shutdown.
	PollTimeout time.Duration
	// MaxRetries is the number of retransmissions before a send is abandoned.
	MaxRetries int
}

// DefaultConfig returns the standard timings: 500ms timeout, swept four
// times per timeout, 100ms read polls, three retries.
func DefaultConfig() Config {
	return Config{
		RetransmitTimeout: 500 * time.Millisecond,
		SweepInterval:     125 * time.Millisecond,
		PollTimeout:       100 * time.Millisecond,
		MaxRetries:        3,
	}
}

// Handler receives application payloads in accepted order.
type Handler func(payload []byte, from net.Addr)

// outstanding is a send awaiting acknowledgment.
type outstanding struct {
	seq     uint64
	frame   []byte
	dest    net.Addr
	sentAt  time.Time
	retries int
}

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l.WithComponent("transport")
		}
	}
}

// WithBus sets the bus that receives retransmit and delivery-failure events.
func WithBus(b *event.Bus) Option {
	return func(t *Transport) { t.bus = b }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Transport) { t.now = now }
}

// Transport is a reliable datagram channel over one net.PacketConn.
// It is safe for concurrent use.
type Transport struct {
	conn   net.PacketConn
	cfg    Config
	logger *logging.Logger
	bus    *event.Bus
	now    func() time.Time

	mu      sync.Mutex
	nextSeq uint64
	pending map[uint64]*outstanding

	peerMu       sync.Mutex
	lastAccepted map[string]uint64 // peer address -> highest delivered seq

	handlerMu sync.RWMutex
	handler   Handler

	started   atomic.Bool
	closing   atomic.Bool
	done      chan struct{}
	loops     conc.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// New wraps conn. The transport does not read or sweep until Start.
func New(conn net.PacketConn, cfg Config, opts ...Option) *Transport {
	t := &Transport{
		conn:         conn,
		cfg:          cfg,
		logger:       logging.NopLogger(),
		now:          time.Now,
		pending:      make(map[uint64]*outstanding),
		lastAccepted: make(map[string]uint64),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Listen opens a UDP socket on addr and wraps it.
func Listen(addr string, cfg Config, opts ...Option) (*Transport, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen on %s", addr)
	}
	return New(conn, cfg, opts...), nil
}

// SetHandler installs the payload handler. Until one is set, DATA frames
// are neither acknowledged nor accepted, so the sender keeps retrying.
func (t *Transport) SetHandler(h Handler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.handler = h
}

func (t *Transport) currentHandler() Handler {
	t.handlerMu.RLock()
	defer t.handlerMu.RUnlock()
	return t.handler
}

// LocalAddr returns the socket's local address.
func (t *Transport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Start launches the receive and sweep loops. Calling it again is a no-op.
func (t *Transport) Start() {
	if t.closing.Load() || !t.started.CompareAndSwap(false, true) {
		return
	}
	t.loops.Go(t.receiveLoop)
	t.loops.Go(t.sweepLoop)
	t.logger.Info("transport started", "local_addr", t.conn.LocalAddr().String())
}

// Close stops both loops and closes the socket. Outstanding sends are
// abandoned. Safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closing.Store(true)
		close(t.done)
		t.closeErr = t.conn.Close()
		if r := t.loops.WaitAndRecover(); r != nil {
			t.logger.Error("transport loop panicked", "panic", r.String())
		}
		t.logger.Info("transport closed", "abandoned", t.Pending())
	})
	return t.closeErr
}

// SendReliable assigns the next sequence number, writes the framed payload
// once and tracks it for retransmission. It returns without waiting for
// an acknowledgment. A write error is logged and left to the sweep.
func (t *Transport) SendReliable(payload []byte, dest net.Addr) (uint64, error) {
	if t.closing.Load() {
		return 0, errors.ErrTransportClosed
	}
	if dest == nil {
		return 0, errors.ErrPeerUnknown
	}

	t.mu.Lock()
	seq := t.nextSeq + 1
	frame, err := wire.EncodeData(seq, payload)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	t.nextSeq = seq
	t.pending[seq] = &outstanding{
		seq:    seq,
		frame:  frame,
		dest:   dest,
		sentAt: t.now(),
	}
	t.mu.Unlock()

	t.write(frame, dest, "seq", seq)
	return seq, nil
}

// Pending returns the number of sends awaiting acknowledgment.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// IsPending reports whether seq is still awaiting acknowledgment.
func (t *Transport) IsPending(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[seq]
	return ok
}

func (t *Transport) write(b []byte, dest net.Addr, args ...any) {
	if _, err := t.conn.WriteTo(b, dest); err != nil {
		if t.closing.Load() {
			return
		}
		t.logger.Error("datagram write failed",
			append([]any{"dest", dest.String(), "error", err}, args...)...)
	}
}

func (t *Transport) publish(e event.Event) {
	if t.bus != nil {
		t.bus.Publish(e)
	}
}
