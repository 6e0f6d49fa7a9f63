package protocol

import (
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/pokebattle/internal/combatant"
	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/roster"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

const testSeed uint64 = 42

const testCSV = `name,hp,attack,defense,sp_attack,sp_defense,speed,type1,type2,against_water,against_fire
CHARIZARD,78,84,78,109,85,100,Fire,Flying,2,0.5
BLASTOISE,79,83,100,85,105,78,Water,,0.5,0.5
MAGIKARP,1,10,55,15,20,80,Water,,0.5,0.5
`

var (
	serverAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5000}
	clientAddr = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5001}
)

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.NewLoader(nil, nil).Parse(strings.NewReader(testCSV))
	if err != nil {
		t.Fatalf("failed to parse roster: %v", err)
	}
	return r
}

func mustLookup(t *testing.T, r *roster.Roster, name string) *combatant.Combatant {
	t.Helper()
	c, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("combatant %s not in roster", name)
	}
	return c
}

type packet struct {
	src     net.Addr
	dst     net.Addr
	payload []byte
}

// link connects sessions in memory. Sends are queued and delivered in
// FIFO order by pump, outside any session lock.
type link struct {
	mu        sync.Mutex
	queue     []packet
	delivered []wire.MessageType
	sessions  map[string]*Session
}

func newLink() *link {
	return &link{sessions: make(map[string]*Session)}
}

// endpoint is one session's Sender. Sends of type failOn are refused.
type endpoint struct {
	link   *link
	addr   net.Addr
	seq    uint64
	failOn wire.MessageType
}

var errSendRefused = errors.New("send refused")

func (e *endpoint) SendReliable(payload []byte, dest net.Addr) (uint64, error) {
	e.link.mu.Lock()
	defer e.link.mu.Unlock()
	if m, err := wire.Decode(payload); err == nil && e.failOn != "" && m.Type == e.failOn {
		return 0, errSendRefused
	}
	seq := e.seq + 1
	if _, err := wire.EncodeData(seq, payload); err != nil {
		return 0, err
	}
	e.seq = seq
	e.link.queue = append(e.link.queue, packet{src: e.addr, dst: dest, payload: append([]byte(nil), payload...)})
	return seq, nil
}

// refuse makes e fail every later send of type t.
func (e *endpoint) refuse(t wire.MessageType) {
	e.link.mu.Lock()
	defer e.link.mu.Unlock()
	e.failOn = t
}

func (l *link) attach(addr net.Addr, s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions[addr.String()] = s
}

// step delivers one queued packet and reports whether there was one.
func (l *link) step() bool {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}
	p := l.queue[0]
	l.queue = l.queue[1:]
	dst := l.sessions[p.dst.String()]
	if m, err := wire.Decode(p.payload); err == nil {
		l.delivered = append(l.delivered, m.Type)
	}
	l.mu.Unlock()

	if dst != nil {
		dst.HandleDatagram(p.payload, p.src)
	}
	return true
}

func (l *link) pump() {
	for l.step() {
	}
}

// drop discards everything queued.
func (l *link) drop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = nil
}

func (l *link) pending() []wire.MessageType {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []wire.MessageType
	for _, p := range l.queue {
		if m, err := wire.Decode(p.payload); err == nil {
			out = append(out, m.Type)
		}
	}
	return out
}

func (l *link) resetDelivered() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delivered = nil
}

func (l *link) deliveredTypes() []wire.MessageType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]wire.MessageType(nil), l.delivered...)
}

// eventLog records every event published on a bus.
type eventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func newEventLog(bus *event.Bus) *eventLog {
	l := &eventLog{}
	bus.SubscribeAll(func(e event.Event) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, e)
	})
	return l
}

func (l *eventLog) ofType(t string) []event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []event.Event
	for _, e := range l.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}

type pair struct {
	link         *link
	roster       *roster.Roster
	server       *Session
	client       *Session
	serverEnd    *endpoint
	clientEnd    *endpoint
	serverEvents *eventLog
	clientEvents *eventLog
}

func newPair(t *testing.T, serverName, clientName string, cfg Config) *pair {
	t.Helper()
	r := testRoster(t)
	l := newLink()

	serverBus := event.NewBus(nil)
	clientBus := event.NewBus(nil)

	serverEnd := &endpoint{link: l, addr: serverAddr}
	clientEnd := &endpoint{link: l, addr: clientAddr}

	server := NewSession(RoleServer, mustLookup(t, r, serverName), r,
		serverEnd, cfg,
		WithBus(serverBus),
		WithSessionID("server-session"),
		WithSeedSource(func() uint64 { return testSeed }))
	client := NewSession(RoleClient, mustLookup(t, r, clientName), r,
		clientEnd, cfg,
		WithBus(clientBus),
		WithSessionID("client-session"))

	l.attach(serverAddr, server)
	l.attach(clientAddr, client)

	return &pair{
		link:         l,
		roster:       r,
		server:       server,
		client:       client,
		serverEnd:    serverEnd,
		clientEnd:    clientEnd,
		serverEvents: newEventLog(serverBus),
		clientEvents: newEventLog(clientBus),
	}
}

// handshake connects the client and runs the setup exchange.
func (p *pair) handshake(t *testing.T) {
	t.Helper()
	if err := p.client.Connect(serverAddr); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	p.link.pump()
	if p.server.State() != StateReadyToAttack || p.client.State() != StateReadyToDefend {
		t.Fatalf("after handshake: server %s, client %s", p.server.State(), p.client.State())
	}
	p.link.resetDelivered()
}
