package transport

import (
	"net"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		RetransmitTimeout: 40 * time.Millisecond,
		SweepInterval:     10 * time.Millisecond,
		PollTimeout:       10 * time.Millisecond,
		MaxRetries:        5,
	}
}

func listenLoopback(t *testing.T) net.PacketConn {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback UDP unavailable: %v", err)
	}
	return conn
}

// lossyConn drops the first n writes.
type lossyConn struct {
	net.PacketConn
	drop atomic.Int32
}

func (c *lossyConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	if c.drop.Add(-1) >= 0 {
		return len(b), nil
	}
	return c.PacketConn.WriteTo(b, addr)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLoopbackDelivery(t *testing.T) {
	a := New(listenLoopback(t), fastConfig())
	b := New(listenLoopback(t), fastConfig())
	defer a.Close()
	defer b.Close()

	rec := &recorder{}
	b.SetHandler(rec.handle)
	a.SetHandler(func([]byte, net.Addr) {})
	a.Start()
	b.Start()

	for _, msg := range []string{"one", "two", "three"} {
		if _, err := a.SendReliable([]byte(msg), b.LocalAddr()); err != nil {
			t.Fatalf("SendReliable(%q) error = %v", msg, err)
		}
	}

	waitFor(t, "three deliveries", func() bool { return len(rec.got()) == 3 })
	waitFor(t, "all acks", func() bool { return a.Pending() == 0 })

	got := rec.got()
	for i, want := range []string{"one", "two", "three"} {
		if got[i] != want {
			t.Errorf("delivery %d = %q, want %q", i, got[i], want)
		}
	}
}

func TestLoopbackRetransmitsAfterLoss(t *testing.T) {
	lossy := &lossyConn{PacketConn: listenLoopback(t)}
	lossy.drop.Store(2)

	a := New(lossy, fastConfig())
	b := New(listenLoopback(t), fastConfig())
	defer a.Close()
	defer b.Close()

	rec := &recorder{}
	b.SetHandler(rec.handle)
	a.Start()
	b.Start()

	if _, err := a.SendReliable([]byte("eventually"), b.LocalAddr()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "delivery after loss", func() bool { return len(rec.got()) == 1 })
	waitFor(t, "ack after loss", func() bool { return a.Pending() == 0 })

	time.Sleep(100 * time.Millisecond)
	if n := len(rec.got()); n != 1 {
		t.Errorf("deliveries = %d, want exactly 1", n)
	}
}

func TestLoopbackCloseStopsLoops(t *testing.T) {
	tr := New(listenLoopback(t), fastConfig())
	tr.Start()

	start := time.Now()
	if err := tr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Close() took %v", elapsed)
	}
}
