package transport

import (
	"net"
	"slices"
	"time"

	"github.com/Iron-Ham/pokebattle/internal/errors"
	"github.com/Iron-Ham/pokebattle/internal/event"
	"github.com/Iron-Ham/pokebattle/internal/wire"
)

// receiveLoop reads datagrams until Close.
func (t *Transport) receiveLoop() {
	buf := make([]byte, wire.MaxDatagramSize)
	for !t.closing.Load() {
		if err := t.conn.SetReadDeadline(time.Now().Add(t.cfg.PollTimeout)); err != nil && !t.closing.Load() {
			t.logger.Error("failed to set read deadline", "error", err)
		}

		n, from, err := t.conn.ReadFrom(buf)
		if err != nil {
			if t.closing.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			t.logger.Error("datagram read failed", "error", err)
			t.pause()
			continue
		}

		t.handleDatagram(slices.Clone(buf[:n]), from)
	}
}

// pause waits one poll interval or until Close, so a persistent socket
// error does not spin.
func (t *Transport) pause() {
	timer := time.NewTimer(t.cfg.PollTimeout)
	defer timer.Stop()
	select {
	case <-t.done:
	case <-timer.C:
	}
}

// sweepLoop runs sweep every SweepInterval until Close.
func (t *Transport) sweepLoop() {
	ticker := time.NewTicker(t.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.sweep(t.now())
		}
	}
}

// handleDatagram processes one inbound datagram.
func (t *Transport) handleDatagram(b []byte, from net.Addr) {
	frame, err := wire.DecodeFrame(b)
	if err != nil {
		t.logger.Warn("discarding malformed datagram", "from", from.String(), "error", err)
		return
	}

	switch frame.Kind {
	case wire.KindAck:
		t.acknowledge(frame.Seq)

	case wire.KindData:
		handler := t.currentHandler()
		if handler == nil {
			t.logger.Debug("no handler installed, ignoring data", "seq", frame.Seq)
			return
		}

		// The sender cannot know what we already have, so every copy is acked.
		t.write(wire.EncodeAck(frame.Seq), from, "ack", frame.Seq)

		if t.accept(from.String(), frame.Seq) {
			handler(frame.Payload, from)
		}
	}
}

// acknowledge drops the outstanding send for seq. Unknown or already
// removed sequence numbers are ignored.
func (t *Transport) acknowledge(seq uint64) {
	t.mu.Lock()
	_, ok := t.pending[seq]
	delete(t.pending, seq)
	t.mu.Unlock()

	if ok {
		t.logger.Debug("ack received", "seq", seq)
	}
}

// accept applies the ordering policy and reports whether the payload
// should be delivered.
func (t *Transport) accept(peer string, seq uint64) bool {
	t.peerMu.Lock()
	defer t.peerMu.Unlock()

	last := t.lastAccepted[peer]
	switch {
	case seq > last:
		t.lastAccepted[peer] = seq
		return true
	case seq == last:
		t.logger.Debug("dropping duplicate data", "peer", peer, "seq", seq)
	default:
		t.logger.Debug("dropping stale data", "peer", peer, "seq", seq, "last_accepted", last)
	}
	return false
}

// LastAccepted returns the highest sequence number delivered from peer.
func (t *Transport) LastAccepted(peer net.Addr) uint64 {
	t.peerMu.Lock()
	defer t.peerMu.Unlock()
	return t.lastAccepted[peer.String()]
}

type resend struct {
	seq     uint64
	frame   []byte
	dest    net.Addr
	attempt int
}

// sweep resends every outstanding send older than the timeout and drops
// those already retried MaxRetries times.
func (t *Transport) sweep(now time.Time) {
	var resends []resend
	var expired []*outstanding

	t.mu.Lock()
	for seq, rec := range t.pending {
		if now.Sub(rec.sentAt) < t.cfg.RetransmitTimeout {
			continue
		}
		if rec.retries >= t.cfg.MaxRetries {
			delete(t.pending, seq)
			expired = append(expired, rec)
			continue
		}
		rec.retries++
		rec.sentAt = now
		resends = append(resends, resend{seq: seq, frame: rec.frame, dest: rec.dest, attempt: rec.retries})
	}
	t.mu.Unlock()

	for _, r := range resends {
		t.logger.Debug("retransmitting", "seq", r.seq, "attempt", r.attempt, "dest", r.dest.String())
		t.write(r.frame, r.dest, "seq", r.seq)
		t.publish(event.NewRetransmitEvent(r.seq, r.dest.String(), r.attempt))
	}

	for _, rec := range expired {
		attempts := rec.retries + 1
		t.logger.Warn("delivery failed, peer may be gone",
			"error", errors.NewDeliveryError(rec.seq, attempts, rec.dest.String()))
		t.publish(event.NewDeliveryFailedEvent(rec.seq, rec.dest.String(), attempts))
	}
}
