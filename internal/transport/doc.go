// Package transport turns a datagram socket into a reliable, per-peer
// ordered channel.
//
// Every payload handed to [Transport.SendReliable] is framed as
// DATA|seq|payload, written once, and tracked as an outstanding send
// until the peer answers ACK|seq. A background sweep resends anything
// older than the retransmission timeout, and gives up after the retry
// ceiling, publishing a [event.DeliveryFailedEvent].
//
// On the receive side every DATA frame is acknowledged, even duplicates.
// A payload reaches the handler only if its sequence number is higher than
// the last one accepted from that peer. Equal numbers are duplicates and
// lower ones are stale; both are dropped. Nothing is buffered, so a frame
// that arrives after a later one is lost for good.
//
// Sending never blocks on acknowledgment. The receive loop polls with a
// short read deadline and the sweep loop checks a done channel each tick,
// so [Transport.Close] returns promptly.
package transport
