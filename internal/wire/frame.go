// Package wire encodes the two layers of a datagram: the transport frame
// (DATA|seq|payload or ACK|seq) and the application message inside it
// (key: value lines, the first being message_type).
package wire

import (
	"bytes"
	"strconv"

	"github.com/Iron-Ham/pokebattle/internal/errors"
)

// MaxDatagramSize is the largest framed datagram either peer sends or reads.
const MaxDatagramSize = 1024

// FrameKind distinguishes data frames from acknowledgments.
type FrameKind string

const (
	KindData FrameKind = "DATA"
	KindAck  FrameKind = "ACK"
)

const frameSep = '|'

// Frame is one decoded datagram.
type Frame struct {
	Kind    FrameKind
	Seq     uint64
	Payload []byte // nil for ACK
}

// EncodeData frames payload as DATA|seq|payload. It fails with
// ErrPayloadTooLarge if the result would exceed MaxDatagramSize.
func EncodeData(seq uint64, payload []byte) ([]byte, error) {
	buf := make([]byte, 0, len(KindData)+22+len(payload))
	buf = append(buf, KindData...)
	buf = append(buf, frameSep)
	buf = strconv.AppendUint(buf, seq, 10)
	buf = append(buf, frameSep)
	buf = append(buf, payload...)
	if len(buf) > MaxDatagramSize {
		return nil, errors.Wrapf(errors.ErrPayloadTooLarge, "framed size %d exceeds %d", len(buf), MaxDatagramSize)
	}
	return buf, nil
}

// DataOverhead returns the framing bytes EncodeData adds for seq.
func DataOverhead(seq uint64) int {
	return len(KindData) + 2 + len(strconv.FormatUint(seq, 10))
}

// EncodeAck frames an acknowledgment for seq.
func EncodeAck(seq uint64) []byte {
	buf := make([]byte, 0, len(KindAck)+21)
	buf = append(buf, KindAck...)
	buf = append(buf, frameSep)
	return strconv.AppendUint(buf, seq, 10)
}

// DecodeFrame parses a datagram. The payload of a DATA frame may itself
// contain the separator.
func DecodeFrame(b []byte) (Frame, error) {
	kind, rest, ok := bytes.Cut(b, []byte{frameSep})
	if !ok {
		return Frame{}, errors.NewMalformedError(errors.ErrMalformedFrame, "missing separator").WithRaw(string(b))
	}

	switch FrameKind(kind) {
	case KindAck:
		seq, err := parseSeq(rest)
		if err != nil {
			return Frame{}, errors.NewMalformedError(errors.ErrMalformedFrame, "bad ack sequence").
				WithField("seq").
				WithRaw(string(b))
		}
		return Frame{Kind: KindAck, Seq: seq}, nil

	case KindData:
		seqBytes, payload, ok := bytes.Cut(rest, []byte{frameSep})
		if !ok {
			return Frame{}, errors.NewMalformedError(errors.ErrMalformedFrame, "data frame missing payload").WithRaw(string(b))
		}
		seq, err := parseSeq(seqBytes)
		if err != nil {
			return Frame{}, errors.NewMalformedError(errors.ErrMalformedFrame, "bad data sequence").
				WithField("seq").
				WithRaw(string(b))
		}
		return Frame{Kind: KindData, Seq: seq, Payload: bytes.Clone(payload)}, nil
	}

	return Frame{}, errors.NewMalformedError(errors.ErrMalformedFrame, "unknown frame kind").
		WithField("kind").
		WithRaw(string(b))
}

func parseSeq(b []byte) (uint64, error) {
	return strconv.ParseUint(string(bytes.TrimSpace(b)), 10, 64)
}
