// Package wire encodes and decodes the probe messages the failure detector
// exchanges over the transport, plus whatever piggybacked membership events
// the dissemination buffer has queued for the same datagram (§6 "Codec
// (consumed)"). The core never touches this package directly — it operates
// purely on domain.Message values; wire sits between transport and core.
//
// Grounded on the teacher's own gossip/swim.go wire format, which is plain
// encoding/json over a Message{Type, SeqNo, From, Target, State} struct
// (json.Marshal/json.Unmarshal straight over the UDP payload, no protobuf,
// no custom binary framing). We keep that choice rather than reaching for a
// binary codec or protobuf: the teacher already demonstrates the idiomatic
// way this corpus solves wire encoding, and netip.AddrPort's built-in
// MarshalText/UnmarshalText make it a drop-in JSON field.
package wire

import (
	"encoding/json"

	"github.com/meshring/swim/internal/domain"
)

// maxFrameSize is a conservative path-MTU-safe UDP payload budget, mirroring
// the teacher's fixed 65536-byte read buffer but capped much lower since our
// payloads are a handful of fields plus a small piggyback batch, not
// arbitrary JSON blobs.
const maxFrameSize = 1400

// frame is the wire-level envelope: the probe message fields plus whatever
// piggybacked events the dissemination buffer drained for this datagram.
type frame struct {
	Kind   domain.MessageKind `json:"kind"`
	SeqNr  uint64             `json:"seq"`
	Target domain.Node        `json:"target"`
	From   domain.Node        `json:"from"`
	Events []domain.Event     `json:"events,omitempty"`
}

// Encode serializes msg and its piggybacked events into a single datagram
// payload. It returns domain.ErrFrameTooLarge rather than truncating if the
// encoded frame would exceed maxFrameSize.
func Encode(msg domain.Message, events []domain.Event) ([]byte, error) {
	b, err := json.Marshal(frame{
		Kind:   msg.Kind,
		SeqNr:  msg.SeqNr,
		Target: msg.Target,
		From:   msg.From,
		Events: events,
	})
	if err != nil {
		return nil, err
	}
	if len(b) > maxFrameSize {
		return nil, domain.ErrFrameTooLarge
	}
	return b, nil
}

// Decode parses a datagram payload into its probe message and piggybacked
// events. A malformed payload yields domain.ErrDecodeFailed; per §7 the
// core never sees a decode failure, the transport discards it first.
func Decode(b []byte) (domain.Message, []domain.Event, error) {
	var f frame
	if err := json.Unmarshal(b, &f); err != nil {
		return domain.Message{}, nil, domain.ErrDecodeFailed
	}
	msg := domain.Message{Kind: f.Kind, SeqNr: f.SeqNr, Target: f.Target, From: f.From}
	return msg, f.Events, nil
}
