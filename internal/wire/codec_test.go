package wire

import (
	"net/netip"
	"testing"

	"github.com/meshring/swim/internal/domain"
)

func addr(t *testing.T, s string) domain.Node {
	t.Helper()
	n, err := netip.ParseAddrPort(s)
	if err != nil {
		t.Fatalf("ParseAddrPort(%q): %v", s, err)
	}
	return n
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	from := addr(t, "10.0.0.1:7946")
	target := addr(t, "10.0.0.2:7946")
	events := []domain.Event{
		{Node: addr(t, "10.0.0.3:7946"), Status: domain.Status{Kind: domain.Suspect, Incarnation: 4}},
		{Node: addr(t, "10.0.0.4:7946"), Status: domain.Status{Kind: domain.Dead, Incarnation: 1}},
	}

	msg := domain.Message{Kind: domain.PingReq, SeqNr: 7, Target: target, From: from}

	b, err := Encode(msg, events)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, gotEvents, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != msg {
		t.Fatalf("Decode() message = %+v, want %+v", got, msg)
	}
	if len(gotEvents) != len(events) {
		t.Fatalf("Decode() events = %+v, want %+v", gotEvents, events)
	}
	for i := range events {
		if gotEvents[i] != events[i] {
			t.Fatalf("event[%d] = %+v, want %+v", i, gotEvents[i], events[i])
		}
	}
}

func TestEncodeWithoutEventsOmitsField(t *testing.T) {
	msg := domain.Message{Kind: domain.Ping, SeqNr: 1, From: addr(t, "10.0.0.1:7946")}

	b, err := Encode(msg, nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	_, events, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("events = %+v, want none", events)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	_, _, err := Decode([]byte("{not json"))
	if err != domain.ErrDecodeFailed {
		t.Fatalf("err = %v, want domain.ErrDecodeFailed", err)
	}
}

func TestEncodeOversizedFrameIsRejected(t *testing.T) {
	events := make([]domain.Event, 0, 200)
	for i := 0; i < 200; i++ {
		events = append(events, domain.Event{
			Node:   addr(t, "10.0.0.1:7946"),
			Status: domain.Status{Kind: domain.Alive, Incarnation: uint64(i)},
		})
	}
	msg := domain.Message{Kind: domain.Ack, SeqNr: 1, From: addr(t, "10.0.0.1:7946")}

	_, err := Encode(msg, events)
	if err != domain.ErrFrameTooLarge {
		t.Fatalf("err = %v, want domain.ErrFrameTooLarge", err)
	}
}
