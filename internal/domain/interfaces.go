package domain

import "time"

// ─── Boundary Interfaces ────────────────────────────────────────────────────
// These interfaces define the boundary between the core (table, detector)
// and everything around it. Infrastructure implements them; the core only
// ever depends on them, never on a concrete infrastructure type.

// Sink is the dissemination buffer's write side, as consumed by the
// membership table. It is bounded and lossy by design (§6): the table never
// observes a dropped push.
type Sink interface {
	Push(Event)
}

// Recorder is the telemetry boundary. Implementations report protocol
// events to whatever metrics backend is wired in; a nil-safe no-op
// implementation is used when telemetry isn't configured.
type Recorder interface {
	ObserveTransition(node Node, status Status)
	SetMemberCount(kind StatusKind, n int)
	ObserveProbe(result string)
	ObserveAckLatency(d time.Duration)
}

// Scheduler is the single timer primitive both the table (suspect expiry)
// and the detector (ping timeout, period tick) need: deliver a callback
// once, after a duration, without the caller being able to cancel it.
// Implementations MUST guarantee monotonic delay and MUST NOT drop a
// scheduled callback under load.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Clock abstracts wall-clock reads so tests can inject a virtual one.
type Clock interface {
	Now() time.Time
}

// RNG abstracts randomness for round-robin shuffling and indirect-helper
// selection, so protocol tests can run with a seeded, deterministic source.
type RNG interface {
	Shuffle(n int, swap func(i, j int))
	Intn(n int) int
}

// Outbox is the transport's send side, as consumed by the detector. Sends
// are fire-and-forget; a send failure is logged by the implementation and
// never surfaces to the detector (§7).
type Outbox interface {
	Send(dest Node, msg Message)
}

// MembershipView is the narrow slice of the membership table the detector
// depends on: it can read members and local identity, and post status
// claims, but cannot iterate raw table internals.
type MembershipView interface {
	Members() []Member
	Update(node Node, claim Status)
	Local() (Node, uint64)
}
