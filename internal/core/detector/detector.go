// Package detector implements the SWIM failure detector (FD, §4.2): the
// probing protocol driving direct pings, indirect ping-requests, and
// suspicion escalation against the membership table.
//
// Like table.Table, Detector is a single-threaded actor (§5): a single
// goroutine drains a closure mailbox in FIFO order, so probe state
// (outstanding ping, pending indirect requests, round-robin cursor) is
// touched by exactly one goroutine. Grounded on the reference detector's
// single-goroutine select loop (ticker + timeout timer + inbox), adapted
// from a three-way select to a uniform closure mailbox so period ticks,
// ping timeouts and inbound messages are all just posts serialized through
// the same queue — simpler to test deterministically via a Manual
// scheduler, since nothing but the mailbox decides delivery order.
package detector

import (
	"log/slog"
	"time"

	"github.com/meshring/swim/internal/core/scheduler"
	"github.com/meshring/swim/internal/domain"
)

const mailboxSize = 256

// Config controls a Detector's wiring. Table, Outbox, Scheduler, RNG and
// Local are required; a nil Recorder falls back to a no-op, a nil Logger to
// slog.Default() and a nil Clock to the real wall clock.
type Config struct {
	Local                 domain.Node
	PeriodTimeout         time.Duration
	PingTimeout           time.Duration
	PingRequestGroupSize  int
	Table                 domain.MembershipView
	Outbox                domain.Outbox
	Scheduler             domain.Scheduler
	Clock                 domain.Clock
	RNG                   domain.RNG
	Recorder              domain.Recorder
	Logger                *slog.Logger
}

// outstandingPing tracks the single in-flight direct probe (§8 invariant 6:
// "at most one outstanding direct ping is tracked by FD").
type outstandingPing struct {
	active      bool
	target      domain.Node
	incarnation uint64
	seqNr       uint64
	sentAt      time.Time
}

// indirectKey identifies a relayed ping this node forwarded on behalf of
// another prober, keyed by (target, seqNr) per §4.2's pendingIndirect map.
type indirectKey struct {
	target domain.Node
	seqNr  uint64
}

// Detector is the failure-detector actor.
type Detector struct {
	cfg Config

	seqNr    uint64
	rr       roundRobin
	ping     outstandingPing
	pendingI map[indirectKey]domain.Node

	inbox chan func()
	done  chan struct{}
}

// New creates a Detector and starts its actor goroutine. It does not begin
// ticking on its own; call Run to drive the periodic probe loop, or call
// Tick directly (e.g. from tests) to control timing precisely.
func New(cfg Config) *Detector {
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = scheduler.NewClock()
	}
	if cfg.PingTimeout >= cfg.PeriodTimeout {
		cfg.Logger.Warn("pingTimeout >= periodTimeout: indirect probing is effectively disabled",
			"ping_timeout", cfg.PingTimeout, "period_timeout", cfg.PeriodTimeout)
	}

	d := &Detector{
		cfg:      cfg,
		pendingI: make(map[indirectKey]domain.Node),
		inbox:    make(chan func(), mailboxSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Stop terminates the actor goroutine. Scheduled deliveries (ping timeouts,
// the next self-armed tick) that arrive afterward are safely discarded.
func (d *Detector) Stop() {
	close(d.done)
}

func (d *Detector) run() {
	for {
		select {
		case fn := <-d.inbox:
			fn()
		case <-d.done:
			return
		}
	}
}

func (d *Detector) post(fn func()) {
	select {
	case d.inbox <- fn:
	case <-d.done:
	}
}

// Run self-arms the recurring period tick, acting as its own driver: it
// assigns the monotonically increasing seqNr described in §4.2 and calls
// Tick with it once every PeriodTimeout, forever until Stop.
func (d *Detector) Run() {
	d.scheduleNextTick()
}

func (d *Detector) scheduleNextTick() {
	d.cfg.Scheduler.After(d.cfg.PeriodTimeout, func() {
		select {
		case <-d.done:
			return
		default:
		}
		d.post(func() {
			d.seqNr++
			d.tick(d.seqNr)
		})
		d.scheduleNextTick()
	})
}

// Tick posts a single period event carrying seqNr. Exposed directly so
// tests can drive periods without waiting on Run's self-scheduling.
func (d *Detector) Tick(seqNr uint64) {
	d.post(func() { d.tick(seqNr) })
}

// OnMessage posts an inbound wire message from source for handling.
func (d *Detector) OnMessage(source domain.Node, msg domain.Message) {
	d.post(func() { d.handle(source, msg) })
}

// tick runs on the actor goroutine and implements §4.2's per-period steps.
func (d *Detector) tick(seqNr uint64) {
	// Step 1: escalate last period's unresolved direct ping to Suspect
	// before starting the new one.
	if d.ping.active {
		d.cfg.Table.Update(d.ping.target, domain.Status{Kind: domain.Suspect, Incarnation: d.ping.incarnation})
		d.cfg.Recorder.ObserveProbe("timeout")
		d.ping = outstandingPing{}
	}

	members := d.cfg.Table.Members()
	target, ok := d.rr.next(members, d.cfg.Local, d.cfg.RNG)
	if !ok {
		return // empty cluster: nothing further this period.
	}

	d.ping = outstandingPing{
		active:      true,
		target:      target.Node,
		incarnation: target.Incarnation,
		seqNr:       seqNr,
		sentAt:      d.cfg.Clock.Now(),
	}
	d.cfg.Outbox.Send(target.Node, domain.Message{Kind: domain.Ping, SeqNr: seqNr, From: d.cfg.Local})

	d.cfg.Scheduler.After(d.cfg.PingTimeout, func() {
		d.post(func() { d.onPingTimeout(seqNr, target.Node) })
	})
}

// onPingTimeout fires PingTimeout after a direct Ping. If the ping has
// since been acked (or superseded), this is a no-op self-reconciliation.
func (d *Detector) onPingTimeout(seqNr uint64, target domain.Node) {
	if !d.ping.active || d.ping.target != target || d.ping.seqNr != seqNr {
		return
	}

	members := d.cfg.Table.Members()
	helpers := sampleHelpers(members, target, d.cfg.Local, d.cfg.PingRequestGroupSize, d.cfg.RNG)
	for _, h := range helpers {
		d.cfg.Outbox.Send(h, domain.Message{Kind: domain.PingReq, SeqNr: seqNr, Target: target, From: d.cfg.Local})
	}
}

// handle dispatches one inbound message per §4.2's message handlers.
func (d *Detector) handle(source domain.Node, msg domain.Message) {
	switch msg.Kind {
	case domain.Ping:
		d.cfg.Outbox.Send(source, domain.Message{Kind: domain.Ack, SeqNr: msg.SeqNr, From: d.cfg.Local})

	case domain.PingReq:
		d.pendingI[indirectKey{target: msg.Target, seqNr: msg.SeqNr}] = source
		d.cfg.Outbox.Send(msg.Target, domain.Message{Kind: domain.Ping, SeqNr: msg.SeqNr, From: d.cfg.Local})

	case domain.Ack:
		d.handleAck(source, msg)
	}
}

func (d *Detector) handleAck(from domain.Node, msg domain.Message) {
	key := indirectKey{target: from, seqNr: msg.SeqNr}
	_, isIndirect := d.pendingI[key]

	if d.ping.active && d.ping.target == from && d.ping.seqNr == msg.SeqNr && !isIndirect {
		d.cfg.Table.Update(from, domain.Status{Kind: domain.Alive, Incarnation: d.ping.incarnation})
		d.cfg.Recorder.ObserveProbe("ack")
		d.cfg.Recorder.ObserveAckLatency(d.cfg.Clock.Now().Sub(d.ping.sentAt))
		d.ping = outstandingPing{}
		return
	}

	if origin, ok := d.pendingI[key]; ok {
		d.cfg.Outbox.Send(origin, domain.Message{Kind: domain.Ack, SeqNr: msg.SeqNr, From: from})
		delete(d.pendingI, key)
		return
	}

	// Unknown-node ack: silently dropped per §7.
}

type noopRecorder struct{}

func (noopRecorder) ObserveTransition(domain.Node, domain.Status) {}
func (noopRecorder) SetMemberCount(domain.StatusKind, int)        {}
func (noopRecorder) ObserveProbe(string)                          {}
func (noopRecorder) ObserveAckLatency(time.Duration)              {}
