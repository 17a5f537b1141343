// Package table implements the SWIM membership table (MT, §4.1): the
// process-local authoritative view of cluster membership, reconciled under
// the SWIM incarnation rules and published to a dissemination sink.
//
// Table runs as a single-threaded actor (§5): every public method posts a
// closure onto an internal mailbox, and a single goroutine drains it in
// FIFO order, so state is never touched by more than one goroutine at a
// time and no locks are needed inside the actor. Grounded on the
// single-goroutine event-loop shape of the reference SWIM detector
// (inbox channel + select), adapted here to a plain func-closure mailbox
// since the table has no ticker of its own — only posted work and
// self-scheduled suspect-timer callbacks.
package table

import (
	"log/slog"
	"time"

	"github.com/meshring/swim/internal/domain"
)

const mailboxSize = 256

// Config controls a Table's wiring. Scheduler, Sink and Local are required;
// a zero Recorder falls back to a no-op and a nil Logger to slog.Default().
type Config struct {
	Local          domain.Node
	SuspectTimeout time.Duration
	Scheduler      domain.Scheduler
	Sink           domain.Sink
	Recorder       domain.Recorder
	Logger         *slog.Logger
}

// Table is the membership table actor.
type Table struct {
	cfg Config

	localIncarnation uint64
	members          map[domain.Node]domain.Status

	inbox chan func()
	done  chan struct{}
}

// New creates a Table for the given local node and starts its actor
// goroutine. seeds are installed as Alive(0), mirroring the reference
// implementation's peers-known-at-construction idiom — there is no
// dynamic join/leave handshake (§9 open question 3).
func New(cfg Config, seeds []domain.Node) *Table {
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	t := &Table{
		cfg:     cfg,
		members: make(map[domain.Node]domain.Status),
		inbox:   make(chan func(), mailboxSize),
		done:    make(chan struct{}),
	}
	go t.run()

	for _, n := range seeds {
		t.Update(n, domain.Status{Kind: domain.Alive, Incarnation: 0})
	}
	return t
}

// Stop terminates the actor goroutine. In-flight scheduled deliveries (e.g.
// a suspect timer) that arrive afterward are safely discarded by post.
func (t *Table) Stop() {
	close(t.done)
}

func (t *Table) run() {
	for {
		select {
		case fn := <-t.inbox:
			fn()
		case <-t.done:
			return
		}
	}
}

// post enqueues fn for serialized execution on the actor goroutine. It
// never blocks past the table being stopped: a post after Stop is dropped
// rather than delivered, satisfying §5's "safely discarded" shutdown rule.
func (t *Table) post(fn func()) {
	select {
	case t.inbox <- fn:
	case <-t.done:
	}
}

// Update posts a status claim about node. It is fire-and-forget: the
// ordering guarantee in §5 ("an update that returns before a subsequent
// members() is visible to that members()") falls out of mailbox FIFO order
// alone, since Update and Members from the same caller are enqueued in
// program order and processed in that order by the single actor goroutine.
func (t *Table) Update(node domain.Node, claim domain.Status) {
	t.post(func() { t.apply(node, claim) })
}

// Members returns a snapshot of the current table (excluding the local
// node, which Table never stores about itself).
func (t *Table) Members() []domain.Member {
	reply := make(chan []domain.Member, 1)
	t.post(func() { reply <- t.snapshot() })
	select {
	case m := <-reply:
		return m
	case <-t.done:
		return nil
	}
}

// Length returns the number of entries in the table, including any Dead
// tombstones (§3 open-question decision: Dead entries are retained, and
// Members returns them too, so the detector's roundRobin still probes them).
func (t *Table) Length() int {
	reply := make(chan int, 1)
	t.post(func() { reply <- len(t.members) })
	select {
	case n := <-reply:
		return n
	case <-t.done:
		return 0
	}
}

// Local returns the local node's identity and current incarnation.
func (t *Table) Local() (domain.Node, uint64) {
	reply := make(chan uint64, 1)
	t.post(func() { reply <- t.localIncarnation })
	select {
	case inc := <-reply:
		return t.cfg.Local, inc
	case <-t.done:
		return t.cfg.Local, 0
	}
}

// apply runs on the actor goroutine. It implements both the self-refutation
// path and the general reconciliation path (§4.1).
func (t *Table) apply(node domain.Node, claim domain.Status) {
	if node == t.cfg.Local {
		t.refute(claim)
		return
	}

	var current *domain.Status
	if s, ok := t.members[node]; ok {
		current = &s
	}

	next, accept := reconcile(current, claim)
	if !accept {
		return
	}

	t.members[node] = next
	t.cfg.Recorder.ObserveTransition(node, next)
	t.cfg.Sink.Push(domain.Event{Node: node, Status: next})
	t.recordCounts()

	if next.Kind == domain.Suspect {
		t.armSuspectTimer(node, next.Incarnation)
	}
}

// refute handles a claim against the local node: Suspect/Dead claims bump
// the local incarnation and announce Alive; Alive claims about self are
// ignored (the local node is already considered alive by definition).
func (t *Table) refute(claim domain.Status) {
	if claim.Kind == domain.Alive {
		return
	}
	if claim.Incarnation >= t.localIncarnation {
		t.localIncarnation = claim.Incarnation + 1
	} else {
		t.localIncarnation++
	}

	self := domain.Status{Kind: domain.Alive, Incarnation: t.localIncarnation}
	t.cfg.Logger.Info("refuting claim against self",
		"claimed_kind", claim.Kind.String(),
		"claimed_incarnation", claim.Incarnation,
		"new_incarnation", t.localIncarnation)
	t.cfg.Recorder.ObserveTransition(t.cfg.Local, self)
	t.cfg.Sink.Push(domain.Event{Node: t.cfg.Local, Status: self})
}

// armSuspectTimer schedules the Dead(i) self-call §4.1 describes. No
// cancellation bookkeeping is needed: if the status has moved on by the
// time this fires, apply's call to reconcile will simply drop it.
func (t *Table) armSuspectTimer(node domain.Node, incarnation uint64) {
	t.cfg.Scheduler.After(t.cfg.SuspectTimeout, func() {
		t.Update(node, domain.Status{Kind: domain.Dead, Incarnation: incarnation})
	})
}

func (t *Table) snapshot() []domain.Member {
	out := make([]domain.Member, 0, len(t.members))
	for n, s := range t.members {
		out = append(out, domain.Member{Node: n, Incarnation: s.Incarnation})
	}
	return out
}

func (t *Table) recordCounts() {
	var alive, suspect, dead int
	for _, s := range t.members {
		switch s.Kind {
		case domain.Alive:
			alive++
		case domain.Suspect:
			suspect++
		case domain.Dead:
			dead++
		}
	}
	t.cfg.Recorder.SetMemberCount(domain.Alive, alive)
	t.cfg.Recorder.SetMemberCount(domain.Suspect, suspect)
	t.cfg.Recorder.SetMemberCount(domain.Dead, dead)
}

type noopRecorder struct{}

func (noopRecorder) ObserveTransition(domain.Node, domain.Status) {}
func (noopRecorder) SetMemberCount(domain.StatusKind, int)        {}
func (noopRecorder) ObserveProbe(string)                          {}
func (noopRecorder) ObserveAckLatency(time.Duration)              {}
