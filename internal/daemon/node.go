// Package daemon wires the membership table, failure detector, UDP
// transport, dissemination buffer, telemetry recorder and introspection
// HTTP server into one runnable process, and owns their combined
// Start/Stop lifecycle. Grounded on the teacher's Config/New(cfg,
// deps...) constructor idiom (internal/app/executor/executor.go) applied
// to the collaborator wiring the spec's top-level entry point needs,
// since the teacher itself never fully assembles its own daemon.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/meshring/swim/internal/config"
	"github.com/meshring/swim/internal/core/detector"
	"github.com/meshring/swim/internal/core/scheduler"
	"github.com/meshring/swim/internal/core/table"
	"github.com/meshring/swim/internal/disseminate"
	"github.com/meshring/swim/internal/domain"
	"github.com/meshring/swim/internal/httpapi"
	"github.com/meshring/swim/internal/logging"
	"github.com/meshring/swim/internal/rng"
	"github.com/meshring/swim/internal/telemetry"
	"github.com/meshring/swim/internal/transport"
)

// Node is one running SWIM participant: a table, a detector, a UDP
// transport binding them to the network, and an HTTP introspection server.
type Node struct {
	cfg    config.Config
	logger *slog.Logger

	table     *table.Table
	detector  *detector.Detector
	transport *transport.UDP
	http      *http.Server
	buffer    *disseminate.Buffer
}

// New validates cfg, constructs the membership table (installing seeds as
// Alive(0) immediately, per the table's own constructor), and returns a
// Node ready for Run. It does not yet bind any socket.
func New(cfg config.Config) (*Node, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	local, err := netip.ParseAddrPort(cfg.Bind.Addr())
	if err != nil {
		return nil, fmt.Errorf("bind address %q: %w", cfg.Bind.Addr(), err)
	}

	logger := logging.New(cfg.Log.Level, cfg.RunID)
	seeds, err := cfg.Cluster.SeedNodes()
	if err != nil {
		return nil, err
	}

	recorder := telemetry.New()

	// buffer is shared by the table (as its Sink, fed every accepted
	// transition) and the transport (as the piggyback source drained onto
	// outgoing datagrams) — a single instance, not one per side. sizeFn
	// closes over tbl, assigned immediately below; it is only ever invoked
	// later, during Push/Drain, never during construction.
	var tbl *table.Table
	buffer := disseminate.New(3, func() int { return tbl.Length() })

	tbl = table.New(table.Config{
		Local:          local,
		SuspectTimeout: cfg.Probe.SuspectTimeout.Duration(),
		Scheduler:      scheduler.New(),
		Sink:           buffer,
		Recorder:       recorder,
		Logger:         logger,
	}, seeds)

	return &Node{cfg: cfg, logger: logger, table: tbl, buffer: buffer}, nil
}

// Run binds the UDP transport, starts the failure detector's self-arming
// period ticking, mounts the introspection HTTP server, and blocks until
// ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	recorder := telemetry.New()

	tr, err := transport.Listen(n.cfg.Bind.Addr(), n.buffer, n.table, n.logger)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	n.transport = tr

	det := detector.New(detector.Config{
		Local:                tr.Local(),
		PeriodTimeout:        n.cfg.Probe.PeriodTimeout.Duration(),
		PingTimeout:          n.cfg.Probe.PingTimeout.Duration(),
		PingRequestGroupSize: n.cfg.Probe.PingRequestGroupSize,
		Table:                n.table,
		Outbox:               tr,
		Scheduler:            scheduler.New(),
		RNG:                  rng.New(),
		Recorder:             recorder,
		Logger:               n.logger,
	})
	n.detector = det

	go tr.Serve(det.OnMessage)
	det.Run()

	httpSrv := httpapi.NewServer(n.table)
	n.http = &http.Server{Addr: fmt.Sprintf(":%d", httpAPIPort(n.cfg.Bind.Port)), Handler: httpSrv.Handler()}
	go func() {
		if err := n.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.logger.Warn("http server stopped", "error", err)
		}
	}()

	n.logger.Info("node started", "bind", n.cfg.Bind.Addr(), "local", tr.Local().String())

	<-ctx.Done()
	return n.Stop()
}

// Stop tears every component down in reverse order of construction. It is
// safe to call even if Run never reached the point of binding a socket.
func (n *Node) Stop() error {
	if n.http != nil {
		_ = n.http.Shutdown(context.Background())
	}
	if n.detector != nil {
		n.detector.Stop()
	}
	if n.transport != nil {
		_ = n.transport.Close()
	}
	n.table.Stop()
	return nil
}

// Members returns the current membership snapshot.
func (n *Node) Members() []domain.Member { return n.table.Members() }

// httpAPIPort derives the introspection HTTP port from the protocol bind
// port, offset by 1000 so both can run side by side on one host.
func httpAPIPort(bindPort int) int { return bindPort + 1000 }
