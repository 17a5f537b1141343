// Package transport provides the UDP datagram channel the failure detector
// sends probes over and receives them through (§6 "Transport (consumed)").
// Grounded on the teacher's internal/infra/gossip/swim.go receiveLoop and
// sendMessage: a *net.UDPConn, a read-deadline-based cancellable receive
// loop running on its own goroutine, and a best-effort WriteToUDP send.
package transport

import (
	"log/slog"
	"net"
	"net/netip"
	"time"

	"github.com/meshring/swim/internal/disseminate"
	"github.com/meshring/swim/internal/domain"
	"github.com/meshring/swim/internal/wire"
)

// readDeadline bounds each ReadFromUDP call so Close can be
// noticed promptly, mirroring the teacher's 1-second SetReadDeadline poll.
const readDeadline = time.Second

const maxDatagramSize = 65536

// Handler is invoked once per successfully decoded inbound message.
type Handler func(source domain.Node, msg domain.Message)

// UDP is a domain.Outbox backed by a real UDP socket, with piggybacked
// dissemination events attached to every outgoing frame and applied from
// every incoming one.
type UDP struct {
	conn   *net.UDPConn
	local  domain.Node
	buffer *disseminate.Buffer
	table  domain.MembershipView
	logger *slog.Logger

	closed chan struct{}
}

// Listen binds a UDP socket at bindAddr and returns a ready-to-use
// transport. buffer supplies piggybacked events to attach to outgoing
// frames; table receives piggybacked events found on incoming frames.
func Listen(bindAddr string, buffer *disseminate.Buffer, table domain.MembershipView, logger *slog.Logger) (*UDP, error) {
	addr, err := net.ResolveUDPAddr("udp4", bindAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	local, ok := netip.AddrFromSlice(conn.LocalAddr().(*net.UDPAddr).IP.To4())
	if !ok {
		local = netip.IPv4Unspecified()
	}

	return &UDP{
		conn:   conn,
		local:  netip.AddrPortFrom(local, uint16(conn.LocalAddr().(*net.UDPAddr).Port)),
		buffer: buffer,
		table:  table,
		logger: logger,
		closed: make(chan struct{}),
	}, nil
}

// Local returns the bound local endpoint.
func (u *UDP) Local() domain.Node { return u.local }

// Send implements domain.Outbox: it encodes msg with whatever events the
// dissemination buffer currently has queued and fires the datagram. Send
// failures are logged and otherwise swallowed (§7: "surfaced as a log
// event; does not alter state. The next period will re-probe naturally").
func (u *UDP) Send(dest domain.Node, msg domain.Message) {
	var events []domain.Event
	if u.buffer != nil {
		events = u.buffer.Drain(8)
	}

	b, err := wire.Encode(msg, events)
	if err != nil {
		u.logger.Warn("encode failed", "error", err, "dest", dest)
		return
	}

	udpAddr := net.UDPAddrFromAddrPort(dest)
	if _, err := u.conn.WriteToUDP(b, udpAddr); err != nil {
		u.logger.Warn("send failed", "error", err, "dest", dest)
	}
}

// Serve runs the receive loop until Close is called, invoking handle for
// each decoded inbound message. It blocks; callers run it in its own
// goroutine, mirroring the teacher's "go s.receiveLoop(ctx)".
func (u *UDP) Serve(handle Handler) {
	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-u.closed:
			return
		default:
		}

		u.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, srcAddr, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			select {
			case <-u.closed:
				return
			default:
				u.logger.Warn("read failed", "error", err)
				continue
			}
		}

		msg, events, err := wire.Decode(buf[:n])
		if err != nil {
			continue // §7 decode failure: discarded before reaching the core.
		}

		if u.table != nil {
			for _, e := range events {
				u.table.Update(e.Node, e.Status)
			}
		}

		source := msg.From
		if !source.IsValid() {
			ip, ok := netip.AddrFromSlice(srcAddr.IP.To4())
			if ok {
				source = netip.AddrPortFrom(ip, uint16(srcAddr.Port))
			}
		}
		handle(source, msg)
	}
}

// Close terminates the socket and unblocks Serve.
func (u *UDP) Close() error {
	close(u.closed)
	return u.conn.Close()
}
