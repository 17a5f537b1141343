// Package domain contains the pure SWIM membership types with ZERO
// infrastructure imports. This is the innermost ring: table and detector
// depend on it; transport, httpapi, config and friends implement or consume
// the interfaces it declares.
package domain

import "net/netip"

// Node identifies a protocol participant by its network endpoint. Equality
// of nodes is equality of endpoints, and netip.AddrPort is itself
// comparable, so Node works directly as a map key.
type Node = netip.AddrPort

// StatusKind is one of the three SWIM membership states.
type StatusKind uint8

const (
	Alive StatusKind = iota
	Suspect
	Dead
)

func (k StatusKind) String() string {
	switch k {
	case Alive:
		return "alive"
	case Suspect:
		return "suspect"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// Status pairs a membership state with the incarnation number that produced
// it. It is used both for the table's stored view of a node and for an
// incoming claim about a node — the two share a shape, per the SWIM design.
type Status struct {
	Kind        StatusKind
	Incarnation uint64
}

func (s Status) String() string {
	return s.Kind.String()
}

// Event is a single accepted membership transition, handed to the
// dissemination sink for piggybacking onto outbound probe traffic.
type Event struct {
	Node   Node
	Status Status
}

// Member is a snapshot of one table entry, as returned by Members().
type Member struct {
	Node        Node
	Incarnation uint64
}
