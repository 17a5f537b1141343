package table

import "github.com/meshring/swim/internal/domain"

// reconcile applies the SWIM status-claim reconciliation rules (§4.1) to a
// single node: given its current status (nil if absent) and an incoming
// claim, it returns the resulting status and whether the claim was accepted.
// It has no side effects — event emission and timer arming happen in the
// caller, once accept is known — which keeps the one part of this system
// with the most edge cases trivially table-testable.
func reconcile(current *domain.Status, claim domain.Status) (next domain.Status, accept bool) {
	if current == nil {
		switch claim.Kind {
		case domain.Alive, domain.Suspect:
			return claim, true
		default: // Dead: nothing to confirm
			return domain.Status{}, false
		}
	}

	cur := *current
	switch cur.Kind {
	case domain.Alive:
		switch claim.Kind {
		case domain.Alive:
			if claim.Incarnation > cur.Incarnation {
				return claim, true
			}
		case domain.Suspect, domain.Dead:
			if claim.Incarnation >= cur.Incarnation {
				return claim, true
			}
		}

	case domain.Suspect:
		switch claim.Kind {
		case domain.Alive:
			if claim.Incarnation > cur.Incarnation {
				return claim, true
			}
		case domain.Suspect:
			if claim.Incarnation > cur.Incarnation {
				return claim, true
			}
		case domain.Dead:
			if claim.Incarnation >= cur.Incarnation {
				return claim, true
			}
		}

	case domain.Dead:
		if claim.Kind == domain.Dead && claim.Incarnation > cur.Incarnation {
			return claim, true
		}
	}

	return domain.Status{}, false
}
