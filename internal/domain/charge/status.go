package charge

import "fmt"

// Status defines the charge lifecycle states
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus converts a raw string into a Status
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusPaid, StatusFailed, StatusExpired, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown charge status: %q", s)
}

// allowedTransitions enumerates every legal status change. A status absent
// from the map (PAID, CANCELLED) is terminal.
var allowedTransitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed, StatusExpired, StatusCancelled},
	StatusFailed:  {StatusPending, StatusCancelled},
	StatusExpired: {StatusCancelled},
}

// InvalidTransitionError indicates an illegal or terminal-state status change
type InvalidTransitionError struct {
	Current   Status
	Requested Status
	Terminal  bool
}

func (e InvalidTransitionError) Error() string {
	if e.Terminal {
		return fmt.Sprintf("cannot change the status of a %s charge (requested %s)", e.Current, e.Requested)
	}
	return fmt.Sprintf("status transition from %s to %s is not allowed", e.Current, e.Requested)
}

// IsTerminal reports whether no transition may leave the given status
func IsTerminal(s Status) bool {
	return len(allowedTransitions[s]) == 0
}

// ValidateTransition checks a requested status change against the transition
// table. A nil requested status is a no-op: an update may carry no status
// change. This check runs before any other field of an update is applied.
func ValidateTransition(current Status, requested *Status) error {
	if requested == nil {
		return nil
	}

	if IsTerminal(current) {
		return InvalidTransitionError{Current: current, Requested: *requested, Terminal: true}
	}

	for _, next := range allowedTransitions[current] {
		if next == *requested {
			return nil
		}
	}

	return InvalidTransitionError{Current: current, Requested: *requested}
}
