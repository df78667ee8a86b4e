package enums

import "fmt"

// CheckoutState tracks a checkout attempt from the first read to its outcome.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateValidating CheckoutState = "validating"
	CheckoutStateCommitted  CheckoutState = "committed"
	CheckoutStateRejected   CheckoutState = "rejected"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateValidating,
	CheckoutStateCommitted,
	CheckoutStateRejected,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (c CheckoutState) IsTerminal() bool {
	return c == CheckoutStateCommitted || c == CheckoutStateRejected
}

// CanTransition reports whether moving from c to next is a legal step.
func (c CheckoutState) CanTransition(next CheckoutState) bool {
	switch c {
	case CheckoutStateIdle:
		return next == CheckoutStateValidating
	case CheckoutStateValidating:
		return next == CheckoutStateCommitted || next == CheckoutStateRejected
	default:
		return false
	}
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
