package booking

import "fmt"

// State is a step of the booking transaction. States only move forward, one
// at a time, or to StateAborted.
type State int

const (
	StateNew State = iota
	StateAuthenticated
	StateTripSelected
	StateSeatsMatched
	StateSeatsReserved
	StateOTPTriggered
	StateOTPVerified
	StateDetailsCollected
	StateConfirmed
	StatePaymentHandedOff
	StateAborted
)

var stateNames = map[State]string{
	StateNew:              "NEW",
	StateAuthenticated:    "AUTHENTICATED",
	StateTripSelected:     "TRIP_SELECTED",
	StateSeatsMatched:     "SEATS_MATCHED",
	StateSeatsReserved:    "SEATS_RESERVED",
	StateOTPTriggered:     "OTP_TRIGGERED",
	StateOTPVerified:      "OTP_VERIFIED",
	StateDetailsCollected: "DETAILS_COLLECTED",
	StateConfirmed:        "CONFIRMED",
	StatePaymentHandedOff: "PAYMENT_HANDED_OFF",
	StateAborted:          "ABORTED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StatePaymentHandedOff || s == StateAborted
}

// IllegalTransitionError is returned when a step is attempted out of order.
type IllegalTransitionError struct {
	From, To State
}

func (e IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

// canTransition allows exactly the successor state, or abort from any
// non-terminal state.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateAborted {
		return true
	}
	return to == from+1 && to <= StatePaymentHandedOff
}
