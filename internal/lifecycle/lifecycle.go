package lifecycle

import (
	"fmt"

	"github.com/Asclepia-Market/Procure/internal/store"
)

// InvalidTransitionError reports a lifecycle rule violation. The RFQ state is
// left untouched when it is returned.
type InvalidTransitionError struct {
	From   store.RFQStatus
	To     store.RFQStatus
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// transitions is the legal edge set of the RFQ state machine.
var transitions = map[store.RFQStatus][]store.RFQStatus{
	store.StatusDraft:             {store.StatusPublished},
	store.StatusPublished:         {store.StatusAwaitingResponses},
	store.StatusAwaitingResponses: {store.StatusUnderReview},
	store.StatusUnderReview:       {store.StatusAwarded, store.StatusRejectedAll},
	store.StatusAwarded:           {store.StatusClosed},
	// closed and rejected_all are terminal
}

// CanTransition reports whether the edge from -> to exists.
func CanTransition(from, to store.RFQStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are legal from s.
func Terminal(s store.RFQStatus) bool {
	return len(transitions[s]) == 0
}

// Guards carries the aggregate facts a transition may depend on.
type Guards struct {
	LineItemCount     int
	EnvelopeCount     int
	RespondedEnvelope bool
	QuotationCount    int
}

// Check validates the edge and its guard conditions without mutating
// anything. A nil return means the transition is legal.
func Check(from, to store.RFQStatus, g Guards) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}

	switch to {
	case store.StatusPublished:
		if g.LineItemCount == 0 {
			return &InvalidTransitionError{From: from, To: to, Reason: "RFQ has no line items"}
		}
	case store.StatusAwaitingResponses:
		if g.EnvelopeCount == 0 {
			return &InvalidTransitionError{From: from, To: to, Reason: "no vendor envelopes sent"}
		}
	case store.StatusUnderReview:
		if !g.RespondedEnvelope {
			return &InvalidTransitionError{From: from, To: to, Reason: "no vendor has responded"}
		}
		if g.QuotationCount == 0 {
			return &InvalidTransitionError{From: from, To: to, Reason: "no quotation received"}
		}
	}
	return nil
}
