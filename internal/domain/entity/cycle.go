package entity

import (
	"fmt"
	"time"
)

// CycleKind names the enumerator that drives a fetch cycle.
type CycleKind string

const (
	CycleCollection CycleKind = "collection"
	CycleWallet     CycleKind = "wallet"
)

// OutcomeKind tags one result of a fetch cycle.
type OutcomeKind string

const (
	OutcomeCycleStarted      OutcomeKind = "CycleStarted"
	OutcomeBatchAppended     OutcomeKind = "BatchAppended"
	OutcomeBatchDropped      OutcomeKind = "BatchDropped"
	OutcomeTokenPlaceholder  OutcomeKind = "TokenPlaceholder"
	OutcomeEnumerationFailed OutcomeKind = "EnumerationFailed"
	OutcomeCycleCompleted    OutcomeKind = "CycleCompleted"
	OutcomeCycleSuperseded   OutcomeKind = "CycleSuperseded"
)

var validOutcomeKinds = map[OutcomeKind]bool{
	OutcomeCycleStarted:      true,
	OutcomeBatchAppended:     true,
	OutcomeBatchDropped:      true,
	OutcomeTokenPlaceholder:  true,
	OutcomeEnumerationFailed: true,
	OutcomeCycleCompleted:    true,
	OutcomeCycleSuperseded:   true,
}

// IsValid returns true if the OutcomeKind is a known kind.
func (k OutcomeKind) IsValid() bool {
	return validOutcomeKinds[k]
}

// Fatal reports whether the outcome ends the cycle with an error.
func (k OutcomeKind) Fatal() bool {
	return k == OutcomeEnumerationFailed
}

func (k OutcomeKind) String() string {
	return string(k)
}

// CycleEvent is one tagged outcome published while a fetch cycle runs.
type CycleEvent struct {
	Generation uint64      `json:"generation"`
	Cycle      CycleKind   `json:"cycle"`
	Kind       OutcomeKind `json:"kind"`
	// Batch is the zero-based batch index, -1 for cycle-level outcomes.
	Batch    int       `json:"batch"`
	TokenIDs []TokenID `json:"tokenIds,omitempty"`
	Progress float64   `json:"progress"`
	Err      string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// NewCycleEvent creates a CycleEvent for a cycle-level outcome.
func NewCycleEvent(generation uint64, cycle CycleKind, kind OutcomeKind, err error) (*CycleEvent, error) {
	ev := &CycleEvent{
		Generation: generation,
		Cycle:      cycle,
		Kind:       kind,
		Batch:      -1,
		At:         time.Now().UTC(),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func (e *CycleEvent) validate() error {
	if !e.Kind.IsValid() {
		return fmt.Errorf("invalid outcome kind %q", e.Kind)
	}
	if e.Generation == 0 {
		return fmt.Errorf("generation must be positive")
	}
	if e.Progress < 0 || e.Progress > 100 {
		return fmt.Errorf("progress must be within [0,100], got %v", e.Progress)
	}
	return nil
}

func (e CycleEvent) String() string {
	if e.Batch >= 0 {
		return fmt.Sprintf("%s gen=%d batch=%d progress=%.2f", e.Kind, e.Generation, e.Batch, e.Progress)
	}
	return fmt.Sprintf("%s gen=%d", e.Kind, e.Generation)
}
