package orchestrator

import (
	"fmt"

	"github.com/Rana718/mfgseed/internal/schema"
)

type Phase int

const (
	Starting Phase = iota
	Connected
	SchemaReady
	PopulatingMaster
	PopulatingOperations
	PopulatingDocuments
	ResolvingCycles
	Summarizing
	Done
	Failed
)

var phaseNames = map[Phase]string{
	Starting:             "Starting",
	Connected:            "Connected",
	SchemaReady:          "SchemaReady",
	PopulatingMaster:     "PopulatingMaster",
	PopulatingOperations: "PopulatingOperations",
	PopulatingDocuments:  "PopulatingDocuments",
	ResolvingCycles:      "ResolvingCycles",
	Summarizing:          "Summarizing",
	Done:                 "Done",
	Failed:               "Failed",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

func populating(s schema.Store) Phase {
	switch s {
	case schema.Master:
		return PopulatingMaster
	case schema.Operations:
		return PopulatingOperations
	}
	return PopulatingDocuments
}

// RunError is the diagnostic of a failed run: where it stopped and why.
type RunError struct {
	Phase Phase
	Store string
	Err   error
}

func (e *RunError) Error() string {
	if e.Store != "" {
		return fmt.Sprintf("run failed in %s (%s store): %v", e.Phase, e.Store, e.Err)
	}
	return fmt.Sprintf("run failed in %s: %v", e.Phase, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
