package seqrand

import "fmt"

// State is the phase of a shuffle run.
//
//	Idle -> Reading -> Draining -> Replaying -> Done
//
// Failed is reachable from every state except Done.
type State int32

const (
	// StateIdle: created, not started.
	StateIdle State = iota
	// StateReading: consuming the source, shuffling and persisting full chunks.
	StateReading
	// StateDraining: source exhausted; persisting the final partial chunk and
	// waiting for in-flight chunks.
	StateDraining
	// StateReplaying: reading persisted chunks back in creation order.
	StateReplaying
	// StateDone: every record delivered and the count verified.
	StateDone
	// StateFailed: the run ended with an error; temp storage was released.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateDraining:
		return "draining"
	case StateReplaying:
		return "replaying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// Progress is a point-in-time snapshot of a run.
type Progress struct {
	State State
	// ChunksPersisted counts chunks written to temp storage.
	ChunksPersisted int
	// ChunksReplayed counts chunks read back and released.
	ChunksReplayed int
	// Consumed counts records pulled from the source.
	Consumed int64
	// Emitted counts records delivered by the output.
	Emitted int64
}
