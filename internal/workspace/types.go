package workspace

// State is the lifecycle stage of a Coordinator
type State int32

const (
	// Uninitialized means Bootstrap has not run yet
	Uninitialized State = iota
	// Bootstrapping means the initial scan is in progress
	Bootstrapping
	// Ready means the index reflects the configured files
	Ready
)

func (s State) String() string {
	switch s {
	case Bootstrapping:
		return "bootstrapping"
	case Ready:
		return "ready"
	}
	return "uninitialized"
}

// EventKind is what happened to a file
type EventKind int

const (
	// Created means a file appeared
	Created EventKind = iota + 1
	// Changed means a file's content changed
	Changed
	// Deleted means a file went away
	Deleted
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Event reports a change to the file at an absolute Path
type Event struct {
	Kind EventKind
	Path string
}
