package ports

// ChangeKind classifies a change to a watched location.
type ChangeKind int

const (
	// ChangeModified means the location exists and differs from the last poll.
	ChangeModified ChangeKind = iota
	// ChangeRemoved means the location disappeared.
	ChangeRemoved
)

func (k ChangeKind) String() string {
	if k == ChangeRemoved {
		return "removed"
	}
	return "modified"
}

// ChangeEvent is a coalesced change observed by a poll.
type ChangeEvent struct {
	Path string
	Kind ChangeKind
}

// ChangeWatch detects changes to one location.
type ChangeWatch interface {
	// Poll returns immediately. It reports at most one coalesced change and
	// reports nothing when the location is unchanged since the previous call.
	Poll() (ChangeEvent, bool)
	Close() error
}
