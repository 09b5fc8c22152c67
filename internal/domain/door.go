package domain

type DoorState string

const (
	DoorStateOpen    DoorState = "open"
	DoorStateClosed  DoorState = "close"
	DoorStateUnknown DoorState = "unknown"
)

type DoorCommand string

const (
	DoorCommandOpen  DoorCommand = "open"
	DoorCommandClose DoorCommand = "close"
)

func (c DoorCommand) Valid() bool {
	return c == DoorCommandOpen || c == DoorCommandClose
}

// TargetState is the door state that confirms the command completed.
func (c DoorCommand) TargetState() DoorState {
	if c == DoorCommandClose {
		return DoorStateClosed
	}

	return DoorStateOpen
}

// Door is a read-only snapshot of a single garage door. A fresh snapshot is
// built on every status decode; snapshots are never mutated in place.
type Door struct {
	ID        string
	Index     int
	Disabled  bool
	LockedOut bool
	State     DoorState
}
