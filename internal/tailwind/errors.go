package tailwind

import (
	"errors"
	"fmt"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
)

var (
	// ErrConnection means the device could not be reached at all. It is
	// fatal to the session and never retried internally.
	ErrConnection = errors.New("cannot reach device")

	// ErrTimeout means no response arrived within the session's request
	// deadline. Whether to retry is the caller's decision.
	ErrTimeout = errors.New("request timed out")

	// ErrAuthentication means the device rejected the local control token.
	ErrAuthentication = errors.New("local control token rejected")

	// ErrMalformedResponse means the payload failed structural validation,
	// which indicates a protocol mismatch rather than a transient fault.
	ErrMalformedResponse = errors.New("malformed device response")

	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidDoorIndex = errors.New("no such door")

	ErrDoorLockedOut = errors.New("door is locked out")
	ErrDoorDisabled  = errors.New("door is disabled")

	ErrUnsupportedFirmware = errors.New("unsupported firmware version")

	ErrSessionClosed = errors.New("session is closed")
)

// DeviceError is a failure the device itself reported: the request was
// executed, the device answered, and the answer says it did not work.
type DeviceError struct {
	Result  string
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device reported failure: %s (result %q)", e.Message, e.Result)
}

// OperationTimeoutError means a door command was accepted but the door never
// reported the commanded state within the polling budget. LastKnown carries
// the last observed snapshot for diagnostics.
type OperationTimeoutError struct {
	Command   domain.DoorCommand
	LastKnown domain.Door
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("door %d did not reach state %q in time, last reported state is %q",
		e.LastKnown.Index, e.Command.TargetState(), e.LastKnown.State)
}
