package tailwind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultOperateMaxWait = 60 * time.Second
)

// Client is the protocol facade: it composes the wire codec, a transport
// session and the domain constructors into device operations. Failures
// surface as typed errors; the client never retries on its own.
type Client struct {
	log *slog.Logger
	rt  Requester

	clock        Clock
	pollInterval time.Duration
	maxWait      time.Duration
}

type ClientOption func(*Client)

func WithClock(clock Clock) ClientOption {
	return func(c *Client) {
		c.clock = clock
	}
}

func WithPollInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

func WithOperateMaxWait(maxWait time.Duration) ClientOption {
	return func(c *Client) {
		c.maxWait = maxWait
	}
}

func NewClient(log *slog.Logger, rt Requester, opts ...ClientOption) *Client {
	c := &Client{
		log:          log,
		rt:           rt,
		clock:        systemClock{},
		pollInterval: defaultPollInterval,
		maxWait:      defaultOperateMaxWait,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Status fetches a fresh device status snapshot.
func (c *Client) Status(ctx context.Context) (*domain.DeviceStatus, error) {
	raw, err := c.rt.Request(ctx, NewEnvelope(opDeviceStatus, RequestTypeGet, nil))
	if err != nil {
		return nil, err
	}

	payload, err := DecodeResponse(raw)
	if err != nil {
		return nil, err
	}

	return DeviceStatusFromWire(payload)
}

// DoorStatus fetches the device status and returns the door addressed by its
// zero-based index.
func (c *Client) DoorStatus(ctx context.Context, doorIndex int) (domain.Door, error) {
	if doorIndex < 0 {
		return domain.Door{}, fmt.Errorf("%w: door index %d", ErrInvalidDoorIndex, doorIndex)
	}

	status, err := c.Status(ctx)
	if err != nil {
		return domain.Door{}, err
	}

	door, ok := status.DoorByIndex(doorIndex)
	if !ok {
		return domain.Door{}, fmt.Errorf("%w: door index %d, device reports %d doors",
			ErrInvalidDoorIndex, doorIndex, status.NumberOfDoors)
	}

	return door, nil
}

// Operate sends a door command and polls the door until it reports the
// commanded state. When the polling budget runs out the last observed
// snapshot is returned inside an OperationTimeoutError. A door that already
// is in the target state is not treated specially: the device, not the
// client, decides whether to no-op, and confirmation is still polled for.
func (c *Client) Operate(ctx context.Context, doorIndex int, command domain.DoorCommand) (domain.Door, error) {
	if !command.Valid() {
		return domain.Door{}, fmt.Errorf("%w: unknown door command %q", ErrInvalidArgument, string(command))
	}

	door, err := c.DoorStatus(ctx, doorIndex)
	if err != nil {
		return domain.Door{}, err
	}

	if door.LockedOut {
		return domain.Door{}, fmt.Errorf("%w: door %d", ErrDoorLockedOut, door.Index)
	}

	if door.Disabled {
		return domain.Door{}, fmt.Errorf("%w: door %d", ErrDoorDisabled, door.Index)
	}

	value := map[string]any{
		"cmd":      string(command),
		"door_idx": door.Index,
	}

	raw, err := c.rt.Request(ctx, NewEnvelope(opDoorOperation, RequestTypeSet, value))
	if err != nil {
		return domain.Door{}, err
	}

	if _, err := DecodeResponse(raw); err != nil {
		return domain.Door{}, err
	}

	c.log.DebugContext(ctx, "door command accepted, awaiting confirmation",
		slog.Int("door_index", door.Index),
		slog.String("cmd", string(command)),
	)

	return c.awaitDoorState(ctx, door, command)
}

func (c *Client) awaitDoorState(ctx context.Context, last domain.Door, command domain.DoorCommand) (domain.Door, error) {
	target := command.TargetState()
	deadline := c.clock.Now().Add(c.maxWait)

	for {
		select {
		case <-ctx.Done():
			return domain.Door{}, ctx.Err()
		case <-c.clock.After(c.pollInterval):
		}

		door, err := c.DoorStatus(ctx, last.Index)
		if err != nil {
			return domain.Door{}, err
		}
		last = door

		if door.State == target {
			return door, nil
		}

		if !c.clock.Now().Before(deadline) {
			return domain.Door{}, &OperationTimeoutError{Command: command, LastKnown: last}
		}
	}
}

// SetLEDBrightness configures the status LED. Completion is confirmed by the
// device acknowledgement alone, no polling is involved.
func (c *Client) SetLEDBrightness(ctx context.Context, level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("%w: brightness %d is outside [0, 100]", ErrInvalidArgument, level)
	}

	raw, err := c.rt.Request(ctx, NewEnvelope(opStatusLED, RequestTypeSet, map[string]any{"brightness": level}))
	if err != nil {
		return err
	}

	_, err = DecodeResponse(raw)

	return err
}

// Identify makes the device flash its LED. Success means the device accepted
// the request.
func (c *Client) Identify(ctx context.Context) error {
	raw, err := c.rt.Request(ctx, NewEnvelope(opIdentify, RequestTypeSet, nil))
	if err != nil {
		return err
	}

	_, err = DecodeResponse(raw)

	return err
}
