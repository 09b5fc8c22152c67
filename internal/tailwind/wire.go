package tailwind

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-version"
	"github.com/kurochkinivan/tailwind_control/internal/domain"
)

var minFirmwareVersion = version.Must(version.NewVersion("10.10"))

// DeviceStatusFromWire builds a DeviceStatus snapshot from a decoded dev_st
// payload. Missing or mistyped required fields fail with ErrMalformedResponse.
func DeviceStatusFromWire(payload map[string]any) (*domain.DeviceStatus, error) {
	deviceID, err := stringField(payload, "dev_id")
	if err != nil {
		return nil, err
	}

	firmwareVersion, err := stringField(payload, "fw_ver")
	if err != nil {
		return nil, err
	}

	firmware, err := version.NewVersion(firmwareVersion)
	if err != nil {
		return nil, fmt.Errorf("%w: unparsable firmware version %q", ErrMalformedResponse, firmwareVersion)
	}

	if firmware.LessThan(minFirmwareVersion) {
		return nil, fmt.Errorf("%w: firmware %s is older than required %s",
			ErrUnsupportedFirmware, firmwareVersion, minFirmwareVersion)
	}

	product, err := stringField(payload, "product")
	if err != nil {
		return nil, err
	}

	protoVersion, err := stringField(payload, "proto_ver")
	if err != nil {
		return nil, err
	}

	nightMode, err := boolField(payload, "night_mode_en")
	if err != nil {
		return nil, err
	}

	brightness, err := intField(payload, "led_brightness")
	if err != nil {
		return nil, err
	}

	if brightness < 0 || brightness > 100 {
		return nil, fmt.Errorf("%w: led_brightness %d is outside [0, 100]", ErrMalformedResponse, brightness)
	}

	doorNum, err := intField(payload, "door_num")
	if err != nil {
		return nil, err
	}

	doors, err := doorsFromWire(payload)
	if err != nil {
		return nil, err
	}

	if doorNum != len(doors) {
		return nil, fmt.Errorf("%w: door_num is %d but payload carries %d doors",
			ErrMalformedResponse, doorNum, len(doors))
	}

	return &domain.DeviceStatus{
		DeviceID:         deviceID,
		FirmwareVersion:  firmwareVersion,
		Product:          product,
		ProtocolVersion:  protoVersion,
		LEDBrightness:    brightness,
		NightModeEnabled: nightMode,
		NumberOfDoors:    doorNum,
		Doors:            doors,
	}, nil
}

func doorsFromWire(payload map[string]any) (map[string]domain.Door, error) {
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing door mapping in field %q", ErrMalformedResponse, "data")
	}

	ids := make([]string, 0, len(data))
	for id := range data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	doors := make(map[string]domain.Door, len(data))
	seen := make(map[int]string, len(data))

	for position, id := range ids {
		doorPayload, ok := data[id].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: door %q is not a mapping", ErrMalformedResponse, id)
		}

		// devices echo the index; fall back to position when they do not
		index := position
		if wireIndex, err := intField(doorPayload, "index"); err == nil {
			index = wireIndex
		}

		door, err := DoorFromWire(id, index, doorPayload)
		if err != nil {
			return nil, err
		}

		if other, dup := seen[door.Index]; dup {
			return nil, fmt.Errorf("%w: doors %q and %q share index %d",
				ErrMalformedResponse, other, id, door.Index)
		}
		seen[door.Index] = id

		doors[id] = door
	}

	return doors, nil
}

// DoorFromWire builds a Door snapshot from one entry of the status door
// mapping. The index is supplied by the caller because not every firmware
// echoes it on the wire.
func DoorFromWire(id string, index int, payload map[string]any) (domain.Door, error) {
	disabled, err := boolField(payload, "disabled")
	if err != nil {
		return domain.Door{}, err
	}

	lockedOut, err := boolField(payload, "lockup")
	if err != nil {
		return domain.Door{}, err
	}

	status, err := stringField(payload, "status")
	if err != nil {
		return domain.Door{}, err
	}

	if index < 0 {
		return domain.Door{}, fmt.Errorf("%w: door %q has negative index %d", ErrMalformedResponse, id, index)
	}

	return domain.Door{
		ID:        id,
		Index:     index,
		Disabled:  disabled,
		LockedOut: lockedOut,
		State:     DoorStateFromWire(status),
	}, nil
}

func stringField(payload map[string]any, key string) (string, error) {
	value, ok := payload[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q is missing or not a string", ErrMalformedResponse, key)
	}

	return value, nil
}

func intField(payload map[string]any, key string) (int, error) {
	// encoding/json decodes all numbers into float64
	value, ok := payload[key].(float64)
	if !ok || value != math.Trunc(value) {
		return 0, fmt.Errorf("%w: field %q is missing or not an integer", ErrMalformedResponse, key)
	}

	return int(value), nil
}

func boolField(payload map[string]any, key string) (bool, error) {
	value, err := intField(payload, key)
	if err != nil {
		return false, err
	}

	switch value {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: field %q must be 0 or 1, got %d", ErrMalformedResponse, key, value)
	}
}
