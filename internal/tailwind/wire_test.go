package tailwind_test

import (
	"encoding/json"
	"testing"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
	"github.com/kurochkinivan/tailwind_control/internal/tailwind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusRaw = `{
	"result": "OK",
	"product": "iQ3",
	"dev_id": "_3c_e9_e_6d_21_84_",
	"proto_ver": "0.1",
	"door_num": 2,
	"night_mode_en": 0,
	"fw_ver": "10.13",
	"led_brightness": 80,
	"data": {
		"door1": {"door_id": "door1", "index": 0, "status": "open", "lockup": 0, "disabled": 0},
		"door2": {"door_id": "door2", "index": 1, "status": "close", "lockup": 1, "disabled": 0}
	}
}`

func statusPayload(t *testing.T, raw string) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	return payload
}

// mutated returns a copy of the reference status payload with one top-level
// field replaced. A nil value deletes the field.
func mutated(t *testing.T, key string, value any) map[string]any {
	t.Helper()

	payload := statusPayload(t, statusRaw)
	if value == nil {
		delete(payload, key)
	} else {
		payload[key] = value
	}

	return payload
}

func TestDeviceStatusFromWire_HappyPath(t *testing.T) {
	t.Parallel()

	status, err := tailwind.DeviceStatusFromWire(statusPayload(t, statusRaw))
	require.NoError(t, err)

	assert.Equal(t, "_3c_e9_e_6d_21_84_", status.DeviceID)
	assert.Equal(t, "10.13", status.FirmwareVersion)
	assert.Equal(t, "iQ3", status.Product)
	assert.Equal(t, "0.1", status.ProtocolVersion)
	assert.Equal(t, 80, status.LEDBrightness)
	assert.False(t, status.NightModeEnabled)
	assert.Equal(t, 2, status.NumberOfDoors)
	assert.Equal(t, "3c:e9:0e:6d:21:84", status.MACAddress())

	require.Len(t, status.Doors, 2)
	assert.Equal(t, domain.Door{
		ID:    "door1",
		Index: 0,
		State: domain.DoorStateOpen,
	}, status.Doors["door1"])
	assert.Equal(t, domain.Door{
		ID:        "door2",
		Index:     1,
		LockedOut: true,
		State:     domain.DoorStateClosed,
	}, status.Doors["door2"])
}

func TestDeviceStatusFromWire_UnknownDoorState(t *testing.T) {
	t.Parallel()

	payload := statusPayload(t, statusRaw)
	payload["data"].(map[string]any)["door1"].(map[string]any)["status"] = "enable"

	status, err := tailwind.DeviceStatusFromWire(payload)
	require.NoError(t, err)
	assert.Equal(t, domain.DoorStateUnknown, status.Doors["door1"].State)
}

func TestDeviceStatusFromWire_FirmwareGate(t *testing.T) {
	t.Parallel()

	_, err := tailwind.DeviceStatusFromWire(mutated(t, "fw_ver", "9.95"))
	require.ErrorIs(t, err, tailwind.ErrUnsupportedFirmware)

	_, err = tailwind.DeviceStatusFromWire(mutated(t, "fw_ver", "not-a-version"))
	require.ErrorIs(t, err, tailwind.ErrMalformedResponse)
}

func TestDeviceStatusFromWire_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "missing dev_id", key: "dev_id", value: nil},
		{name: "dev_id is not a string", key: "dev_id", value: float64(7)},
		{name: "brightness above range", key: "led_brightness", value: float64(150)},
		{name: "brightness is fractional", key: "led_brightness", value: 79.5},
		{name: "night mode is not a flag", key: "night_mode_en", value: float64(2)},
		{name: "door_num disagrees with doors", key: "door_num", value: float64(3)},
		{name: "missing door mapping", key: "data", value: nil},
		{name: "door is not a mapping", key: "data", value: map[string]any{"door1": "open"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tailwind.DeviceStatusFromWire(mutated(t, tt.key, tt.value))
			require.ErrorIs(t, err, tailwind.ErrMalformedResponse)
		})
	}
}

func TestDeviceStatusFromWire_DuplicateDoorIndex(t *testing.T) {
	t.Parallel()

	payload := statusPayload(t, statusRaw)
	payload["data"].(map[string]any)["door2"].(map[string]any)["index"] = float64(0)

	_, err := tailwind.DeviceStatusFromWire(payload)
	require.ErrorIs(t, err, tailwind.ErrMalformedResponse)
}

func TestDoorFromWire_IndexFallback(t *testing.T) {
	t.Parallel()

	door, err := tailwind.DoorFromWire("door2", 1, map[string]any{
		"status":   "close",
		"lockup":   float64(0),
		"disabled": float64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, door.Index)
	assert.True(t, door.Disabled)
}
