package tailwind_test

import (
	"testing"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
	"github.com/kurochkinivan/tailwind_control/internal/tailwind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResponse_OK(t *testing.T) {
	t.Parallel()

	payload, err := tailwind.DecodeResponse([]byte(`{"result":"OK","led_brightness":80}`))
	require.NoError(t, err)
	assert.Equal(t, "OK", payload["result"])
	assert.Equal(t, float64(80), payload["led_brightness"])
}

func TestDecodeResponse_TokenFail(t *testing.T) {
	t.Parallel()

	_, err := tailwind.DecodeResponse([]byte(`{"result":"token fail"}`))
	require.ErrorIs(t, err, tailwind.ErrAuthentication)
}

func TestDecodeResponse_DeviceFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		message string
	}{
		{
			name:    "message field",
			raw:     `{"result":"Fail","message":"door not found"}`,
			message: "door not found",
		},
		{
			name:    "info fallback",
			raw:     `{"result":"Fail","Info":"busy"}`,
			message: "busy",
		},
		{
			name:    "no reason given",
			raw:     `{"result":"Fail"}`,
			message: "unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tailwind.DecodeResponse([]byte(tt.raw))

			var devErr *tailwind.DeviceError
			require.ErrorAs(t, err, &devErr)
			assert.Equal(t, "Fail", devErr.Result)
			assert.Equal(t, tt.message, devErr.Message)
		})
	}
}

func TestDecodeResponse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `<html>504</html>`},
		{name: "missing result", raw: `{"dev_id":"x"}`},
		{name: "result is not a string", raw: `{"result":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tailwind.DecodeResponse([]byte(tt.raw))
			require.ErrorIs(t, err, tailwind.ErrMalformedResponse)
		})
	}
}

func TestDoorStateFromWire(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.DoorStateOpen, tailwind.DoorStateFromWire("open"))
	assert.Equal(t, domain.DoorStateClosed, tailwind.DoorStateFromWire("close"))
	assert.Equal(t, domain.DoorStateUnknown, tailwind.DoorStateFromWire("enable"))
	assert.Equal(t, domain.DoorStateUnknown, tailwind.DoorStateFromWire(""))
}
