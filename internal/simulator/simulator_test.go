package simulator_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
	"github.com/kurochkinivan/tailwind_control/internal/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, handler http.Handler, token, body string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/json", strings.NewReader(body))
	req.Header.Set("TOKEN", token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	return payload
}

func TestDevice_RejectsBadToken(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{Token: "654321"})

	payload := post(t, dev.Handler(), "123456", `{"version":"0.1","data":{"name":"dev_st","type":"get"}}`)
	assert.Equal(t, "token fail", payload["result"])
}

func TestDevice_Status(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{
		LEDBrightness: 80,
		Doors: []simulator.DoorConfig{
			{State: domain.DoorStateOpen},
			{State: domain.DoorStateClosed, Disabled: true},
		},
	})

	payload := post(t, dev.Handler(), "123456", `{"version":"0.1","data":{"name":"dev_st","type":"get"}}`)

	assert.Equal(t, "OK", payload["result"])
	assert.Equal(t, "iQ3", payload["product"])
	assert.Equal(t, "10.10", payload["fw_ver"])
	assert.Equal(t, float64(80), payload["led_brightness"])
	assert.Equal(t, float64(2), payload["door_num"])

	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	require.Len(t, data, 2)

	door1, ok := data["door1"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "open", door1["status"])
	assert.Equal(t, float64(0), door1["index"])

	door2, ok := data["door2"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "close", door2["status"])
	assert.Equal(t, float64(1), door2["disabled"])
}

func TestDevice_DoorSettlesAfterReads(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{
		Doors:       []simulator.DoorConfig{{State: domain.DoorStateClosed}},
		SettleAfter: 2,
	})
	handler := dev.Handler()

	payload := post(t, handler, "123456", `{"version":"0.1","data":{"name":"door_op","type":"set","value":{"cmd":"open","door_idx":0}}}`)
	require.Equal(t, "OK", payload["result"])

	// first read still reports the old state, second one settles
	post(t, handler, "123456", `{"version":"0.1","data":{"name":"dev_st","type":"get"}}`)
	assert.Equal(t, domain.DoorStateClosed, dev.DoorState(0))

	post(t, handler, "123456", `{"version":"0.1","data":{"name":"dev_st","type":"get"}}`)
	assert.Equal(t, domain.DoorStateOpen, dev.DoorState(0))
}

func TestDevice_JammedDoorNeverMoves(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{
		Doors: []simulator.DoorConfig{{State: domain.DoorStateClosed, Jammed: true}},
	})
	handler := dev.Handler()

	payload := post(t, handler, "123456", `{"version":"0.1","data":{"name":"door_op","type":"set","value":{"cmd":"open","door_idx":0}}}`)
	require.Equal(t, "OK", payload["result"])

	for range 5 {
		post(t, handler, "123456", `{"version":"0.1","data":{"name":"dev_st","type":"get"}}`)
	}

	assert.Equal(t, domain.DoorStateClosed, dev.DoorState(0))
}

func TestDevice_OperateValidation(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{
		Doors: []simulator.DoorConfig{{State: domain.DoorStateClosed}},
	})
	handler := dev.Handler()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "unknown door",
			body: `{"version":"0.1","data":{"name":"door_op","type":"set","value":{"cmd":"open","door_idx":7}}}`,
		},
		{
			name: "unknown command",
			body: `{"version":"0.1","data":{"name":"door_op","type":"set","value":{"cmd":"toggle","door_idx":0}}}`,
		},
		{
			name: "missing door index",
			body: `{"version":"0.1","data":{"name":"door_op","type":"set","value":{"cmd":"open"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := post(t, handler, "123456", tt.body)
			assert.Equal(t, "Fail", payload["result"])
			assert.NotEmpty(t, payload["message"])
		})
	}
}

func TestDevice_SetLED(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{LEDBrightness: 100})
	handler := dev.Handler()

	payload := post(t, handler, "123456", `{"version":"0.1","data":{"name":"status_led","type":"set","value":{"brightness":25}}}`)
	require.Equal(t, "OK", payload["result"])
	assert.Equal(t, 25, dev.LEDBrightness())

	payload = post(t, handler, "123456", `{"version":"0.1","data":{"name":"status_led","type":"set","value":{"brightness":150}}}`)
	assert.Equal(t, "Fail", payload["result"])
	assert.Equal(t, 25, dev.LEDBrightness())
}

func TestDevice_UnknownOperation(t *testing.T) {
	t.Parallel()

	dev := simulator.New(simulator.Config{})

	payload := post(t, dev.Handler(), "123456", `{"version":"0.1","data":{"name":"reboot","type":"set"}}`)
	assert.Equal(t, "Fail", payload["result"])
}
