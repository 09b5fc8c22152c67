package tailwind

import (
	"encoding/json"
	"fmt"

	"github.com/kurochkinivan/tailwind_control/internal/domain"
)

const (
	resultOK       = "OK"
	resultAuthFail = "token fail"
)

// DecodeResponse parses a raw device response and separates protocol-level
// success from device-reported failure. On success it returns the full
// payload mapping for the caller to type.
func DecodeResponse(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	result, ok := payload["result"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: missing result field", ErrMalformedResponse)
	}

	switch result {
	case resultOK:
		return payload, nil
	case resultAuthFail:
		return nil, ErrAuthentication
	default:
		return nil, &DeviceError{Result: result, Message: deviceMessage(payload)}
	}
}

func deviceMessage(payload map[string]any) string {
	if msg, ok := payload["message"].(string); ok {
		return msg
	}

	// older firmwares report the reason in "Info"
	if msg, ok := payload["Info"].(string); ok {
		return msg
	}

	return "unknown error"
}

// DoorStateFromWire normalizes the device's state token. Unknown tokens map
// to DoorStateUnknown instead of failing, to tolerate firmware variance.
func DoorStateFromWire(token string) domain.DoorState {
	switch token {
	case "open":
		return domain.DoorStateOpen
	case "close":
		return domain.DoorStateClosed
	default:
		return domain.DoorStateUnknown
	}
}
