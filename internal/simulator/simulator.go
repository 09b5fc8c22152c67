package simulator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kurochkinivan/tailwind_control/internal/domain"
)

// DoorConfig is the initial shape of one simulated door.
type DoorConfig struct {
	State     domain.DoorState
	Disabled  bool
	LockedOut bool

	// Jammed doors accept commands but never reach the commanded state.
	Jammed bool
}

type Config struct {
	Token           string
	DeviceID        string
	FirmwareVersion string
	Product         string
	ProtocolVersion string
	LEDBrightness   int
	NightMode       bool
	Doors           []DoorConfig

	// SettleAfter is the number of status reads a commanded door stays in
	// its old state before settling into the commanded one.
	SettleAfter int
}

type door struct {
	cfg          DoorConfig
	state        domain.DoorState
	pending      domain.DoorState
	readsToState int
}

// Device simulates the local control endpoint of a Tailwind garage door
// controller: one POST /json route speaking the request envelope protocol.
type Device struct {
	cfg Config

	mu            sync.Mutex
	doors         []*door
	ledBrightness int
	identifyCount int
}

func New(cfg Config) *Device {
	if cfg.Token == "" {
		cfg.Token = "123456"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "_3c_e9_e_6d_21_84_"
	}
	if cfg.FirmwareVersion == "" {
		cfg.FirmwareVersion = "10.10"
	}
	if cfg.Product == "" {
		cfg.Product = "iQ3"
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = "0.1"
	}
	if cfg.Doors == nil {
		cfg.Doors = []DoorConfig{
			{State: domain.DoorStateClosed},
			{State: domain.DoorStateClosed},
		}
	}
	if cfg.SettleAfter <= 0 {
		cfg.SettleAfter = 1
	}

	doors := make([]*door, 0, len(cfg.Doors))
	for _, doorCfg := range cfg.Doors {
		state := doorCfg.State
		if state == "" {
			state = domain.DoorStateClosed
		}

		doors = append(doors, &door{cfg: doorCfg, state: state})
	}

	return &Device{
		cfg:           cfg,
		doors:         doors,
		ledBrightness: cfg.LEDBrightness,
	}
}

func (d *Device) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/json", d.handleRequest)

	return r
}

func (d *Device) LEDBrightness() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ledBrightness
}

func (d *Device) IdentifyCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.identifyCount
}

func (d *Device) DoorState(index int) domain.DoorState {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.doors) {
		return domain.DoorStateUnknown
	}

	return d.doors[index].state
}

type requestEnvelope struct {
	Version string `json:"version"`
	Data    struct {
		Name  string         `json:"name"`
		Type  string         `json:"type"`
		Value map[string]any `json:"value"`
	} `json:"data"`
}

func (d *Device) handleRequest(w http.ResponseWriter, r *http.Request) {
	var env requestEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		writeResponse(w, failPayload("invalid request body"))
		return
	}

	if r.Header.Get("TOKEN") != d.cfg.Token {
		writeResponse(w, map[string]any{"result": "token fail"})
		return
	}

	switch env.Data.Name {
	case "dev_st":
		writeResponse(w, d.statusPayload())
	case "door_op":
		writeResponse(w, d.operateDoor(env.Data.Value))
	case "status_led":
		writeResponse(w, d.setLED(env.Data.Value))
	case "identify":
		writeResponse(w, d.identify())
	default:
		writeResponse(w, failPayload("unknown command"))
	}
}

// statusPayload builds the dev_st response and advances pending door
// transitions: every read brings a commanded door one step closer to its
// target state.
func (d *Device) statusPayload() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	data := make(map[string]any, len(d.doors))
	for i, dr := range d.doors {
		if dr.pending != "" {
			dr.readsToState--
			if dr.readsToState <= 0 {
				dr.state = dr.pending
				dr.pending = ""
			}
		}

		doorID := doorID(i)
		data[doorID] = map[string]any{
			"door_id":  doorID,
			"index":    i,
			"disabled": boolToWire(dr.cfg.Disabled),
			"lockup":   boolToWire(dr.cfg.LockedOut),
			"status":   string(dr.state),
		}
	}

	return map[string]any{
		"result":         "OK",
		"dev_id":         d.cfg.DeviceID,
		"fw_ver":         d.cfg.FirmwareVersion,
		"product":        d.cfg.Product,
		"proto_ver":      d.cfg.ProtocolVersion,
		"night_mode_en":  boolToWire(d.cfg.NightMode),
		"led_brightness": d.ledBrightness,
		"door_num":       len(d.doors),
		"data":           data,
	}
}

func (d *Device) operateDoor(value map[string]any) map[string]any {
	index, ok := wireInt(value, "door_idx")
	if !ok {
		return failPayload("door_op requires door_idx")
	}

	command, ok := value["cmd"].(string)
	if !ok || (command != "open" && command != "close") {
		return failPayload("door_op requires cmd open or close")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.doors) {
		return failPayload("door not found")
	}

	dr := d.doors[index]
	if dr.cfg.Jammed {
		// accepted but the door never moves
		return map[string]any{"result": "OK"}
	}

	target := domain.DoorState(command)
	if dr.state != target {
		dr.pending = target
		dr.readsToState = d.cfg.SettleAfter
	}

	return map[string]any{"result": "OK"}
}

func (d *Device) setLED(value map[string]any) map[string]any {
	brightness, ok := wireInt(value, "brightness")
	if !ok || brightness < 0 || brightness > 100 {
		return failPayload("status_led requires brightness in [0, 100]")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.ledBrightness = brightness

	return map[string]any{"result": "OK"}
}

func (d *Device) identify() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.identifyCount++

	return map[string]any{"result": "OK"}
}

func writeResponse(w http.ResponseWriter, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func failPayload(message string) map[string]any {
	return map[string]any{
		"result":  "Fail",
		"message": message,
	}
}

func doorID(index int) string {
	return fmt.Sprintf("door%d", index+1)
}

func boolToWire(v bool) int {
	if v {
		return 1
	}

	return 0
}

func wireInt(value map[string]any, key string) (int, bool) {
	f, ok := value[key].(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}

	return int(f), true
}
