package tailwind

const protocolVersion = "0.1"

type RequestType string

const (
	RequestTypeGet RequestType = "get"
	RequestTypeSet RequestType = "set"
)

const (
	opDeviceStatus  = "dev_st"
	opDoorOperation = "door_op"
	opStatusLED     = "status_led"
	opIdentify      = "identify"
)

// Envelope is the versioned wrapper around every request. One envelope is
// built per request and is not reused.
type Envelope struct {
	Version string      `json:"version"`
	Data    RequestData `json:"data"`
}

type RequestData struct {
	Name  string         `json:"name"`
	Type  RequestType    `json:"type"`
	Value map[string]any `json:"value,omitempty"`
}

func NewEnvelope(name string, requestType RequestType, value map[string]any) Envelope {
	return Envelope{
		Version: protocolVersion,
		Data: RequestData{
			Name:  name,
			Type:  requestType,
			Value: value,
		},
	}
}
