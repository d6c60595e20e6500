package gateway

import "encoding/json"

// Gateway opcodes the watcher cares about.
const (
	OpDispatch     = 0
	OpHeartbeat    = 1
	OpIdentify     = 2
	OpHello        = 10
	OpHeartbeatAck = 11
)

// EventChannelUpdate is the only dispatch event type the client acts on.
const EventChannelUpdate = "CHANNEL_UPDATE"

// Frame is the envelope wrapping every Gateway message in both directions.
// Data stays raw until the opcode (and event type) tell us how to decode it.
type Frame struct {
	Op   int             `json:"op"`
	Seq  *int64          `json:"s,omitempty"`
	Type string          `json:"t,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

// HelloData is the payload of the first frame the Gateway sends (op 10).
type HelloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

// IdentifyData is the payload of the identify frame (op 2).
type IdentifyData struct {
	Token      string             `json:"token"`
	Properties IdentifyProperties `json:"properties"`
}

// IdentifyProperties is the minimal capability descriptor the Gateway
// expects alongside credentials.
type IdentifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

// ChannelData is the slice of a CHANNEL_UPDATE dispatch payload we decode.
type ChannelData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// heartbeatFrame is an op 1 frame with an explicit null payload, exactly as
// the Gateway wire format requires.
func heartbeatFrame() Frame {
	return Frame{Op: OpHeartbeat, Data: json.RawMessage("null")}
}

func identifyFrame(token string) (Frame, error) {
	data, err := json.Marshal(IdentifyData{
		Token: token,
		Properties: IdentifyProperties{
			OS:      "linux",
			Browser: "Chrome",
			Device:  "Chrome",
		},
	})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Op: OpIdentify, Data: data}, nil
}
