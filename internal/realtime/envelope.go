package realtime

import (
	"encoding/json"
	"errors"
)

// WildcardChannel is the channel every room member receives device events on,
// regardless of which device produced them.
const WildcardChannel = "all"

var (
	errNotJSON    = errors.New("payload is not valid JSON")
	errNoMetadata = errors.New("envelope has no metadata")
	errNoDeviceID = errors.New("envelope metadata has no deviceid")
)

type envelopeMetadata struct {
	DeviceID string `json:"deviceid"`
}

type envelope struct {
	Metadata *envelopeMetadata `json:"metadata"`
}

// deviceID extracts metadata.deviceid from a raw bus payload. Anything
// missing or malformed disqualifies the payload from being routed.
func deviceID(payload []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", errNotJSON
	}
	if env.Metadata == nil {
		return "", errNoMetadata
	}
	if env.Metadata.DeviceID == "" {
		return "", errNoDeviceID
	}
	return env.Metadata.DeviceID, nil
}

// Frame is the JSON message written to websocket clients. Data carries the
// bus payload untouched; Channel is either the device id or WildcardChannel.
type Frame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

func encodeFrame(channel string, payload []byte) ([]byte, error) {
	return json.Marshal(Frame{Channel: channel, Data: payload})
}
