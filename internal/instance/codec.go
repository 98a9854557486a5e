package instance

import (
	"encoding/json"
)

// codecName is the content-subtype carried on the wire ("application/grpc+json").
const codecName = "json"

// jsonCodec carries the control messages as JSON. The instance runtime serves
// plain Go structs, so there is no generated protobuf code on either side.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}
