package basenode

import (
	"github.com/sturdilythatch87/tari/utils"
	"google.golang.org/grpc/encoding"
)

// codecName content subtype of every call, application/grpc+json on the wire
const codecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return utils.MarshalJSON(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return utils.UnmarshalJSON(data, v)
}

func (jsonCodec) Name() string {
	return codecName
}

//nolint:gochecknoinits
func init() {
	encoding.RegisterCodec(jsonCodec{})
}
