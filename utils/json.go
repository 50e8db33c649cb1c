//go:build !purego

package utils

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json" //nolint:depguard
)

type JSONEncoder = gojson.Encoder
type JSONDecoder = gojson.Decoder

// JSONNumber keeps the textual form of numbers, so values pass through unchanged
type JSONNumber = gojson.Number

type RawJSON = gojson.RawMessage

var encodeOptions = []gojson.EncodeOptionFunc{gojson.DisableHTMLEscape(), gojson.DisableNormalizeUTF8()}

func MarshalJSON(val any) ([]byte, error) {
	return gojson.MarshalWithOption(val, encodeOptions...)
}

func MarshalJSONIndent(val any, indent string) ([]byte, error) {
	return gojson.MarshalIndentWithOption(val, "", indent, encodeOptions...)
}

func UnmarshalJSON(data []byte, val any) error {
	return gojson.UnmarshalWithOption(data, val)
}

// UnmarshalJSONNumber decodes data keeping every number as JSONNumber
func UnmarshalJSONNumber(data []byte, val any) error {
	decoder := gojson.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(val)
}

func NewJSONEncoder(writer io.Writer) *JSONEncoder {
	return gojson.NewEncoder(writer)
}

func NewJSONDecoder(reader io.Reader) *JSONDecoder {
	return gojson.NewDecoder(reader)
}
