package codec

import (
	"bytes"
	"encoding/json"

	gojson "github.com/goccy/go-json"
)

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// JSON is the encoding/json codec.
type JSON struct {
	// Strict rejects object keys that match no field.
	Strict bool
}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (c JSON) Unmarshal(data []byte, v any) error {
	if !c.Strict {
		return json.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Name returns "json".
func (JSON) Name() string { return "json" }

// GoJSON is a drop-in encoding/json replacement backed by
// github.com/goccy/go-json.
type GoJSON struct {
	// Strict rejects object keys that match no field.
	Strict bool
}

// Marshal encodes the value to JSON.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (c GoJSON) Unmarshal(data []byte, v any) error {
	if !c.Strict {
		return gojson.Unmarshal(data, v)
	}
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }
