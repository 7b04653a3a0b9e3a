package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// JSON object keys are always strings, so index-keyed vector entries are
// written as decimal strings and converted back when the vector is rebuilt.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the default codec used by the library.
//
// NOTE: Archives record the codec name in their manifest and are reopened
// with the codec they were written with, regardless of Default.
var Default Codec = GoJSON{}
