// Package avro is the default, compile-in-able codec bridge and typed
// façade for the schema registry client core, targeting
// github.com/amient/avro the same record-schema library the rest of this
// module's teacher codebase uses for its own Avro pipeline stages.
package avro

import (
	avrolib "github.com/amient/avro"

	"github.com/amient/goserdes"
)

func init() {
	goserdes.RegisterDefaultBridge(&Bridge{})
}

// Bridge parses Avro schema definitions with avrolib.ParseSchema and
// wraps the resulting avrolib.Schema in a codec object implementing
// goserdes.Codec, so the generic Handle.Serialize/Deserialize can drive
// Avro encode/decode without depending on the avro package directly.
type Bridge struct{}

// Load implements goserdes.Bridge.
func (b *Bridge) Load(entry *goserdes.Schema, definition []byte) (interface{}, error) {
	schema, err := avrolib.ParseSchema(string(definition))
	if err != nil {
		return nil, err
	}
	return &codec{schema: schema}, nil
}

// Unload implements goserdes.Bridge. The amient/avro schema object carries
// no external resources, so there is nothing to release; the callback
// still exists to satisfy the bridge contract and to mirror the original
// library's unconditional unload call per destroyed entry.
func (b *Bridge) Unload(entry *goserdes.Schema, obj interface{}) {}

// SchemaOf returns the parsed avrolib.Schema backing a resolved serdes
// schema entry, or nil if entry's codec object isn't one of ours.
func SchemaOf(entry *goserdes.Schema) avrolib.Schema {
	c, ok := entry.Object().(*codec)
	if !ok {
		return nil
	}
	return c.schema
}
