package goserdes

//go:generate go run go.uber.org/mock/mockgen -source=bridge.go -destination=mock_bridge.go -package=goserdes

// Bridge decouples the cache from any specific record-schema format. Load
// is invoked exactly once per resolved Schema (on Add or on fetch
// completion); Unload is invoked exactly once per destroyed Schema. The
// object Load returns is opaque to the cache — it is stored on the Schema
// and handed back to Unload untouched.
type Bridge interface {
	Load(entry *Schema, definition []byte) (codec interface{}, err error)
	Unload(entry *Schema, codec interface{})
}

// Codec is the optional capability a bridge's loaded object may implement
// to let Handle.Serialize/Deserialize drive the concrete record-level
// encode/decode generically, without the core knowing the codec's
// concrete type. A bridge whose codec object does not implement Codec can
// still be used for schema management (Get/Add/Purge); only Serialize and
// Deserialize require it.
type Codec interface {
	// Encode returns the encoded body bytes for datum.
	Encode(datum interface{}) ([]byte, error)
	// Decode reads one value of this schema from src into datum and
	// returns the number of bytes consumed.
	Decode(src []byte, datum interface{}) (int, error)
}

// wrapJSONStringLiteral applies the documented workaround for
// string-literal schema definitions (definitions that are themselves a
// bare JSON string, e.g. `"long"`): some record-schema parsers only
// accept object/array roots, so a leading `"` gets wrapped as
// `{"type": <def>}` before being handed to the bridge. This is preserved
// behavior, not a bug fix — callers relying on the original quirky
// acceptance of bare string schemas still get it.
func wrapJSONStringLiteral(definition []byte) []byte {
	trimmed := trimLeadingSpace(definition)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return definition
	}
	wrapped := make([]byte, 0, len(trimmed)+len(`{ "type":  }`))
	wrapped = append(wrapped, []byte(`{ "type": `)...)
	wrapped = append(wrapped, trimmed...)
	wrapped = append(wrapped, []byte(` }`)...)
	return wrapped
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	return b[i:]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
