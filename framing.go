package goserdes

import "encoding/binary"

// cp1FramingSize is the magic byte plus the 32-bit schema id.
const cp1FramingSize = 5

// Framing selects how Serialize/Deserialize binds a payload to a schema
// identifier on the wire.
type Framing int

const (
	FramingNone Framing = iota
	FramingCP1
)

func parseFraming(val string) (Framing, error) {
	switch val {
	case "none":
		return FramingNone, nil
	case "cp1":
		return FramingCP1, nil
	default:
		return 0, newErr(ErrConfInvalid, "invalid framing %q, allowed values: cp1, none", val)
	}
}

func framingSize(f Framing) int {
	switch f {
	case FramingCP1:
		return cp1FramingSize
	default:
		return 0
	}
}

// writeFraming writes the 5-byte CP1 header (0x00 followed by the
// big-endian schema id) into dst, returning the number of bytes written.
// dst must have at least 5 bytes of room.
func writeFraming(f Framing, dst []byte, id int32) (int, error) {
	switch f {
	case FramingNone:
		return 0, nil
	case FramingCP1:
		if len(dst) < cp1FramingSize {
			return 0, newErr(ErrBufferSize, "not enough space for framing: need %d, have %d", cp1FramingSize, len(dst))
		}
		dst[0] = 0
		binary.BigEndian.PutUint32(dst[1:5], uint32(id))
		return cp1FramingSize, nil
	default:
		return 0, newErr(ErrFramingInvalid, "unsupported framing type %d", f)
	}
}

// readFraming reads the CP1 header from payload, returning the decoded
// schema id and the number of header bytes consumed. When f is
// FramingNone it returns (0, 0, nil) without touching payload.
func readFraming(f Framing, payload []byte) (id int32, n int, err error) {
	switch f {
	case FramingNone:
		return 0, 0, nil
	case FramingCP1:
		if len(payload) < cp1FramingSize {
			return 0, 0, newErr(ErrFramingInvalid, "payload is smaller (%d) than framing (%d)", len(payload), cp1FramingSize)
		}
		if payload[0] != 0 {
			return 0, 0, newErr(ErrFramingInvalid, "invalid CP1 magic byte %d, expected 0", payload[0])
		}
		return int32(binary.BigEndian.Uint32(payload[1:5])), cp1FramingSize, nil
	default:
		return 0, 0, newErr(ErrFramingInvalid, "unsupported framing type %d", f)
	}
}
