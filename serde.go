package goserdes

import "context"

// Serialize encodes datum against schema's codec object, prepending the
// configured serializer framing. If buf is non-nil it is used as the
// destination and ErrBufferSize is returned if it is too small; otherwise
// a new buffer is allocated and returned.
func (h *Handle) Serialize(schema *Schema, datum interface{}, buf []byte) ([]byte, error) {
	codec, ok := schema.codec.(Codec)
	if !ok {
		return nil, newErr(ErrSerializer, "codec object for schema %d does not support encoding", schema.id)
	}

	body, err := codec.Encode(datum)
	if err != nil {
		return nil, newErr(ErrSerializer, "%s", err)
	}

	frameSize := framingSize(h.conf.serializerFraming)
	total := frameSize + len(body)

	var payload []byte
	if buf != nil {
		if len(buf) < total {
			return nil, newErr(ErrBufferSize, "provided buffer size %d < required buffer size %d", len(buf), total)
		}
		payload = buf[:total]
	} else {
		payload = make([]byte, total)
	}

	of, err := writeFraming(h.conf.serializerFraming, payload, schema.id)
	if err != nil {
		return nil, err
	}

	copy(payload[of:], body)

	return payload, nil
}

// Deserialize reads the configured deserializer framing from payload. If
// framing is present, the schema is resolved (or fetched) by the decoded
// id and the schema parameter may be nil; if framing is FramingNone,
// schema must be supplied by the caller or ErrSchemaRequired is returned.
// It returns the resolved schema and the number of payload bytes consumed,
// framing header included.
func (h *Handle) Deserialize(ctx context.Context, payload []byte, schema *Schema, datum interface{}) (*Schema, int, error) {
	id, n, err := readFraming(h.conf.deserializerFraming, payload)
	if err != nil {
		return nil, 0, newErr(ErrPayloadInvalid, "%s", err)
	}

	if h.conf.deserializerFraming == FramingNone {
		if schema == nil {
			return nil, 0, newErr(ErrSchemaRequired, "deserializer.framing not configured and no schema supplied")
		}
	} else {
		schema, err = h.cache.Get(ctx, "", id)
		if err != nil {
			return nil, 0, err
		}
	}

	codec, ok := schema.codec.(Codec)
	if !ok {
		return nil, 0, newErr(ErrSerializer, "codec object for schema %d does not support decoding", schema.id)
	}

	consumed, err := codec.Decode(payload[n:], datum)
	if err != nil {
		return nil, 0, newErr(ErrPayloadInvalid, "%s", err)
	}

	return schema, n + consumed, nil
}
