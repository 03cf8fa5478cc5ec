package avro

import (
	"bytes"
	"fmt"

	avrolib "github.com/amient/avro"
)

// codec adapts an avrolib.Schema to goserdes.Codec, driving the datum
// through a *avrolib.GenericRecord on both paths. This is the only
// in-memory representation this bridge supports; a SpecificRecord façade
// would add another codec implementation behind the same interface.
type codec struct {
	schema avrolib.Schema
}

// Encode implements goserdes.Codec. datum must be a *avrolib.GenericRecord
// already bound to a schema compatible with codec's schema; returns the
// raw Avro binary body with no framing.
func (c *codec) Encode(datum interface{}) ([]byte, error) {
	record, ok := datum.(*avrolib.GenericRecord)
	if !ok {
		return nil, fmt.Errorf("avro: Encode expects *avro.GenericRecord, got %T", datum)
	}
	writer := avrolib.NewGenericDatumWriter().SetSchema(record.Schema())
	buf := new(bytes.Buffer)
	if err := writer.Write(record, avrolib.NewBinaryEncoder(buf)); err != nil {
		return nil, fmt.Errorf("failed to write avro value: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode implements goserdes.Codec. datum must be a **avrolib.GenericRecord
// that Decode will populate with a freshly built record bound to codec's
// schema; Decode consumes the entire remainder of src since the Avro
// binary encoding carries no internal length prefix.
func (c *codec) Decode(src []byte, datum interface{}) (int, error) {
	out, ok := datum.(**avrolib.GenericRecord)
	if !ok {
		return 0, fmt.Errorf("avro: Decode expects **avro.GenericRecord, got %T", datum)
	}
	record := avrolib.NewGenericRecord(c.schema)
	reader := avrolib.NewDatumReader(c.schema)
	if err := reader.Read(record, avrolib.NewBinaryDecoder(src)); err != nil {
		return 0, fmt.Errorf("failed to read avro value: %w", err)
	}
	*out = record
	return len(src), nil
}
