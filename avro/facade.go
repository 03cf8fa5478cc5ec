package avro

import (
	"context"
	"fmt"

	avrolib "github.com/amient/avro"

	"github.com/amient/goserdes"
)

// Serializer is the typed façade over a *goserdes.Handle for Avro
// GenericRecords: it validates that the record being encoded carries (or
// registers) the schema for the target subject, then drives the generic
// core's framing + codec pipeline.
type Serializer struct {
	Handle *goserdes.Handle
}

// NewSerializer builds a Serializer from conf, installing this package's
// Bridge on conf and replacing any bridge already set there.
func NewSerializer(conf *goserdes.Conf) (*Serializer, error) {
	if conf == nil {
		conf = goserdes.NewConf()
	}
	conf.SetBridge(&Bridge{})
	h, err := goserdes.New(conf)
	if err != nil {
		return nil, err
	}
	return &Serializer{Handle: h}, nil
}

// Encode registers record's schema under subject (deduplicating against
// an already-registered identical definition) and returns the framed,
// encoded payload ready to put on the wire.
func (s *Serializer) Encode(ctx context.Context, subject string, record *avrolib.GenericRecord) ([]byte, error) {
	if record == nil || record.Schema() == nil {
		return nil, fmt.Errorf("avro: record has no schema")
	}
	definition := []byte(record.Schema().String())
	schema, err := s.Handle.Add(ctx, subject, -1, "AVRO", definition)
	if err != nil {
		return nil, err
	}
	return s.Handle.Serialize(schema, record, nil)
}

// Deserializer is the typed façade's read side: it resolves the schema
// carried by the payload's framing and hands back a fully decoded
// GenericRecord.
type Deserializer struct {
	Handle *goserdes.Handle
}

// NewDeserializer builds a Deserializer from conf, installing this
// package's Bridge on conf and replacing any bridge already set there.
func NewDeserializer(conf *goserdes.Conf) (*Deserializer, error) {
	if conf == nil {
		conf = goserdes.NewConf()
	}
	conf.SetBridge(&Bridge{})
	h, err := goserdes.New(conf)
	if err != nil {
		return nil, err
	}
	return &Deserializer{Handle: h}, nil
}

// Decode resolves payload's schema by its framed id and decodes it into a
// new GenericRecord.
func (d *Deserializer) Decode(ctx context.Context, payload []byte) (*avrolib.GenericRecord, *goserdes.Schema, error) {
	var record *avrolib.GenericRecord
	schema, _, err := d.Handle.Deserialize(ctx, payload, nil, &record)
	if err != nil {
		return nil, nil, err
	}
	return record, schema, nil
}
