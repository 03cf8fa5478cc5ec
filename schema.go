package goserdes

import "sync"

// Schema is one cached schema entry. Only RESOLVED entries (id, type and
// definition all present, codec loaded) are ever handed back to callers;
// the NEW/STUB/DEFINED states exist only transiently inside Add/Get.
type Schema struct {
	handle *Handle

	// Immutable once resolved; only lastUsed mutates after that point.
	id         int32
	name       string
	typ        string
	definition []byte
	codec      interface{}

	mu       sync.Mutex
	lastUsed int64 // unix seconds, guarded by mu
}

// ID returns the schema's registry id, or -1 if unassigned.
func (s *Schema) ID() int32 { return s.id }

// Name returns the subject name, or "" if not known.
func (s *Schema) Name() string { return s.name }

// Type returns the schema type tag, e.g. "AVRO".
func (s *Schema) Type() string { return s.typ }

// Definition returns the raw on-wire schema definition bytes.
func (s *Schema) Definition() []byte { return s.definition }

// Object returns the opaque codec object produced by the bridge's Load
// callback.
func (s *Schema) Object() interface{} { return s.codec }

// Handle returns the owning handle.
func (s *Schema) Handle() *Handle { return s.handle }

func (s *Schema) touch(now int64) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Schema) lastUsedAt() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
