package goserdes

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// definitionKey indexes the byDefinition map. The digest is only a fast
// lookup accelerant; a digest hit is still cross-checked with a byte-exact
// comparison against the candidate entry's stored definition before it is
// treated as a match, preserving raw-byte-equality semantics with no
// canonicalization.
type definitionKey struct {
	typ    string
	digest [32]byte
}

func newDefinitionKey(typ string, definition []byte) definitionKey {
	return definitionKey{typ: typ, digest: sha256.Sum256(definition)}
}

// cache is the per-handle set of resolved schema entries. A single
// RWMutex protects the indices; fetch/store/load happen without holding
// it, coordinated instead by a singleflight.Group keyed by id or name so
// concurrent callers asking for the same unresolved schema share one
// registry round trip instead of racing duplicate ones.
type cache struct {
	h *Handle

	mu         sync.RWMutex
	byID       map[int32]*Schema
	byDefinition map[definitionKey]*Schema

	inflight singleflight.Group
}

func newCache(h *Handle) *cache {
	return &cache{
		h:            h,
		byID:         make(map[int32]*Schema),
		byDefinition: make(map[definitionKey]*Schema),
	}
}

func (c *cache) findByID(id int32) *Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byID[id]
}

func (c *cache) findByDefinition(typ string, definition []byte) *Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byDefinition[newDefinitionKey(typ, definition)]
	if !ok {
		return nil
	}
	if !bytes.Equal(s.definition, definition) || s.typ != typ {
		// Digest collision across genuinely different bytes: treat as a
		// miss rather than ever returning the wrong entry.
		return nil
	}
	return s
}

func (c *cache) link(s *Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[s.id] = s
	c.byDefinition[newDefinitionKey(s.typ, s.definition)] = s
	if c.h.metrics != nil {
		c.h.metrics.cacheEntries.Set(float64(len(c.byID)))
	}
}

func (c *cache) unlink(s *Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, s.id)
	delete(c.byDefinition, newDefinitionKey(s.typ, s.definition))
	if c.h.metrics != nil {
		c.h.metrics.cacheEntries.Set(float64(len(c.byID)))
	}
}

func (c *cache) snapshot() []*Schema {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Schema, 0, len(c.byID))
	for _, s := range c.byID {
		out = append(out, s)
	}
	return out
}

// Get returns the schema identified by name and/or id (at least one must
// be given), resolving it from the registry if it isn't already cached.
func (c *cache) Get(ctx context.Context, name string, id int32) (*Schema, error) {
	if name == "" && id == -1 {
		return nil, newErr(ErrSchemaLoad, "schema name or id required")
	}

	if id != -1 {
		if s := c.findByID(id); s != nil {
			s.touch(now())
			if c.h.metrics != nil {
				c.h.metrics.cacheHits.WithLabelValues("id").Inc()
			}
			return s, nil
		}
	}
	if c.h.metrics != nil {
		c.h.metrics.cacheMisses.WithLabelValues("id").Inc()
	}

	key := fetchKey(name, id)
	v, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		// Re-check after winning the singleflight race: another
		// in-flight caller for a *different* key may have just
		// resolved this exact id.
		if id != -1 {
			if s := c.findByID(id); s != nil {
				return s, nil
			}
		}
		s := &Schema{handle: c.h, id: id, name: name}
		if err := c.fetch(ctx, s); err != nil {
			return nil, err
		}
		c.link(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Schema)
	s.touch(now())
	return s, nil
}

// Add registers definition under name (creating a registry subject entry
// if id is unassigned) or links an already-assigned id/definition pair.
// If an entry with the identical (definition, type) already exists it is
// returned unchanged and no registry traffic occurs.
func (c *cache) Add(ctx context.Context, name string, id int32, typ string, definition []byte) (*Schema, error) {
	if definition != nil {
		if s := c.findByDefinition(typ, definition); s != nil {
			s.touch(now())
			if c.h.metrics != nil {
				c.h.metrics.cacheHits.WithLabelValues("definition").Inc()
			}
			return s, nil
		}
	}
	if c.h.metrics != nil {
		c.h.metrics.cacheMisses.WithLabelValues("definition").Inc()
	}

	if id == -1 && name == "" {
		return nil, newErr(ErrSchemaLoad, "schema name or id required")
	}

	key := fetchKey(name, id)
	v, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		if definition != nil {
			if s := c.findByDefinition(typ, definition); s != nil {
				return s, nil
			}
		}

		s := &Schema{handle: c.h, id: id, name: name, typ: typ}

		if definition == nil {
			if err := c.fetch(ctx, s); err != nil {
				return nil, err
			}
			c.link(s)
			return s, nil
		}

		if name == "" {
			return nil, newErr(ErrSchemaLoad, "schema name required")
		}

		if err := c.load(s, definition); err != nil {
			return nil, err
		}

		if s.id == -1 {
			if err := c.store(ctx, s); err != nil {
				return nil, err
			}
		}

		c.link(s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	s := v.(*Schema)
	s.touch(now())
	return s, nil
}

func fetchKey(name string, id int32) string {
	return fmt.Sprintf("%s#%d", name, id)
}

// load drives the bridge's Load callback, applying the JSON string
// literal wrapping workaround first, and sets the entry's definition on
// success.
func (c *cache) load(s *Schema, definition []byte) error {
	wrapped := wrapJSONStringLiteral(definition)

	c.h.log(7, "SCHEMA_LOAD", "received schema %s (%d) definition: %s", s.name, s.id, string(wrapped))

	codec, err := c.h.bridge.Load(s, wrapped)
	if err != nil {
		c.h.log(3, "SCHEMA_LOAD", "schema load of %s failed: %s", s.name, err)
		return newErr(ErrSchemaLoad, "%s", err)
	}
	s.codec = codec
	s.definition = append([]byte(nil), definition...)
	if s.typ == "" {
		s.typ = "AVRO"
	}
	return nil
}

// store POSTs definition to the registry and assigns the returned id.
func (c *cache) store(ctx context.Context, s *Schema) error {
	if c.h.rest == nil {
		return newErr(ErrSchemaLoad, "unable to store schema %s at registry: no schema.registry.url configured", s.name)
	}

	envelope := map[string]string{"schema": string(s.definition)}
	if s.typ != "" && s.typ != "AVRO" {
		envelope["schemaType"] = s.typ
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return newErr(ErrSchemaLoad, "failed to encode schema envelope: %s", err)
	}

	rr := c.h.rest.post(ctx, "/subjects/"+pathEscape(s.name)+"/versions", body)
	if rr.failed() {
		return newErr(ErrSchemaLoad, "%s", rr.strerror())
	}

	var resp struct {
		ID *int32 `json:"id"`
	}
	if err := json.Unmarshal(rr.Body, &resp); err != nil {
		return newErr(ErrSchemaLoad, "failed to read schema id: %s", err)
	}
	if resp.ID == nil {
		return newErr(ErrSchemaLoad, "no \"id\" int field in schema POST response")
	}

	s.id = *resp.ID
	return nil
}

// fetch resolves a schema's definition (and, for an id-less stub, its id)
// from the registry and drives the bridge's Load callback against the
// result.
func (c *cache) fetch(ctx context.Context, s *Schema) error {
	if c.h.rest == nil {
		return newErr(ErrSchemaLoad, "unable to load schema %d from registry: no schema.registry.url configured", s.id)
	}

	var rr *restResponse
	if s.id != -1 {
		rr = c.h.rest.get(ctx, "/schemas/ids/"+strconv.Itoa(int(s.id)))
	} else {
		rr = c.h.rest.get(ctx, "/subjects/"+pathEscape(s.name)+"/versions/latest")
	}
	if rr.failed() {
		return newErr(ErrSchemaLoad, "%s", rr.strerror())
	}

	var envelope struct {
		ID         *int32  `json:"id"`
		Schema     *string `json:"schema"`
		SchemaType *string `json:"schemaType"`
	}
	if err := json.Unmarshal(rr.Body, &envelope); err != nil {
		return newErr(ErrSchemaLoad, "failed to read schema envelope: %s", err)
	}
	if envelope.Schema == nil {
		return newErr(ErrSchemaLoad, "no \"schema\" string field in schema %d envelope", s.id)
	}

	if s.id == -1 {
		if envelope.ID == nil {
			return newErr(ErrSchemaLoad, "no \"id\" int field in subject %q envelope", s.name)
		}
		s.id = *envelope.ID
	}

	if envelope.SchemaType != nil {
		s.typ = upper(*envelope.SchemaType)
	} else {
		s.typ = "AVRO"
	}

	if err := c.load(s, []byte(*envelope.Schema)); err != nil {
		return err
	}

	c.h.log(7, "SCHEMA_FETCH", "successfully fetched schema %s id %d", orUnknown(s.name), s.id)
	return nil
}

// purge removes entries whose last use is at or before now-maxAge,
// returning the count removed.
func (c *cache) purge(maxAge time.Duration) int {
	expiry := now() - int64(maxAge/time.Second)

	c.mu.Lock()
	var stale []*Schema
	for _, s := range c.byID {
		if s.lastUsedAt() <= expiry {
			stale = append(stale, s)
		}
	}
	for _, s := range stale {
		delete(c.byID, s.id)
		delete(c.byDefinition, newDefinitionKey(s.typ, s.definition))
	}
	if c.h.metrics != nil {
		c.h.metrics.cacheEntries.Set(float64(len(c.byID)))
	}
	c.mu.Unlock()

	for _, s := range stale {
		c.unloadOne(s)
	}
	if c.h.metrics != nil && len(stale) > 0 {
		c.h.metrics.schemasPurged.Add(float64(len(stale)))
	}
	return len(stale)
}

// destroyAll unlinks and unloads every cached entry; used by Handle.Close.
func (c *cache) destroyAll() {
	entries := c.snapshot()
	for _, s := range entries {
		c.unlink(s)
		c.unloadOne(s)
	}
}

func (c *cache) unloadOne(s *Schema) {
	if s.codec != nil {
		c.h.bridge.Unload(s, s.codec)
	}
}

func now() int64 { return time.Now().Unix() }

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown-name)"
	}
	return s
}

func pathEscape(s string) string {
	var buf bytes.Buffer
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			buf.WriteByte(c)
		} else {
			fmt.Fprintf(&buf, "%%%02X", c)
		}
	}
	return buf.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	default:
		return false
	}
}
