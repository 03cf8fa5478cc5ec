package goserdes

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Conf is an immutable-once-consumed snapshot of handle tunables, built up
// incrementally via Set and the typed setters. New() takes a deep copy, so
// a Conf may be reused (with further Set calls) to build a second handle.
type Conf struct {
	registryURLs string

	serializerFraming   Framing
	deserializerFraming Framing
	debug               bool

	credentialsFromURL bool
	requestTimeout      time.Duration

	logCallback LogCallback
	bridge      Bridge
	opaque      interface{}
	registerer  prometheus.Registerer
	tracer      trace.TracerProvider
}

// NewConf returns a configuration with the same defaults as the original
// library: CP1 framing in both directions, debug off, credentials parsed
// out of registry URLs.
func NewConf() *Conf {
	return &Conf{
		serializerFraming:   FramingCP1,
		deserializerFraming: FramingCP1,
		credentialsFromURL:  true,
	}
}

// Set applies one of the fixed, enumerated configuration keys handled in
// the switch below. Unknown keys return ErrConfUnknown;
// recognized keys with an invalid value return ErrConfInvalid.
func (c *Conf) Set(name, value string) error {
	switch name {
	case "schema.registry.url":
		c.registryURLs = value
		// Checked here against whatever credentials-source value is
		// current so far (an empty or otherwise invalid list is rejected),
		// and re-validated at New() time against the final
		// credentials-source setting. The value is stored even when this
		// early check fails.
		if _, err := parseURLs(value, c.credentialsFromURL); err != nil {
			return err
		}
		return nil

	case "serializer.framing":
		f, err := parseFraming(value)
		if err != nil {
			return err
		}
		c.serializerFraming = f
		return nil

	case "deserializer.framing":
		f, err := parseFraming(value)
		if err != nil {
			return err
		}
		c.deserializerFraming = f
		return nil

	case "debug":
		switch value {
		case "all":
			c.debug = true
		case "", "none":
			c.debug = false
		default:
			return newErr(ErrConfInvalid, "invalid value for debug, allowed values: all, none")
		}
		return nil

	case "schema.registry.basic.auth.credentials.source":
		switch value {
		case "url":
			c.credentialsFromURL = true
		case "none":
			c.credentialsFromURL = false
		default:
			return newErr(ErrConfInvalid, "invalid value for schema.registry.basic.auth.credentials.source, allowed values: url, none")
		}
		return nil

	case "schema.registry.request.timeout.ms":
		ms, err := parsePositiveInt(value)
		if err != nil {
			return newErr(ErrConfInvalid, "invalid value for schema.registry.request.timeout.ms: %s", value)
		}
		c.requestTimeout = time.Duration(ms) * time.Millisecond
		return nil

	default:
		return newErr(ErrConfUnknown, "unknown configuration property %s", name)
	}
}

func parsePositiveInt(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, newErr(ErrConfInvalid, "empty value")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, newErr(ErrConfInvalid, "not a positive integer: %s", s)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// SetLogCallback installs the sink that receives debug log lines. A
// handle created without one falls back to a zap-backed default.
func (c *Conf) SetLogCallback(cb LogCallback) { c.logCallback = cb }

// SetOpaque stores a user value on the Conf, and handles built from it
// carry a copy. The value is not passed to the bridge or log callbacks,
// and no accessor returns it.
func (c *Conf) SetOpaque(opaque interface{}) { c.opaque = opaque }

// SetBridge installs the load/unload callback pair used to turn schema
// definitions into opaque codec objects. Required unless a default
// bridge is compiled in (see the avro subpackage).
func (c *Conf) SetBridge(b Bridge) { c.bridge = b }

// SetMetricsRegisterer installs a Prometheus registry for the handle's
// ambient instrumentation. Optional; a handle without one still records
// against unregistered collectors.
func (c *Conf) SetMetricsRegisterer(reg prometheus.Registerer) { c.registerer = reg }

// SetTracerProvider installs the OpenTelemetry tracer provider used for
// spans around registry calls. Optional; defaults to the global provider.
func (c *Conf) SetTracerProvider(tp trace.TracerProvider) { c.tracer = tp }

func (c *Conf) clone() *Conf {
	clone := *c
	return &clone
}

// Handle is the top-level object owning one schema cache, one registry
// URL ring and one codec bridge. Create with New, release with Close.
type Handle struct {
	conf    *Conf
	ring    *urlRing
	rest    *restClient
	cache   *cache
	bridge  Bridge
	metrics *metrics
	tracer  trace.Tracer
}

// New creates a handle from conf, taking a deep internal copy so the
// caller's Conf remains reusable. If conf has no bridge installed and no
// default bridge is compiled in, New returns ErrNoBridge.
func New(conf *Conf) (*Handle, error) {
	if conf == nil {
		conf = NewConf()
	}
	confCopy := conf.clone()

	bridge := confCopy.bridge
	if bridge == nil {
		bridge = defaultBridge
	}
	if bridge == nil {
		return nil, newErr(ErrNoBridge, "no codec bridge configured and no default bridge compiled in")
	}

	h := &Handle{
		conf:   confCopy,
		bridge: bridge,
	}

	if confCopy.registryURLs != "" {
		ring, err := parseURLs(confCopy.registryURLs, confCopy.credentialsFromURL)
		if err != nil {
			return nil, err
		}
		h.ring = ring
		h.rest = newRESTClient(h, ring, confCopy.requestTimeout)
	}

	h.metrics = newMetrics(confCopy.registerer)
	if confCopy.tracer != nil {
		h.tracer = confCopy.tracer.Tracer(tracerName)
	}
	if confCopy.logCallback == nil {
		confCopy.logCallback = defaultLogCallback()
	}

	h.cache = newCache(h)

	return h, nil
}

// Close walks the schema list, destroying every entry via the bridge's
// Unload callback, then releases the handle. The handle is no longer
// usable afterwards.
func (h *Handle) Close() {
	h.cache.destroyAll()
}

// Purge removes any cached schema not used within maxAge, returning the
// count removed.
func (h *Handle) Purge(maxAge time.Duration) int {
	return h.cache.purge(maxAge)
}

// Get returns the schema identified by name and/or id (pass "" / -1 for
// the one not being used), fetching it from the registry if necessary.
func (h *Handle) Get(ctx context.Context, name string, id int32) (*Schema, error) {
	return h.cache.Get(ctx, name, id)
}

// Add registers definition under name, or links an already-assigned
// id/definition pair, returning the resulting cached entry. See cache.Add
// for the full dedup contract.
func (h *Handle) Add(ctx context.Context, name string, id int32, typ string, definition []byte) (*Schema, error) {
	return h.cache.Add(ctx, name, id, typ, definition)
}

// defaultBridge is set by the avro subpackage's init() when imported,
// mirroring the original's compile-time default bridge. Importing only
// the core package without a format subpackage leaves this nil, and New
// requires an explicit bridge in that case.
var defaultBridge Bridge

// RegisterDefaultBridge lets a format subpackage (e.g. avro) install
// itself as the compiled-in default bridge from its own init().
func RegisterDefaultBridge(b Bridge) {
	defaultBridge = b
}
