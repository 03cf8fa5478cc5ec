package goserdes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// fakeCodec is a trivial Codec: it encodes datum (a string) as its raw
// bytes and decodes by copying src back out, so tests can exercise
// Serialize/Deserialize without a real record-schema library.
type fakeCodec struct{}

func (fakeCodec) Encode(datum interface{}) ([]byte, error) {
	s, ok := datum.(string)
	if !ok {
		return nil, fmt.Errorf("fakeCodec: expected string, got %T", datum)
	}
	return []byte(s), nil
}

func (fakeCodec) Decode(src []byte, datum interface{}) (int, error) {
	out, ok := datum.(*string)
	if !ok {
		return 0, fmt.Errorf("fakeCodec: expected *string, got %T", datum)
	}
	*out = string(src)
	return len(src), nil
}

// fakeBridge counts Load/Unload invocations and optionally fails Load.
type fakeBridge struct {
	loads      atomic.Int32
	unloads    atomic.Int32
	failLoad   bool
	loadErrMsg string
}

func (b *fakeBridge) Load(entry *Schema, definition []byte) (interface{}, error) {
	b.loads.Add(1)
	if b.failLoad {
		return nil, fmt.Errorf("%s", b.loadErrMsg)
	}
	return fakeCodec{}, nil
}

func (b *fakeBridge) Unload(entry *Schema, codec interface{}) {
	b.unloads.Add(1)
}

// fakeRegistry is a minimal in-memory schema-registry double served over
// HTTP, just enough to drive the cache's fetch/store paths in tests.
type fakeRegistry struct {
	*httptest.Server

	mu       chan struct{} // binary semaphore
	bySubject map[string]int32
	byID      map[int32]string
	nextID    int32
	hits      atomic.Int32
}

func newFakeRegistry() *fakeRegistry {
	r := &fakeRegistry{
		mu:        make(chan struct{}, 1),
		bySubject: make(map[string]int32),
		byID:      make(map[int32]string),
		nextID:    1,
	}
	r.mu <- struct{}{}
	mux := http.NewServeMux()
	mux.HandleFunc("/subjects/", r.handleSubjects)
	mux.HandleFunc("/schemas/ids/", r.handleByID)
	r.Server = httptest.NewServer(mux)
	return r
}

func (r *fakeRegistry) lock()   { <-r.mu }
func (r *fakeRegistry) unlock() { r.mu <- struct{}{} }

func (r *fakeRegistry) handleSubjects(w http.ResponseWriter, req *http.Request) {
	r.hits.Add(1)
	path := req.URL.Path
	switch {
	case req.Method == http.MethodPost:
		var body struct {
			Schema string `json:"schema"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		subject := path[len("/subjects/") : len(path)-len("/versions")]

		r.lock()
		id, ok := r.bySubject[subject]
		if !ok {
			id = r.nextID
			r.nextID++
			r.bySubject[subject] = id
			r.byID[id] = body.Schema
		}
		r.unlock()

		writeJSON(w, 200, map[string]interface{}{"id": id})

	case req.Method == http.MethodGet:
		subject := path[len("/subjects/") : len(path)-len("/versions/latest")]
		r.lock()
		id, ok := r.bySubject[subject]
		r.unlock()
		if !ok {
			writeJSON(w, 404, map[string]interface{}{"error_code": 40401, "message": "subject not found"})
			return
		}
		r.lock()
		def := r.byID[id]
		r.unlock()
		writeJSON(w, 200, map[string]interface{}{"id": id, "schema": def})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (r *fakeRegistry) handleByID(w http.ResponseWriter, req *http.Request) {
	r.hits.Add(1)
	var id int32
	fmt.Sscanf(req.URL.Path, "/schemas/ids/%d", &id)
	r.lock()
	def, ok := r.byID[id]
	r.unlock()
	if !ok {
		writeJSON(w, 404, map[string]interface{}{"error_code": 40403, "message": "schema not found"})
		return
	}
	writeJSON(w, 200, map[string]interface{}{"schema": def})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", registryContentType)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestHandle(t interface{ Fatalf(string, ...interface{}) }, registryURL string, bridge Bridge) *Handle {
	conf := NewConf()
	if registryURL != "" {
		if err := conf.Set("schema.registry.url", registryURL); err != nil {
			t.Fatalf("conf.Set: %v", err)
		}
	}
	conf.SetBridge(bridge)
	h, err := New(conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}
