package geocode

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// orsStub is a test ORS endpoint that records the queries it receives.
type orsStub struct {
	mu      sync.Mutex
	queries []url.Values
	srv     *httptest.Server
}

// newORSStub starts a server answering /geocode/search with handle.
func newORSStub(t *testing.T, handle func(w http.ResponseWriter, q url.Values)) *orsStub {
	t.Helper()
	s := &orsStub{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != orsSearchPath {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		s.mu.Lock()
		s.queries = append(s.queries, q)
		s.mu.Unlock()
		handle(w, q)
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *orsStub) calls() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

// writeJSON writes body as a geo+json response.
func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = io.WriteString(w, body)
}

const parisFeatureCollection = `{
	"type": "FeatureCollection",
	"geocoding": {"version": "0.2"},
	"features": [{
		"type": "Feature",
		"geometry": {"type": "Point", "coordinates": [2.3522, 48.8566]},
		"properties": {"label": "Paris, France", "confidence": 1}
	}],
	"bbox": [2.2241, 48.8156, 2.4699, 48.9022]
}`

const emptyFeatureCollection = `{"type": "FeatureCollection", "features": []}`
