package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/utils"
)

type fakePoint struct {
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

type fakeFilter struct {
	Must []struct {
		Key   string `json:"key"`
		Match struct {
			Value string   `json:"value"`
			Any   []string `json:"any"`
		} `json:"match"`
	} `json:"must"`
}

func (f *fakeFilter) matches(p fakePoint) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Must {
		v, _ := p.Payload[c.Key].(string)
		if c.Match.Any != nil {
			found := false
			for _, a := range c.Match.Any {
				found = found || a == v
			}
			if !found {
				return false
			}
			continue
		}
		if v != c.Match.Value {
			return false
		}
	}
	return true
}

// fakeQdrant implements the subset of the Qdrant REST API the store uses.
type fakeQdrant struct {
	mu         sync.Mutex
	srv        *httptest.Server
	created    bool
	points     map[string]fakePoint
	failUpsert bool
	onUpsert   func()
	deletes    int
	apiKeys    []string
}

func newFakeQdrant(t *testing.T) *fakeQdrant {
	f := &fakeQdrant{points: map[string]fakePoint{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeQdrant) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	path := strings.TrimPrefix(r.URL.Path, "/collections/test")
	reply := func(result any) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result, "status": "ok"})
	}

	switch {
	case path == "" && r.Method == http.MethodGet:
		if !f.created {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		reply(map[string]any{"status": "green"})
	case path == "" && r.Method == http.MethodPut:
		f.created = true
		reply(true)
	case path == "/index":
		reply(map[string]any{"status": "completed"})
	case path == "/points" && r.Method == http.MethodPut:
		if f.onUpsert != nil {
			f.onUpsert()
		}
		if f.failUpsert {
			http.Error(w, "disk full", http.StatusInternalServerError)
			return
		}
		var req struct {
			Points []struct {
				ID string `json:"id"`
				fakePoint
			} `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, p := range req.Points {
			f.points[p.ID] = p.fakePoint
		}
		reply(map[string]any{"status": "completed"})
	case path == "/points/search":
		var req struct {
			Vector []float32   `json:"vector"`
			Limit  int         `json:"limit"`
			Filter *fakeFilter `json:"filter"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		type hit struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		hits := []hit{}
		for _, p := range f.points {
			if !req.Filter.matches(p) {
				continue
			}
			score, _ := utils.CosineSimilarity(req.Vector, p.Vector)
			hits = append(hits, hit{Score: score, Payload: p.Payload})
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
		if len(hits) > req.Limit {
			hits = hits[:req.Limit]
		}
		reply(hits)
	case path == "/points/delete":
		f.deletes++
		var req struct {
			Filter *fakeFilter `json:"filter"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for id, p := range f.points {
			if req.Filter.matches(p) {
				delete(f.points, id)
			}
		}
		reply(map[string]any{"status": "completed"})
	case path == "/points/count":
		var req struct {
			Filter *fakeFilter `json:"filter"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		n := 0
		for _, p := range f.points {
			if req.Filter.matches(p) {
				n++
			}
		}
		reply(map[string]any{"count": n})
	case path == "/points/scroll":
		points := []fakePoint{}
		for _, p := range f.points {
			points = append(points, fakePoint{Payload: p.Payload})
		}
		reply(map[string]any{"points": points, "next_page_offset": nil})
	default:
		http.NotFound(w, r)
	}
}

func TestQdrantStore_InitCreatesCollectionOnce(t *testing.T) {
	fake := newFakeQdrant(t)
	s := NewQdrantStore(QdrantConfig{URL: fake.srv.URL, APIKey: "secret", Collection: "test"}, logging.Discard())
	ctx := context.Background()

	require.NoError(t, s.Init(ctx, 768))
	assert.True(t, fake.created)
	require.NoError(t, s.Init(ctx, 768))

	for _, k := range fake.apiKeys {
		assert.Equal(t, "secret", k)
	}
	assert.Error(t, s.Init(ctx, 0))
}

func TestQdrantStore_FailedUpsertRemovesPartialWrites(t *testing.T) {
	fake := newFakeQdrant(t)
	s := NewQdrantStore(QdrantConfig{URL: fake.srv.URL, Collection: "test"}, logging.Discard())
	ctx := context.Background()
	require.NoError(t, s.Init(ctx, 3))

	require.NoError(t, s.Upsert(ctx, "chat", records("other", []float32{1, 0, 0})))

	fake.failUpsert = true
	err := s.Upsert(ctx, "chat", records("doc", []float32{0, 1, 0}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, fake.deletes)

	st, err := s.Stats(ctx, "chat")
	require.NoError(t, err)
	assert.Equal(t, 1, st.VectorCount, "vectors of other documents survive")
}

func TestQdrantStore_CleanupSurvivesCancelledContext(t *testing.T) {
	fake := newFakeQdrant(t)
	s := NewQdrantStore(QdrantConfig{URL: fake.srv.URL, Collection: "test"}, logging.Discard())
	require.NoError(t, s.Init(context.Background(), 3))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake.failUpsert = true
	fake.onUpsert = cancel

	err := s.Upsert(ctx, "chat", records("doc", []float32{0, 1, 0}))
	require.Error(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.deletes, "delete is sent after the caller gave up")
}

func TestPointID_Deterministic(t *testing.T) {
	assert.Equal(t, pointID("chat", "doc", 1), pointID("chat", "doc", 1))
	assert.NotEqual(t, pointID("chat", "doc", 1), pointID("chat", "doc", 2))
	assert.NotEqual(t, pointID("chat-a", "doc", 1), pointID("chat-b", "doc", 1))
}
