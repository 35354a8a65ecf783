package core

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"legaleagle.app/api/internal/entitlement"
	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/splitter"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/vectorstore"
)

// letterEmbedder embeds text as its letter histogram plus a constant bias
// dimension, which is enough for lexical ranking in tests.
type letterEmbedder struct {
	mu    sync.Mutex
	err   error
	calls int
}

func letterVector(text string) []float32 {
	v := make([]float32, 27)
	v[26] = 1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (e *letterEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = letterVector(t)
	}
	return out, nil
}

func (e *letterEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return letterVector(text), nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	systems []string
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.systems = append(g.systems, system)
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

// flakyVectors fails namespace deletes on demand.
type flakyVectors struct {
	vectorstore.Store
	deleteErr error
}

func (f *flakyVectors) Delete(ctx context.Context, namespace string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, namespace)
}

type recordingArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (a *recordingArchive) Put(_ context.Context, key string, body []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = body
	return nil
}

func (a *recordingArchive) DeletePrefix(_ context.Context, prefix string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k := range a.objects {
		if strings.HasPrefix(k, prefix) {
			delete(a.objects, k)
		}
	}
	return nil
}

type testEnv struct {
	db       *store.SQLiteStore
	vectors  *flakyVectors
	embedder *letterEmbedder
	gen      *fakeGenerator
	archive  *recordingArchive
	chats    *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()

	db, err := store.NewSQLiteStore(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	vs, err := vectorstore.NewSQLiteStore(ctx, db.DB(), log)
	require.NoError(t, err)

	sp, err := splitter.New(1000, 200)
	require.NoError(t, err)

	env := &testEnv{
		db:       db,
		vectors:  &flakyVectors{Store: vs},
		embedder: &letterEmbedder{},
		gen:      &fakeGenerator{answer: "The lease runs for twelve months."},
		archive:  &recordingArchive{objects: map[string][]byte{}},
	}
	ingest := NewIngestService(sp, env.embedder, env.vectors, 0, log)
	rag := NewRAGService(env.embedder, env.gen, env.vectors, DefaultTopK, log)
	quota := entitlement.NewEngine(db, entitlement.DefaultLimits())
	env.chats = NewChatService(db, env.vectors, quota, ingest, rag, env.archive, log)
	return env
}

func (e *testEnv) newChat(t *testing.T, userID string) *store.Chat {
	t.Helper()
	chat, err := e.chats.CreateChat(context.Background(), CreateChatInput{UserID: userID})
	require.NoError(t, err)
	return chat
}

func (e *testEnv) upgrade(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	_, err := e.db.GetOrCreateUser(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, e.db.UpgradeToPremium(ctx, userID))
}
