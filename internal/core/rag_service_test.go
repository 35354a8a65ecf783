package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/vectorstore"
)

func TestSourcePages(t *testing.T) {
	matches := []vectorstore.Match{
		{Page: 4},
		{Page: 2},
		{Page: 0},
		{Page: 2},
	}
	assert.Equal(t, []int{1, 3, 5}, SourcePages(matches))
	assert.Equal(t, []int{}, SourcePages(nil))
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No previous conversation.", FormatHistory(nil))

	msgs := []store.Message{
		{Role: store.RoleUser, Content: "hi"},
		{Role: store.RoleAssistant, Content: "hello"},
	}
	assert.Equal(t, "User: hi\nAssistant: hello", FormatHistory(msgs))

	var long []store.Message
	for i := 0; i < 14; i++ {
		long = append(long, store.Message{Role: store.RoleUser, Content: fmt.Sprintf("q%d", i)})
	}
	out := FormatHistory(long)
	assert.NotContains(t, out, "User: q3\n")
	assert.Contains(t, out, "User: q4")
	assert.Contains(t, out, "User: q13")
}

func TestRAGService_UnknownTemplateFallsBackToDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	chat := env.newChat(t, "alice")
	_, err := env.chats.Upload(ctx, chat.ID, Source{Name: "lease.txt", Text: leaseText})
	require.NoError(t, err)

	rag := NewRAGService(env.embedder, env.gen, env.vectors, 0, logging.Discard())
	ans, err := rag.Answer(ctx, AnswerRequest{Query: "term?", Namespace: chat.ID, TemplateID: "retired_template"})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ans.Sources)
	assert.Contains(t, env.gen.systems[0], "You are LegalEagle")
}

func TestRAGService_EmbeddingFailure(t *testing.T) {
	env := newTestEnv(t)
	env.embedder.err = errors.New("embedding quota")

	rag := NewRAGService(env.embedder, env.gen, env.vectors, 0, logging.Discard())
	_, err := rag.Answer(context.Background(), AnswerRequest{Query: "q", Namespace: "ns"})
	var rerr *RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "embed query", rerr.Stage)
	assert.Zero(t, env.gen.Calls())
}

func TestRAGService_NamespaceIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.newChat(t, "alice")
	b := env.newChat(t, "bob")
	_, err := env.chats.Upload(ctx, a.ID, Source{Name: "lease.txt", Text: leaseText})
	require.NoError(t, err)

	res, err := env.chats.Search(ctx, b.ID, leaseText, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}
