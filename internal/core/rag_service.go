package core

import (
	"context"
	"errors"
	"sort"
	"strings"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/prompts"
	"legaleagle.app/api/internal/store"
	"legaleagle.app/api/internal/vectorstore"
)

const (
	DefaultTopK     = 5
	MaxHistoryTurns = 10

	NoDocumentsAnswer = "I don't have any documents to reference yet. Please upload a document first."
	noHistoryMarker   = "No previous conversation."
)

type AnswerRequest struct {
	Query      string
	Namespace  string
	TemplateID string
	History    []store.Message
}

type Answer struct {
	Text    string
	Sources []int // 1-indexed pages, ascending, no duplicates
}

// SearchResult is one similarity search hit. Page is 1-indexed.
type SearchResult struct {
	Content    string  `json:"content"`
	Page       int     `json:"page"`
	Source     string  `json:"source"`
	DocumentID string  `json:"document_id"`
	Score      float32 `json:"score"`
}

// RAGService answers questions from the chunks of a single namespace.
type RAGService struct {
	embedder  Embedder
	generator Generator
	vectors   vectorstore.Store
	topK      int
	log       logging.Logger
}

func NewRAGService(e Embedder, g Generator, vs vectorstore.Store, topK int, log logging.Logger) *RAGService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RAGService{embedder: e, generator: g, vectors: vs, topK: topK, log: log}
}

// Answer runs retrieval and a single generation call. An empty namespace is
// not an error: it yields NoDocumentsAnswer without calling the LLM. Any
// other failure is a *RetrievalError.
func (s *RAGService) Answer(ctx context.Context, req AnswerRequest) (*Answer, error) {
	tmpl := prompts.Select(req.TemplateID)
	history := FormatHistory(req.History)

	vec, err := s.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		return nil, &RetrievalError{Stage: "embed query", Err: err}
	}

	matches, err := s.vectors.Query(ctx, req.Namespace, vec, s.topK)
	if errors.Is(err, vectorstore.ErrNamespaceEmpty) {
		s.log.Info(ctx, "no documents in namespace", "namespace", req.Namespace)
		return &Answer{Text: NoDocumentsAnswer, Sources: []int{}}, nil
	}
	if err != nil {
		return nil, &RetrievalError{Stage: "search namespace", Err: err}
	}

	contexts := make([]string, len(matches))
	for i, m := range matches {
		contexts[i] = m.Content
	}
	system := tmpl.Render(strings.Join(contexts, "\n\n"), history)

	text, err := s.generator.Generate(ctx, system, req.Query)
	if err != nil {
		return nil, &RetrievalError{Stage: "generate answer", Err: err}
	}

	s.log.Debug(ctx, "answer generated",
		"namespace", req.Namespace, "template", tmpl.ID, "chunks", len(matches))
	return &Answer{Text: text, Sources: SourcePages(matches)}, nil
}

// SimilaritySearch returns the raw top-k chunks without generation. An
// empty namespace yields no results.
func (s *RAGService) SimilaritySearch(ctx context.Context, query, namespace string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = s.topK
	}
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Stage: "embed query", Err: err}
	}
	matches, err := s.vectors.Query(ctx, namespace, vec, k)
	if errors.Is(err, vectorstore.ErrNamespaceEmpty) {
		return []SearchResult{}, nil
	}
	if err != nil {
		return nil, &RetrievalError{Stage: "search namespace", Err: err}
	}

	out := make([]SearchResult, len(matches))
	for i, m := range matches {
		out[i] = SearchResult{
			Content:    m.Content,
			Page:       m.Page + 1,
			Source:     m.Source,
			DocumentID: m.DocumentID,
			Score:      m.Score,
		}
	}
	return out, nil
}

// SourcePages converts the 0-based pages of the matches to 1-indexed,
// deduplicated, ascending page numbers.
func SourcePages(matches []vectorstore.Match) []int {
	seen := map[int]bool{}
	pages := []int{}
	for _, m := range matches {
		p := m.Page + 1
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}

// FormatHistory renders the last MaxHistoryTurns messages as a transcript.
func FormatHistory(msgs []store.Message) string {
	if len(msgs) > MaxHistoryTurns {
		msgs = msgs[len(msgs)-MaxHistoryTurns:]
	}
	if len(msgs) == 0 {
		return noHistoryMarker
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case store.RoleUser:
			lines = append(lines, "User: "+m.Content)
		case store.RoleAssistant:
			lines = append(lines, "Assistant: "+m.Content)
		}
	}
	return strings.Join(lines, "\n")
}
