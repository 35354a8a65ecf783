package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"legaleagle.app/api/internal/logging"
)

const (
	defaultChatModelName      = "gemini-1.5-flash-latest"
	defaultEmbeddingModelName = "text-embedding-004"

	// BatchEmbedContents accepts at most 100 requests.
	embedBatchSize = 100
	embedBatchGap  = 200 * time.Millisecond
)

// Embedder maps text to fixed-dimension vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer from a system instruction and a user turn.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type LLMConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Temperature    float32
}

// LLMService is the Gemini implementation of Embedder and Generator.
type LLMService struct {
	client *genai.Client
	cfg    LLMConfig
	log    logging.Logger
}

func NewLLMService(ctx context.Context, cfg LLMConfig, log logging.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaultChatModelName
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModelName
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, cfg: cfg, log: log}, nil
}

func (s *LLMService) Close() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		s.log.Error(context.Background(), "error closing GenAI client", "error", err)
		return
	}
	s.log.Info(context.Background(), "GenAI client closed")
}

// EmbedDocuments embeds texts in batches, pacing consecutive batches to stay
// under the per-minute request quota. Either every text is embedded or an
// error is returned.
func (s *LLMService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	em := s.client.EmbeddingModel(s.cfg.EmbeddingModel)
	em.TaskType = genai.TaskTypeRetrievalDocument

	out := make([][]float32, 0, len(texts))
	ticker := time.NewTicker(embedBatchGap)
	defer ticker.Stop()

	for start := 0; start < len(texts); start += embedBatchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ticker.C:
			}
		}
		end := min(start+embedBatchSize, len(texts))

		batch := em.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini batch embedding request failed: %w", err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(res.Embeddings), end-start)
		}
		for i, e := range res.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, fmt.Errorf("no embedding data received for text %d", start+i)
			}
			out = append(out, e.Values)
		}
		s.log.Debug(ctx, "embedded batch", "from", start, "to", end, "total", len(texts))
	}
	return out, nil
}

func (s *LLMService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	em := s.client.EmbeddingModel(s.cfg.EmbeddingModel)
	em.TaskType = genai.TaskTypeRetrievalQuery
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errors.New("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// Generate makes a single, non-streaming call.
func (s *LLMService) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.cfg.ChatModel)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(system)},
	}
	model.SetTemperature(s.cfg.Temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini response was empty or had no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			s.log.Warn(ctx, "gemini response part was not text", "type", fmt.Sprintf("%T", part))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("gemini returned no text")
	}
	return text.String(), nil
}
