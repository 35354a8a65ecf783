package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"legaleagle.app/api/internal/logging"
)

// QdrantStore is a minimal REST client to Qdrant. All namespaces share one
// collection and are separated by a keyword payload filter.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
	log        logging.Logger
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

const (
	scrollPageSize = 256
	// cleanupTimeout bounds the compensating delete, which outlives the
	// caller's context.
	cleanupTimeout = 10 * time.Second
)

// pointNamespace seeds deterministic point ids, so re-ingesting a chunk
// overwrites it instead of duplicating it.
var pointNamespace = uuid.MustParse("6f1c1e52-3b0a-4a55-9d0c-2f0c8f7d1a10")

func NewQdrantStore(cfg QdrantConfig, log logging.Logger) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantStore{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Init creates the collection with cosine distance when it does not exist
// yet and indexes the namespace payload field.
func (s *QdrantStore) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}

	status, err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	if status == http.StatusNotFound {
		body := map[string]any{
			"vectors": map[string]any{"size": dimension, "distance": "Cosine"},
		}
		if _, err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
			return err
		}
		s.log.Info(ctx, "qdrant collection created", "collection", s.collection, "dimension", dimension)
	}

	index := map[string]any{"field_name": "namespace", "field_schema": "keyword"}
	_, err = s.do(ctx, http.MethodPut, s.collectionURL("/index?wait=true"), index, nil)
	return err
}

func pointID(namespace, documentID string, index int) string {
	return uuid.NewSHA1(pointNamespace, []byte(namespace+"/"+documentID+"/"+strconv.Itoa(index))).String()
}

func namespaceFilter(namespace string, documentIDs ...string) map[string]any {
	must := []map[string]any{
		{"key": "namespace", "match": map[string]any{"value": namespace}},
	}
	if len(documentIDs) == 1 {
		must = append(must, map[string]any{"key": "document_id", "match": map[string]any{"value": documentIDs[0]}})
	} else if len(documentIDs) > 1 {
		must = append(must, map[string]any{"key": "document_id", "match": map[string]any{"any": documentIDs}})
	}
	return map[string]any{"must": must}
}

func (s *QdrantStore) Upsert(ctx context.Context, namespace string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	docs := map[string]bool{}
	for i, r := range records {
		docs[r.DocumentID] = true
		points[i] = map[string]any{
			"id":     pointID(namespace, r.DocumentID, r.Index),
			"vector": r.Vector,
			"payload": map[string]any{
				"namespace":   namespace,
				"document_id": r.DocumentID,
				"index":       r.Index,
				"text":        r.Content,
				"source":      r.Source,
				"page":        r.Page,
			},
		}
	}

	_, err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	if err == nil {
		return nil
	}

	// A failed batch may still have been partly applied; remove what this
	// call could have written.
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if _, cerr := s.do(cctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"),
		map[string]any{"filter": namespaceFilter(namespace, ids...)}, nil); cerr != nil {
		s.log.Error(ctx, "qdrant compensating delete failed", "namespace", namespace, "error", cerr)
	}
	return err
}

func (s *QdrantStore) Query(ctx context.Context, namespace string, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"filter":       namespaceFilter(namespace),
	}
	var resp struct {
		Result []struct {
			Score   float32 `json:"score"`
			Payload struct {
				DocumentID string `json:"document_id"`
				Index      int    `json:"index"`
				Text       string `json:"text"`
				Source     string `json:"source"`
				Page       int    `json:"page"`
			} `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, ErrNamespaceEmpty
	}

	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, Match{
			DocumentID: r.Payload.DocumentID,
			Index:      r.Payload.Index,
			Content:    r.Payload.Text,
			Source:     r.Payload.Source,
			Page:       r.Payload.Page,
			Score:      r.Score,
		})
	}
	return topK(matches, k), nil
}

func (s *QdrantStore) Delete(ctx context.Context, namespace string) error {
	_, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"),
		map[string]any{"filter": namespaceFilter(namespace)}, nil)
	return err
}

func (s *QdrantStore) DeleteDocument(ctx context.Context, namespace, documentID string) error {
	_, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/delete?wait=true"),
		map[string]any{"filter": namespaceFilter(namespace, documentID)}, nil)
	return err
}

func (s *QdrantStore) Stats(ctx context.Context, namespace string) (Stats, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	req := map[string]any{"filter": namespaceFilter(namespace), "exact": true}
	if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"), req, &resp); err != nil {
		return Stats{}, err
	}
	return Stats{Exists: resp.Result.Count > 0, VectorCount: resp.Result.Count}, nil
}

// Namespaces scrolls the namespace payload of every point.
func (s *QdrantStore) Namespaces(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	var offset any
	for {
		req := map[string]any{
			"limit":        scrollPageSize,
			"with_payload": []string{"namespace"},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload struct {
						Namespace string `json:"namespace"`
					} `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if _, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/scroll"), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if ns := p.Payload.Namespace; ns != "" && !seen[ns] {
				seen[ns] = true
				out = append(out, ns)
			}
		}
		if resp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *QdrantStore) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// do sends a JSON request and decodes the JSON response into out when given.
// The status code is returned even when the call fails.
func (s *QdrantStore) do(ctx context.Context, method, url string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s: %s", method, url, resp.Status, bytes.TrimSpace(msg))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
