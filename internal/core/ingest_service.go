package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"legaleagle.app/api/internal/logging"
	"legaleagle.app/api/internal/pdfx"
	"legaleagle.app/api/internal/splitter"
	"legaleagle.app/api/internal/vectorstore"
)

// Source is a document to ingest: either PDF bytes or pasted text.
type Source struct {
	Name string
	PDF  []byte
	Text string
}

func (s Source) IsPDF() bool { return s.PDF != nil }

// Size is the payload size in bytes.
func (s Source) Size() int64 {
	if s.IsPDF() {
		return int64(len(s.PDF))
	}
	return int64(len(s.Text))
}

// IngestService turns a document into embedded chunks stored in a namespace.
type IngestService struct {
	splitter *splitter.Splitter
	embedder Embedder
	vectors  vectorstore.Store
	maxBytes int64
	log      logging.Logger
}

func NewIngestService(sp *splitter.Splitter, e Embedder, vs vectorstore.Store, maxBytes int64, log logging.Logger) *IngestService {
	if maxBytes <= 0 {
		maxBytes = pdfx.DefaultMaxBytes
	}
	return &IngestService{splitter: sp, embedder: e, vectors: vs, maxBytes: maxBytes, log: log}
}

func (s *IngestService) MaxBytes() int64 { return s.maxBytes }

// Validate checks the payload before any chat or quota state is touched.
func (s *IngestService) Validate(src Source) error {
	if src.IsPDF() {
		if !strings.HasSuffix(strings.ToLower(src.Name), ".pdf") {
			return invalid("file", "Only PDF files are allowed")
		}
		switch err := pdfx.Validate(src.PDF, s.maxBytes); {
		case errors.Is(err, pdfx.ErrTooLarge):
			return invalid("file", "File too large (%.1fMB). Maximum size is %dMB.", float64(len(src.PDF))/(1024*1024), s.maxBytes/(1024*1024))
		case err != nil:
			return invalid("file", "Invalid PDF file")
		}
		return nil
	}
	if strings.TrimSpace(src.Text) == "" {
		return invalid("text", "Text must not be empty")
	}
	if int64(len(src.Text)) > s.maxBytes {
		return invalid("text", "Text too large. Maximum size is %dMB.", s.maxBytes/(1024*1024))
	}
	return nil
}

// Ingest extracts, splits, embeds and stores the document under namespace,
// tagging every vector with documentID. All chunks are embedded before the
// single upsert, so a failure leaves nothing behind.
func (s *IngestService) Ingest(ctx context.Context, src Source, namespace, documentID string) (int, error) {
	if err := s.Validate(src); err != nil {
		return 0, err
	}

	var pages []splitter.Page
	if src.IsPDF() {
		var err error
		pages, err = pdfx.ExtractPages(src.PDF)
		if err != nil {
			return 0, &IngestionError{Source: src.Name, Err: err}
		}
	} else {
		pages = []splitter.Page{{Number: 0, Text: src.Text}}
	}

	chunks := s.splitter.SplitPages(pages, src.Name)
	if len(chunks) == 0 {
		return 0, &IngestionError{Source: src.Name, Err: errors.New("document produced no text chunks")}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, &IngestionError{Source: src.Name, Err: err}
	}
	if len(vectors) != len(chunks) {
		return 0, &IngestionError{Source: src.Name, Err: fmt.Errorf("got %d embeddings for %d chunks", len(vectors), len(chunks))}
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{
			DocumentID: documentID,
			Index:      c.Index,
			Content:    c.Content,
			Source:     c.Source,
			Page:       c.Page,
			Vector:     vectors[i],
		}
	}
	if err := s.vectors.Upsert(ctx, namespace, records); err != nil {
		return 0, &IngestionError{Source: src.Name, Err: err}
	}

	s.log.Info(ctx, "document ingested",
		"namespace", namespace, "document_id", documentID, "source", src.Name,
		"pages", len(pages), "chunks", len(chunks))
	return len(chunks), nil
}
