// Package vectorstore keeps chunk embeddings in per-chat namespaces and ranks
// them by cosine similarity. A namespace is the owning chat id, verbatim, and
// queries never cross namespaces.
package vectorstore

import (
	"context"
	"errors"
	"sort"
)

// ErrNamespaceEmpty is returned by Query when the namespace holds no vectors.
var ErrNamespaceEmpty = errors.New("namespace has no vectors")

// Record is one embedded chunk. Page is 0-based.
type Record struct {
	DocumentID string
	Index      int
	Content    string
	Source     string
	Page       int
	Vector     []float32
}

// Match is a ranked query result.
type Match struct {
	DocumentID string
	Index      int
	Content    string
	Source     string
	Page       int
	Score      float32
}

type Stats struct {
	Exists      bool `json:"exists"`
	VectorCount int  `json:"vector_count"`
}

// Store is the namespace-isolated similarity index.
type Store interface {
	// Upsert stores all records or none of them.
	Upsert(ctx context.Context, namespace string, records []Record) error
	Query(ctx context.Context, namespace string, vector []float32, k int) ([]Match, error)
	// Delete removes the namespace. Deleting an empty namespace is not an error.
	Delete(ctx context.Context, namespace string) error
	DeleteDocument(ctx context.Context, namespace, documentID string) error
	Stats(ctx context.Context, namespace string) (Stats, error)
	Namespaces(ctx context.Context) ([]string, error)
}

// topK sorts matches by descending score, breaking ties by document and
// chunk position so results are stable, and keeps the first k.
func topK(matches []Match, k int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].DocumentID != matches[j].DocumentID {
			return matches[i].DocumentID < matches[j].DocumentID
		}
		return matches[i].Index < matches[j].Index
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
