// Package symptoms implements the similarity index over catalog symptoms and
// the matcher that ranks candidate health issues for a set of reported
// symptoms.
package symptoms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"github.com/brightline-health/intake-ai-platform/internal/catalog"
)

// ErrIndexUnavailable wraps failures of the underlying similarity backend.
var ErrIndexUnavailable = errors.New("symptoms: index unavailable")

// Hit is one nearest-neighbor result: an indexed symptom entry and its
// distance from the query text. Lower distance is a closer match.
type Hit struct {
	IssueID  string
	Symptom  string
	Distance float64
}

// Index answers nearest-neighbor queries for a single symptom string.
type Index interface {
	Query(ctx context.Context, symptom string, k int) ([]Hit, error)
}

// Embedder turns texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder calls the embeddings API for each batch of texts.
type OpenAIEmbedder struct {
	client embeddingClient
	model  string
}

// NewOpenAIEmbedder wraps an OpenAI-compatible client.
func NewOpenAIEmbedder(client embeddingClient, model string) *OpenAIEmbedder {
	if client == nil {
		panic("symptoms: embedding client cannot be nil")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{client: client, model: model}
}

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string { return e.model }

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("symptoms: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("symptoms: embedding response size mismatch")
	}
	out := make([][]float32, len(texts))
	for i, item := range resp.Data {
		out[i] = item.Embedding
	}
	return out, nil
}

type indexEntry struct {
	issueID string
	symptom string
	vector  []float32
}

// EmbeddingIndex holds one embedded entry per (issue, symptom) pair and
// serves KNN queries by cosine distance. Entries are built once and never
// mutated, so concurrent queries need no locking.
type EmbeddingIndex struct {
	embedder Embedder
	entries  []indexEntry
}

// BuildIndex embeds every symptom listed in the catalog. Each entry carries
// a back-reference to its owning issue.
func BuildIndex(ctx context.Context, embedder Embedder, cat *catalog.Catalog) (*EmbeddingIndex, error) {
	if embedder == nil {
		panic("symptoms: embedder cannot be nil")
	}
	if cat == nil {
		panic("symptoms: catalog cannot be nil")
	}

	var texts []string
	var entries []indexEntry
	for _, issue := range cat.All() {
		for _, s := range issue.Symptoms {
			texts = append(texts, s)
			entries = append(entries, indexEntry{issueID: issue.ID, symptom: s})
		}
	}

	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("symptoms: build index: %w", err)
	}
	for i := range entries {
		entries[i].vector = vectors[i]
	}

	return &EmbeddingIndex{embedder: embedder, entries: entries}, nil
}

// Len returns the number of indexed symptom entries.
func (idx *EmbeddingIndex) Len() int { return len(idx.entries) }

// Query embeds the symptom and returns its k nearest entries by cosine
// distance, closest first. Ties are broken by issue ID then symptom text so
// identical inputs always produce identical output.
func (idx *EmbeddingIndex) Query(ctx context.Context, symptom string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 100
	}
	vectors, err := idx.embedder.Embed(ctx, []string{symptom})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	query := vectors[0]

	hits := make([]Hit, 0, len(idx.entries))
	for _, entry := range idx.entries {
		hits = append(hits, Hit{
			IssueID:  entry.issueID,
			Symptom:  entry.symptom,
			Distance: 1 - cosineSimilarity(query, entry.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		if hits[i].IssueID != hits[j].IssueID {
			return hits[i].IssueID < hits[j].IssueID
		}
		return hits[i].Symptom < hits[j].Symptom
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot float64
	var normA float64
	var normB float64
	for i := range a {
		dot += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
