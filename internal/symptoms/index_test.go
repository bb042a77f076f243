package symptoms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightline-health/intake-ai-platform/internal/catalog"
)

// stubEmbedder maps texts onto fixed axis-aligned vectors so cosine
// distances are predictable.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func indexCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]*catalog.HealthIssue{
		{ID: "1", Name: "Covid", Symptoms: []string{"fever", "cough"}},
		{ID: "2", Name: "Flu", Symptoms: []string{"fever", "chills"}},
	})
	require.NoError(t, err)
	return cat
}

func TestBuildIndexOneEntryPerSymptom(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	idx, err := BuildIndex(context.Background(), emb, indexCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
}

func TestQueryOrdersByDistance(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{
		"fever":  {1, 0, 0},
		"cough":  {0, 1, 0},
		"chills": {0.9, 0.1, 0},
		"hot":    {1, 0, 0},
	}}
	idx, err := BuildIndex(context.Background(), emb, indexCatalog(t))
	require.NoError(t, err)

	hits, err := idx.Query(context.Background(), "hot", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	// Exact matches first (both "fever" entries, issue ID tie-break),
	// then the near vector.
	assert.Equal(t, "fever", hits[0].Symptom)
	assert.Equal(t, "1", hits[0].IssueID)
	assert.Equal(t, "fever", hits[1].Symptom)
	assert.Equal(t, "2", hits[1].IssueID)
	assert.Equal(t, "chills", hits[2].Symptom)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)
	assert.Less(t, hits[1].Distance, hits[2].Distance+1e-9)
}

func TestQueryWrapsEmbedderFailure(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float32{}}
	idx, err := BuildIndex(context.Background(), emb, indexCatalog(t))
	require.NoError(t, err)

	emb.err = errors.New("rate limited")
	_, err = idx.Query(context.Background(), "fever", 10)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestBuildIndexPropagatesEmbedderFailure(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("no quota")}
	_, err := BuildIndex(context.Background(), emb, indexCatalog(t))
	assert.Error(t, err)
}
