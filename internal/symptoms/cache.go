package symptoms

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

const defaultCacheTTL = 24 * time.Hour

// CachedEmbedder fronts an Embedder with a Redis cache keyed by model and
// text. Cache failures degrade to the inner embedder; they never fail the
// query.
type CachedEmbedder struct {
	inner  Embedder
	model  string
	client redis.UniversalClient
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedEmbedder wraps inner with a Redis-backed cache.
func NewCachedEmbedder(inner Embedder, model string, client redis.UniversalClient, ttl time.Duration, logger *logging.Logger) *CachedEmbedder {
	if inner == nil {
		panic("symptoms: inner embedder cannot be nil")
	}
	if client == nil {
		panic("symptoms: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedEmbedder{inner: inner, model: model, client: client, ttl: ttl, logger: logger}
}

// Embed returns cached vectors where present and embeds only the misses.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = c.key(text)
	}
	cached, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("embedding cache read failed", "error", err)
		cached = make([]interface{}, len(texts))
	}
	for i := range texts {
		raw, ok := cached[i].(string)
		if !ok {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
			continue
		}
		out[i] = vec
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		encoded, err := json.Marshal(vectors[j])
		if err != nil {
			continue
		}
		if err := c.client.Set(ctx, keys[i], encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("embedding cache write failed", "error", err)
		}
	}
	return out, nil
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", c.model, hex.EncodeToString(sum[:]))
}
