// Package bootstrap wires shared runtime dependencies so the API server and
// the history worker build them the same way.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/brightline-health/intake-ai-platform/internal/catalog"
	appconfig "github.com/brightline-health/intake-ai-platform/internal/config"
	"github.com/brightline-health/intake-ai-platform/internal/symptoms"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildCatalog loads the health-issue catalog from S3 when a bucket is
// configured, falling back to the local CSV path.
func BuildCatalog(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*catalog.Catalog, error) {
	if cfg.CatalogS3Bucket != "" {
		s3Client := s3.NewFromConfig(awsCfg)
		cat, err := catalog.LoadS3(ctx, s3Client, cfg.CatalogS3Bucket, cfg.CatalogS3Key)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load catalog from s3: %w", err)
		}
		logger.Info("catalog loaded from s3",
			"bucket", cfg.CatalogS3Bucket,
			"key", cfg.CatalogS3Key,
			"issues", cat.Len(),
		)
		return cat, nil
	}

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load catalog: %w", err)
	}
	logger.Info("catalog loaded", "path", cfg.CatalogPath, "issues", cat.Len())
	return cat, nil
}

// BuildSymptomIndex embeds the catalog into an in-memory nearest-neighbor
// index. Embeddings go through the Redis cache when a client is available.
func BuildSymptomIndex(ctx context.Context, cfg *appconfig.Config, cat *catalog.Catalog, redisClient *redis.Client, logger *logging.Logger) (*symptoms.EmbeddingIndex, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("bootstrap: OPENAI_API_KEY is required to build the symptom index")
	}

	var embedder symptoms.Embedder = symptoms.NewOpenAIEmbedder(
		openai.NewClient(cfg.OpenAIAPIKey),
		cfg.EmbeddingModel,
	)
	if redisClient != nil {
		embedder = symptoms.NewCachedEmbedder(embedder, cfg.EmbeddingModel, redisClient, 0, logger)
		logger.Info("embedding cache enabled", "redis_addr", cfg.RedisAddr)
	}

	index, err := symptoms.BuildIndex(ctx, embedder, cat)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: build symptom index: %w", err)
	}
	logger.Info("symptom index built", "entries", index.Len())
	return index, nil
}
