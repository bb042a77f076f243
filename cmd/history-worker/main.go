// The history-worker binary drains the summary queue into DynamoDB. It runs
// alongside the API when SQS is configured; with the memory queue the API
// process drains summaries itself and this binary refuses to start.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/brightline-health/intake-ai-platform/cmd/mainconfig"
	appconfig "github.com/brightline-health/intake-ai-platform/internal/config"
	"github.com/brightline-health/intake-ai-platform/internal/history"
	"github.com/brightline-health/intake-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel).Component("history-worker")
	logger.Info("starting history worker", "env", cfg.Env)

	if cfg.UseMemoryQueue {
		logger.Error("history worker cannot run with USE_MEMORY_QUEUE=true; the API process drains summaries inline")
		os.Exit(1)
	}
	if cfg.SummaryQueueURL == "" {
		logger.Error("SUMMARY_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := history.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.SummaryQueueURL)
	store := history.NewSummaryStore(dynamodb.NewFromConfig(awsCfg), cfg.SummariesTable, logger)
	worker := history.NewWorker(queue, store, logger, history.WithWorkerCount(cfg.WorkerCount))

	worker.Start(ctx)
	<-ctx.Done()

	logger.Info("shutting down history worker...")

	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("history worker stopped")
	case <-time.After(30 * time.Second):
		logger.Error("history worker shutdown timed out")
	}
}
