// The importer validates a health-issue catalog CSV and optionally uploads
// it to S3 for the API to load at boot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"

	"github.com/brightline-health/intake-ai-platform/cmd/mainconfig"
	"github.com/brightline-health/intake-ai-platform/internal/catalog"
	appconfig "github.com/brightline-health/intake-ai-platform/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	path := flag.String("path", cfg.CatalogPath, "catalog CSV to validate")
	upload := flag.Bool("upload", false, "upload the validated CSV to CATALOG_S3_BUCKET")
	flag.Parse()

	cat, err := catalog.LoadFile(*path)
	if err != nil {
		log.Fatalf("catalog validation failed: %v", err)
	}

	fmt.Printf("catalog OK: %d issues, %d distinct symptoms\n", cat.Len(), len(cat.Symptoms()))
	for _, issue := range cat.All() {
		fmt.Printf("  %-4s %-24s %d symptoms\n", issue.ID, issue.Name, len(issue.Symptoms))
	}

	if !*upload {
		return
	}
	if cfg.CatalogS3Bucket == "" {
		log.Fatal("CATALOG_S3_BUCKET is required for --upload")
	}

	ctx := context.Background()
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("load AWS config: %v", err)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	defer f.Close()

	s3Client := s3.NewFromConfig(awsCfg)
	_, err = s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(cfg.CatalogS3Bucket),
		Key:    aws.String(cfg.CatalogS3Key),
		Body:   f,
	})
	if err != nil {
		log.Fatalf("upload catalog: %v", err)
	}
	fmt.Printf("uploaded to s3://%s/%s\n", cfg.CatalogS3Bucket, cfg.CatalogS3Key)
}
