package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Import rows are (id, health_issue, comma-separated symptoms,
// comma-separated advice). A header row is skipped when present.

type s3API interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ReadCSV parses catalog rows from r. Symptom and advice lists are split on
// commas; symptoms are lower-cased and trimmed so they match the form the
// matcher normalizes reported symptoms into.
func ReadCSV(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	var issues []*HealthIssue
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read row %d: %w", line+1, err)
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "id") {
			continue
		}

		id := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		symptoms := splitList(record[2], true)
		advice := splitList(record[3], false)
		if id == "" || name == "" {
			return nil, fmt.Errorf("catalog: row %d missing id or name", line)
		}
		if len(symptoms) == 0 {
			return nil, fmt.Errorf("catalog: issue %s (%s) lists no symptoms", id, name)
		}

		issues = append(issues, &HealthIssue{
			ID:       id,
			Name:     name,
			Symptoms: symptoms,
			Advice:   advice,
		})
	}

	return New(issues)
}

// LoadFile reads a catalog from a local CSV file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f)
}

// LoadS3 reads a catalog CSV from an S3 bucket/key.
func LoadS3(ctx context.Context, client s3API, bucket, key string) (*Catalog, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog: s3 client required")
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch s3://%s/%s: %w", bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()
	return ReadCSV(out.Body)
}

func splitList(raw string, lower bool) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if lower {
			p = strings.ToLower(p)
		}
		out = append(out, p)
	}
	return out
}
