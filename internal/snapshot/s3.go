package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object metadata keys set on every uploaded snapshot.
const (
	metaSnapshotID  = "snapshot-id"
	metaConfigCount = "config-count"
	metaDigest      = "config-digest"
)

// putObjectAPI is the slice of the S3 client used here.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Destination uploads correlation config snapshots to a single object
// key. An upload is skipped when the configs are unchanged since the last
// successful one.
type S3Destination struct {
	client putObjectAPI
	bucket string
	key    string

	mu         sync.Mutex
	lastDigest string
}

// NewS3Destination creates an S3 destination. If endpoint is non-empty,
// path-style addressing is enabled (for MinIO and similar).
func NewS3Destination(ctx context.Context, bucket, key, region, endpoint string) (*S3Destination, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}
	return &S3Destination{
		client: s3.NewFromConfig(cfg, s3opts...),
		bucket: bucket,
		key:    key,
	}, nil
}

func (d *S3Destination) Name() string { return "s3://" + d.bucket + "/" + d.key }

// Write uploads the snapshot with its id, config count and digest as
// object metadata.
func (d *S3Destination) Write(ctx context.Context, h *Header, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h.Digest != "" && h.Digest == d.lastDigest {
		return nil
	}

	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(d.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
		Metadata: map[string]string{
			metaSnapshotID:  h.ID,
			metaConfigCount: strconv.Itoa(h.ConfigCount),
			metaDigest:      h.Digest,
		},
	})
	if err != nil {
		return fmt.Errorf("upload snapshot %s: %w", h.ID, err)
	}
	d.lastDigest = h.Digest
	return nil
}
