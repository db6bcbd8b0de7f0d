package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/niendoo/cybercrime-hive-sub000/internal/logging"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/config"
	"github.com/niendoo/cybercrime-hive-sub000/internal/server/models"
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = errors.New("exports disabled")

// PresignExpiry is how long a download link stays valid.
const PresignExpiry = 15 * time.Minute

const pageSize = 500

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignGetObject(ctx, in, optFns...)
	}
)

// MetricsLister pages through feedback metrics.
type MetricsLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.FeedbackMetrics, error)
}

// Exporter uploads metric snapshots to the configured bucket.
type Exporter struct {
	config  *config.Config
	metrics MetricsLister
	logger  logging.Logger
	now     func() time.Time
}

func NewExporter(cfg *config.Config, metrics MetricsLister, logger logging.Logger) *Exporter {
	return &Exporter{
		config:  cfg,
		metrics: metrics,
		logger:  logger.With("module", "export"),
		now:     time.Now,
	}
}

// StorageKey returns a fresh object key for an export taken at t.
func StorageKey(t time.Time) string {
	return fmt.Sprintf("exports/feedback-metrics/%d/%02d/%02d/%v.csv", t.Year(), t.Month(), t.Day(), uuid.New())
}

// Collect loads every metrics row.
func (e *Exporter) Collect(ctx context.Context) ([]*models.FeedbackMetrics, error) {
	var all []*models.FeedbackMetrics
	for offset := 0; ; offset += pageSize {
		page, err := e.metrics.List(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// Export writes the current metrics as CSV to the bucket and returns the
// object key with a presigned download URL.
func (e *Exporter) Export(ctx context.Context) (string, string, error) {
	if !e.config.ExportsEnabled() {
		return "", "", ErrDisabled
	}

	rows, err := e.Collect(ctx)
	if err != nil {
		return "", "", fmt.Errorf("collect metrics: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return "", "", fmt.Errorf("encode csv: %w", err)
	}

	client, err := e.client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := e.config.S3Bucket
	key := StorageKey(e.now())

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		return "", "", fmt.Errorf("upload export: %w", err)
	}

	req, err := presignGetObject(client, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign export: %w", err)
	}

	e.logger.Info(ctx, "feedback metrics exported", "key", key, "rows", len(rows))
	return key, req.URL, nil
}

func (e *Exporter) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(e.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			e.config.S3RootUser,
			e.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(e.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}
