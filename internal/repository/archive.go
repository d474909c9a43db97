package repository

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/util/compression"
)

// Archive mirrors published posts somewhere outside the database.
type Archive interface {
	ArchivePost(ctx context.Context, post *model.Post) error
	ListArchived(ctx context.Context) ([]string, error)
}

// ObjectClient is the part of the S3 client the archive uses.
type ObjectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Archive writes each published post to <prefix><id>.md in an
// S3-compatible bucket.
type S3Archive struct {
	client ObjectClient
	bucket string
	prefix string

	// encoder is nil for plain objects
	encoder compression.Compressor
}

func NewS3Archive(client ObjectClient, bucket string) *S3Archive {
	return &S3Archive{
		client: client,
		bucket: bucket,
		prefix: config.ArchivePrefix,
	}
}

// NewS3ArchiveFromConfig builds the S3 client with static credentials.
// An empty endpoint uses the AWS default resolver.
func NewS3ArchiveFromConfig(ctx context.Context, cfg config.ArchiveConfig, accessKeyID, accessKeySecret string) (*S3Archive, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	archive := NewS3Archive(client, cfg.Bucket)
	if cfg.Gzip {
		archive.UseGzip()
	}
	return archive, nil
}

// UseGzip makes later uploads gzip encoded.
func (a *S3Archive) UseGzip() {
	a.encoder = compression.GzipCompressor{Level: gzip.BestCompression}
}

func (a *S3Archive) key(id model.PostID) string {
	return a.prefix + string(id) + ".md"
}

func (a *S3Archive) ArchivePost(ctx context.Context, post *model.Post) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key(post.ID)),
		Body:        bytes.NewReader(post.Markdown),
		ContentType: aws.String("text/markdown"),
		Metadata: map[string]string{
			"title":     post.Title,
			"author-id": string(post.Owner),
			"tags":      strings.Join(post.Tags, ","),
		},
	}

	if a.encoder != nil {
		body, err := a.encoder.Compress(post.Markdown)
		if err != nil {
			return fmt.Errorf("error encoding post %s: %w", post.ID, err)
		}
		input.Body = bytes.NewReader(body)
		input.ContentEncoding = aws.String("gzip")
	}

	_, err := a.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("error archiving post %s: %w", post.ID, err)
	}

	repoLogger.Info().Str("post_id", string(post.ID)).Str("bucket", a.bucket).Msg("Post archived")
	return nil
}

// ListArchived returns the ids of every archived post.
func (a *S3Archive) ListArchived(ctx context.Context) ([]string, error) {
	var ids []string
	var token *string

	for {
		out, err := a.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(a.bucket),
			Prefix:            aws.String(a.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("error listing archive: %w", err)
		}

		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".md") {
				continue
			}
			ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(key, a.prefix), ".md"))
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return ids, nil
		}
		token = out.NextContinuationToken
	}
}
