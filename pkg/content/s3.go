package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Object metadata keys used to round-trip Content fields through S3.
const (
	s3MetaID       = "content-id"
	s3MetaFilename = "filename"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config configures an S3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint for MinIO or LocalStack
	Prefix   string // key prefix prepended to every location
}

// S3Store keeps content as objects in an S3 bucket. The object key is the
// configured prefix followed by the location without its leading slash.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store loads the default AWS configuration and creates a store.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("content: s3 bucket is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("content: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3StoreWithClient creates a store over an existing client.
func NewS3StoreWithClient(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

func (s *S3Store) key(location string) string {
	return s.prefix + strings.TrimPrefix(location, "/")
}

func (s *S3Store) location(key string) string {
	return "/" + strings.TrimPrefix(key, s.prefix)
}

func (s *S3Store) Save(ctx context.Context, c Content) (Content, error) {
	stored, err := prepare(c, s.now())
	if err != nil {
		return Content{}, err
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(stored.Location)),
		Body:          bytes.NewReader(stored.Data),
		ContentLength: aws.Int64(stored.Length),
		Metadata: map[string]string{
			s3MetaID:       stored.ID,
			s3MetaFilename: stored.Filename,
		},
	}
	if stored.ContentType != "" {
		input.ContentType = aws.String(stored.ContentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Content{}, fmt.Errorf("content: s3 put %s: %w", stored.Location, err)
	}
	return stored, nil
}

func (s *S3Store) Fetch(ctx context.Context, location string) (Content, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(location)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return Content{}, ErrNotFound
		}
		return Content{}, fmt.Errorf("content: s3 get %s: %w", location, err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Content{}, fmt.Errorf("content: s3 read %s: %w", location, err)
	}

	c := Content{
		ID:          out.Metadata[s3MetaID],
		Location:    location,
		Filename:    out.Metadata[s3MetaFilename],
		ContentType: aws.ToString(out.ContentType),
		Length:      int64(len(data)),
		Data:        data,
	}
	if out.LastModified != nil {
		c.LastModified = out.LastModified.UTC()
	}
	if c.ID == "" {
		c.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String()
	}
	return c, nil
}

func (s *S3Store) Delete(ctx context.Context, location string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(location)),
	})
	if err != nil {
		return fmt.Errorf("content: s3 delete %s: %w", location, err)
	}
	return nil
}

// FindByLocationPattern lists the bucket under the store prefix and returns
// metadata for matching keys; payloads are not downloaded.
func (s *S3Store) FindByLocationPattern(ctx context.Context, pattern string) ([]Content, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	var (
		out   []Content
		token *string
	)
	for {
		page, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("content: s3 list: %w", err)
		}
		for _, object := range page.Contents {
			location := s.location(aws.ToString(object.Key))
			if !re.MatchString(location) {
				continue
			}
			c := Content{
				ID:       uuid.NewSHA1(uuid.NameSpaceURL, []byte(location)).String(),
				Location: location,
				Length:   aws.ToInt64(object.Size),
			}
			if object.LastModified != nil {
				c.LastModified = object.LastModified.UTC()
			}
			out = append(out, c)
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		token = page.NextContinuationToken
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}
