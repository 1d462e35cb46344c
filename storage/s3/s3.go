// Package s3 implements storage.Storage on Amazon S3 and S3-compatible
// services such as MinIO. Access tokens are SigV4 query presignatures.
package s3

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/encoding/httpbinding"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/storage"
)

func init() {
	storage.RegisterFactory(storage.SchemeS3, func(ctx context.Context, conn storage.ConnectionString, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return NewStorage(ctx, conn, cfg, log)
	})
}

// defaultPageSize matches the S3 server-side maximum.
const defaultPageSize = 1000

// client is the subset of *awss3.Client the backend calls.
type client interface {
	PutObject(ctx context.Context, in *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
	awss3.ListObjectsV2APIClient
}

// Storage implements storage.Storage using Amazon S3 (or S3-compatible services).
type Storage struct {
	client client
	signer *v4.Signer
	log    *logger.Logger

	bucket   string
	region   string
	baseURL  string
	pageSize int32

	conditionalWrites bool
	headOnList        bool
}

var (
	_ storage.Storage       = (*Storage)(nil)
	_ storage.HealthChecker = (*Storage)(nil)
)

// NewStorage creates an S3 backend. A connection string host selects a
// custom endpoint, which is always addressed path-style.
func NewStorage(ctx context.Context, conn storage.ConnectionString, cfg storage.Config, log *logger.Logger) (*Storage, error) {
	if log == nil {
		log = logger.NewNop()
	}
	region := cfg.S3.Region
	if region == "" {
		region = conn.Option("region", storage.DefaultRegion)
	}
	secure, err := strconv.ParseBool(conn.Option("secure", "true"))
	if err != nil {
		return nil, fmt.Errorf("s3: invalid secure option: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccountName, cfg.AccountKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	endpoint := ""
	if conn.Host != "" {
		scheme := "https"
		if !secure {
			scheme = "http"
		}
		endpoint = scheme + "://" + conn.Host
	}
	pathStyle := cfg.S3.ForcePathStyle || endpoint != ""

	c := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = pathStyle
	})

	s := newStorage(c, cfg, region, log)
	s.baseURL = objectBaseURL(endpoint, cfg.Container, region, pathStyle)
	log.Debug("s3 backend ready", logger.Fields(
		"region", region,
		"path_style", pathStyle,
		"endpoint", endpoint,
	))
	return s, nil
}

func newStorage(c client, cfg storage.Config, region string, log *logger.Logger) *Storage {
	return &Storage{
		client: c,
		signer: v4.NewSigner(func(o *v4.SignerOptions) {
			// keys are escaped once by URL; S3 wants them signed as sent
			o.DisableURIPathEscaping = true
		}),
		log:               log,
		bucket:            cfg.Container,
		region:            region,
		pageSize:          defaultPageSize,
		conditionalWrites: cfg.S3.ConditionalWrites,
		headOnList:        cfg.S3.HeadOnList,
	}
}

// objectBaseURL returns the address objects hang off, without a trailing slash.
func objectBaseURL(endpoint, bucket, region string, pathStyle bool) string {
	switch {
	case endpoint != "":
		return strings.TrimSuffix(endpoint, "/") + "/" + bucket
	case pathStyle:
		return "https://s3." + region + ".amazonaws.com/" + bucket
	default:
		return "https://" + bucket + ".s3." + region + ".amazonaws.com"
	}
}

// Container implements storage.Storage.
func (s *Storage) Container() string { return s.bucket }

// URL implements storage.Storage. Segments are escaped the way SigV4
// canonicalizes them.
func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + httpbinding.EscapePath(key, false)
}

// Upload writes body to S3. Plain-HTTP endpoints need a seekable body to
// compute the payload hash.
func (s *Storage) Upload(ctx context.Context, key string, body io.Reader, opts storage.PutOptions) error {
	if !storage.ValidKey(key) {
		return fmt.Errorf("%w: %q", storage.ErrInvalidKey, key)
	}
	in := &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.Size > 0 {
		in.ContentLength = aws.Int64(opts.Size)
	}
	if opts.IfNotExists && s.conditionalWrites {
		in.IfNoneMatch = aws.String("*")
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		if isPreconditionFailed(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("s3: put object %q: %w", key, err)
	}
	return nil
}

// Download implements storage.Storage.
func (s *Storage) Download(ctx context.Context, key string) (*storage.Object, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get object %q: %w", key, err)
	}
	return &storage.Object{
		Body: out.Body,
		Info: storage.ObjectInfo{
			Key:          key,
			Size:         aws.ToInt64(out.ContentLength),
			ContentType:  aws.ToString(out.ContentType),
			LastModified: aws.ToTime(out.LastModified),
		},
	}, nil
}

// Exists implements storage.Storage.
func (s *Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.head(ctx, key)
	if err != nil {
		if isHeadNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3: head object %q: %w", key, err)
	}
	return true, nil
}

func (s *Storage) head(ctx context.Context, key string) (*awss3.HeadObjectOutput, error) {
	return s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
}

// Delete implements storage.Storage.
func (s *Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("s3: delete object %q: %w", key, err)
	}
	return nil
}

// List implements storage.Storage with the ListObjectsV2 paginator. The
// next page is requested only when the previous one has been consumed.
func (s *Storage) List(ctx context.Context, prefix, delimiter string) iter.Seq2[storage.Entry, error] {
	return func(yield func(storage.Entry, error) bool) {
		in := &awss3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(prefix),
		}
		if delimiter != "" {
			in.Delimiter = aws.String(delimiter)
		}
		pages := awss3.NewListObjectsV2Paginator(s.client, in, func(o *awss3.ListObjectsV2PaginatorOptions) {
			o.Limit = s.pageSize
		})
		for pages.HasMorePages() {
			page, err := pages.NextPage(ctx)
			if err != nil {
				yield(storage.Entry{}, fmt.Errorf("s3: list %q: %w", prefix, err))
				return
			}
			for _, cp := range page.CommonPrefixes {
				e := storage.Entry{Kind: storage.EntryPrefix, ObjectInfo: storage.ObjectInfo{Key: aws.ToString(cp.Prefix)}}
				if !yield(e, nil) {
					return
				}
			}
			for _, obj := range page.Contents {
				e := storage.Entry{Kind: storage.EntryObject, ObjectInfo: storage.ObjectInfo{
					Key:          aws.ToString(obj.Key),
					Size:         aws.ToInt64(obj.Size),
					LastModified: aws.ToTime(obj.LastModified),
				}}
				if s.headOnList {
					if e.ContentType, err = s.contentType(ctx, e.Key); err != nil {
						yield(storage.Entry{}, err)
						return
					}
				}
				if !yield(e, nil) {
					return
				}
			}
		}
	}
}

// contentType fetches the stored content type. An object deleted since the
// listing page was served yields "".
func (s *Storage) contentType(ctx context.Context, key string) (string, error) {
	out, err := s.head(ctx, key)
	if err != nil {
		if isHeadNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("s3: head object %q: %w", key, err)
	}
	return aws.ToString(out.ContentType), nil
}

// Ping checks that the bucket is reachable with the configured credentials.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("s3: head bucket %q: %w", s.bucket, err)
	}
	return nil
}
