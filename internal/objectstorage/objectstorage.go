// Package objectstorage wraps the S3-compatible bucket every exported
// file and uploaded avatar lands in (C15): presigned PUT/GET URLs for
// client-side uploads, and a small metadata-bearing Put used by the
// exporter (C7) to stamp each export object with its own listing
// headers instead of keeping a side table.
package objectstorage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Config is the subset of the application's layered viper config the
// object store needs.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // non-empty for MinIO/other S3-compatible endpoints
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

// Store issues presigned URLs against one bucket and performs the
// occasional direct Put/Get the server itself needs (the exporter
// writes its own export files rather than handing the client a PUT
// URL, since the content is generated server-side).
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			staticCredentials{cfg.AccessKeyID, cfg.SecretAccessKey}))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return &Store{client: client, presign: s3.NewPresignClient(client), bucket: cfg.Bucket}, nil
}

// PresignPut returns a time-limited PUT URL for key, used by POST
// /upload to hand the browser a direct-to-bucket upload target.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignGet returns a time-limited GET URL for key.
func (s *Store) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// Put uploads body under key with the given metadata as x-amz-meta-*
// headers, the path the exporter uses to both write the file and stamp
// its own listing fields (started_at, ended_at, exported) in one call.
// body is read directly into the request rather than buffered by this
// package, so a piped streaming writer never gets copied in full.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	return err
}

// UpdateMetadata replaces key's x-amz-meta-* headers in place via a
// self-copy, the standard S3 idiom for metadata that's only known once
// an object's body has finished uploading (the exporter's ended_at and
// exported fields aren't known until the streamed body is fully
// written, by which point the PutObject request that opened the upload
// has already gone out with provisional headers).
func (s *Store) UpdateMetadata(ctx context.Context, key string, metadata map[string]string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(s.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(s.bucket + "/" + key),
		Metadata:          metadata,
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	return err
}

// Get downloads the object at key.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Object describes one listed object's key and the x-amz-meta-*
// metadata headers the exporter stamped it with.
type Object struct {
	Key      string
	Size     int64
	Modified time.Time
	Metadata map[string]string
}

// List enumerates every object under prefix, fetching each one's
// metadata headers with HeadObject since ListObjectsV2 doesn't return
// them. Used by the exporter's export-listing endpoint, which reads
// started_at/ended_at/exported back from what Put wrote.
func (s *Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				return nil, err
			}
			out = append(out, Object{
				Key:      aws.ToString(obj.Key),
				Size:     aws.ToInt64(obj.Size),
				Modified: aws.ToTime(obj.LastModified),
				Metadata: head.Metadata,
			})
		}
	}
	return out, nil
}

// Delete removes the object at key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

type staticCredentials struct {
	accessKeyID, secretAccessKey string
}

func (c staticCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	return aws.Credentials{AccessKeyID: c.accessKeyID, SecretAccessKey: c.secretAccessKey}, nil
}
