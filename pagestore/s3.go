package pagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store is a Store backed by a single S3 object, grounded on the
// teacher's blobstore/s3 driver. S3 has no partial-overwrite API, so
// WritePages is implemented as a whole-object read-modify-write via
// remoteStore; callers that flush frequently should prefer FileStore.
type S3Store struct {
	remoteStore
}

// NewS3Store creates a page store backed by bucket/key. pageSize and
// maxCommitSize of 0 fall back to the package defaults.
func NewS3Store(client *s3.Client, bucket, key string, pageSize, maxCommitSize uint32) *S3Store {
	c := &s3Client{client: client, bucket: bucket, key: key}
	return &S3Store{remoteStore: newRemoteStore(c, pageSize, maxCommitSize)}
}

type s3Client struct {
	client *s3.Client
	bucket string
	key    string
}

func (c *s3Client) headSize(ctx context.Context) (uint64, bool, error) {
	head, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key),
	})
	if err != nil {
		var nf *types.NotFound
		var nsk *types.NoSuchKey
		if errors.As(err, &nf) || errors.As(err, &nsk) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(aws.ToInt64(head.ContentLength)), true, nil
}

func (c *s3Client) getAll(ctx context.Context) (io.ReadCloser, error) {
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key),
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *s3Client) putAll(ctx context.Context, body io.Reader, size int64) error {
	uploader := manager.NewUploader(c.client)
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", path.Join(c.bucket, c.key), err)
	}
	return nil
}
