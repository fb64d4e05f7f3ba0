package pagestore

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// MinioStore is a Store backed by a single MinIO (or other S3-compatible)
// object, grounded on the teacher's blobstore/minio driver. Shares the
// whole-object read-modify-write strategy in remoteStore with S3Store.
type MinioStore struct {
	remoteStore
}

// NewMinioStore creates a page store backed by bucket/key.
func NewMinioStore(client *minio.Client, bucket, key string, pageSize, maxCommitSize uint32) *MinioStore {
	c := &minioClient{client: client, bucket: bucket, key: key}
	return &MinioStore{remoteStore: newRemoteStore(c, pageSize, maxCommitSize)}
}

type minioClient struct {
	client *minio.Client
	bucket string
	key    string
}

func (c *minioClient) headSize(ctx context.Context) (uint64, bool, error) {
	info, err := c.client.StatObject(ctx, c.bucket, c.key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(info.Size), true, nil
}

func (c *minioClient) getAll(ctx context.Context) (io.ReadCloser, error) {
	return c.client.GetObject(ctx, c.bucket, c.key, minio.GetObjectOptions{})
}

func (c *minioClient) putAll(ctx context.Context, body io.Reader, size int64) error {
	_, err := c.client.PutObject(ctx, c.bucket, c.key, body, size, minio.PutObjectOptions{})
	return err
}
