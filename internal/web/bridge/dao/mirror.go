package dao

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror keeps a cache copy of staged files in an S3-compatible bucket, so
// an attachment survives the local retention window for later inspection.
type Mirror struct {
	cli    *minio.Client
	bucket string
	prefix string
}

// NewMirror connects to the object storage endpoint.
func NewMirror(endpoint, accessKey, secretKey, bucket, prefix string, secure bool) (*Mirror, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create minio client")
	}

	return &Mirror{
		cli:    cli,
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

// Put stores one staged file under prefix/id.
func (m *Mirror) Put(ctx context.Context, id string, content []byte, contentType string) error {
	objkey := id
	if m.prefix != "" {
		objkey = fmt.Sprintf("%s/%s", m.prefix, id)
	}

	if _, err := m.cli.PutObject(ctx,
		m.bucket,
		objkey,
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	); err != nil {
		return errors.Wrapf(err, "put object `%s`", objkey)
	}

	return nil
}
