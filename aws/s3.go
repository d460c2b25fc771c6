// Package aws defines functions used to interact with the AWS API
package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"pardeep1916P/storeit-api/internal/blob"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/spf13/viper"
)

// Objects bigger than this go through the multipart uploader
const minMultipartSize = 12 << 20

// S3Client is the blob store backed by an S3 compatible bucket
type S3Client struct {
	C        *s3.Client
	Bucket   *string
	presign  *s3.PresignClient
	uploader *manager.Uploader
}

var _ blob.Store = (*S3Client)(nil)

func NewS3() (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(viper.GetString("aws.region")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(viper.GetString("aws.bucket"))

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := viper.GetString("aws.endpoint"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = viper.GetBool("aws.path_style")
	})

	_, err = client.HeadBucket(context.TODO(), &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", *bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &S3Client{
		C:       client,
		Bucket:  bucket,
		presign: s3.NewPresignClient(client),
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		}),
	}, nil
}

func (c *S3Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:        c.Bucket,
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}

	var err error
	if len(data) > minMultipartSize {
		_, err = c.uploader.Upload(ctx, in)
	} else {
		_, err = c.C.PutObject(ctx, in)
	}
	if err != nil {
		return fmt.Errorf("failed to put object %s, %w", key, err)
	}

	return nil
}

func (c *S3Client) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := c.C.GetObject(ctx, &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapNotFound(err, key)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s, %w", key, err)
	}

	return b, nil
}

func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s, %w", key, err)
	}

	return nil
}

func (c *S3Client) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := c.C.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     c.Bucket,
		CopySource: aws.String(*c.Bucket + "/" + url.PathEscape(srcKey)),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return mapNotFound(err, srcKey)
	}

	return nil
}

func (c *S3Client) SignedURL(ctx context.Context, key string, opts blob.SignOptions) (string, error) {
	in := &s3.GetObjectInput{
		Bucket: c.Bucket,
		Key:    aws.String(key),
	}

	if opts.DownloadName != "" {
		in.ResponseContentDisposition = aws.String(blob.AttachmentDisposition(opts.DownloadName))
	}

	if opts.ContentType != "" {
		in.ResponseContentType = aws.String(opts.ContentType)
	}

	req, err := c.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(opts.Expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s, %w", key, err)
	}

	return req.URL, nil
}

func mapNotFound(err error, key string) error {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%s: %w", key, blob.ErrNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return fmt.Errorf("%s: %w", key, blob.ErrNotFound)
	}

	return fmt.Errorf("object %s, %w", key, err)
}
