// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package sitemap

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the slice of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Target uploads the document to a bucket, typically the one fronting the
// static site.
type S3Target struct {
	Client       ObjectPutter
	Bucket       string
	Key          string
	CacheControl string
}

func (t S3Target) Publish(ctx context.Context, doc []byte) error {
	key := t.Key
	if key == "" {
		key = "sitemap.xml"
	}

	in := &s3.PutObjectInput{
		Bucket:        aws.String(t.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(doc),
		ContentLength: aws.Int64(int64(len(doc))),
		ContentType:   aws.String("application/xml; charset=utf-8"),
	}
	if t.CacheControl != "" {
		in.CacheControl = aws.String(t.CacheControl)
	}

	out, err := t.Client.PutObject(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", t.Bucket, key, err)
	}
	log.Debugf("uploaded s3://%s/%s etag=%s", t.Bucket, key, aws.ToString(out.ETag))

	return nil
}

func (t S3Target) String() string {
	key := t.Key
	if key == "" {
		key = "sitemap.xml"
	}
	return "s3://" + t.Bucket + "/" + key
}
