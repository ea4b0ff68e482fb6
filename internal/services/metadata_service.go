// internal/services/metadata_service.go
package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	shell "github.com/ipfs/go-ipfs-api"

	"github.com/mintcart/mintcart-backend/internal/config"
)

// TokenURI addresses published metadata by its content identifier.
func TokenURI(cid string) string {
	return "ipfs://" + cid
}

// NewMetadataPublisher picks the publisher configured by STORAGE_DRIVER.
func NewMetadataPublisher(config *config.Config) (MetadataPublisher, error) {
	switch config.Storage.Driver {
	case "s3":
		return NewS3Publisher(config)
	case "ipfs", "":
		return NewIPFSPublisher(config.Storage.IPFSAPIURL, config.Storage.PublishTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}
}

// IPFSPublisher adds metadata through a Kubo node's HTTP RPC API.
type IPFSPublisher struct {
	shell *shell.Shell
}

func NewIPFSPublisher(apiURL string, timeout time.Duration) *IPFSPublisher {
	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}
	return &IPFSPublisher{shell: sh}
}

func (p *IPFSPublisher) Publish(ctx context.Context, doc ProductMetadata) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	type addResult struct {
		cid string
		err error
	}
	done := make(chan addResult, 1)
	go func() {
		cid, err := p.shell.Add(bytes.NewReader(data))
		done <- addResult{cid, err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("ipfs add: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("ipfs add: %w", res.err)
		}
		return res.cid, nil
	}
}

// S3Publisher writes metadata to an S3-compatible IPFS pinning gateway,
// which reports the pinned CID in the object's "cid" metadata.
type S3Publisher struct {
	client s3iface.S3API
	bucket string
}

func NewS3Publisher(config *config.Config) (*S3Publisher, error) {
	if config.AWS.AccessKeyID == "" {
		return nil, fmt.Errorf("AWS credentials are required for the s3 storage driver")
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(config.AWS.Region),
		Endpoint:         aws.String(config.AWS.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return NewS3PublisherWithClient(s3.New(sess), config.AWS.S3Bucket), nil
}

func NewS3PublisherWithClient(client s3iface.S3API, bucket string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket}
}

func (p *S3Publisher) Publish(ctx context.Context, doc ProductMetadata) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	// Keyed by content so a retried publish overwrites the same object.
	sum := sha256.Sum256(data)
	key := fmt.Sprintf("products/%s/%s.json", doc.Slug, hex.EncodeToString(sum[:8]))

	_, err = p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload metadata: %w", err)
	}

	head, err := p.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read metadata object: %w", err)
	}

	for _, name := range []string{"Cid", "cid"} {
		if cid := aws.StringValue(head.Metadata[name]); cid != "" {
			return cid, nil
		}
	}
	return "", fmt.Errorf("gateway did not report a cid for %s", key)
}
