package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintcart/mintcart-backend/internal/config"
)

func TestTokenURI(t *testing.T) {
	assert.Equal(t, "ipfs://Qm123", TokenURI("Qm123"))
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
	cid     string
	putErr  error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObjectWithContext(ctx aws.Context, in *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.StringValue(in.Key)]; !ok {
		return nil, errors.New("NotFound")
	}
	out := &s3.HeadObjectOutput{Metadata: map[string]*string{}}
	if f.cid != "" {
		out.Metadata["Cid"] = aws.String(f.cid)
	}
	return out, nil
}

func TestS3PublisherReturnsGatewayCID(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}, cid: "QmS3"}
	publisher := NewS3PublisherWithClient(client, "bucket")

	doc := ProductMetadata{Name: "Mug", Slug: "mug", Description: "A mug"}
	cid, err := publisher.Publish(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "QmS3", cid)

	require.Len(t, client.objects, 1)
	for key, body := range client.objects {
		assert.True(t, strings.HasPrefix(key, "products/mug/"))
		var stored ProductMetadata
		require.NoError(t, json.Unmarshal(body, &stored))
		assert.Equal(t, doc, stored)
	}

	// same document, same object
	_, err = publisher.Publish(context.Background(), doc)
	require.NoError(t, err)
	assert.Len(t, client.objects, 1)
}

func TestS3PublisherErrors(t *testing.T) {
	publisher := NewS3PublisherWithClient(&fakeS3{objects: map[string][]byte{}}, "bucket")
	_, err := publisher.Publish(context.Background(), ProductMetadata{Slug: "mug"})
	assert.ErrorContains(t, err, "did not report a cid")

	publisher = NewS3PublisherWithClient(&fakeS3{objects: map[string][]byte{}, putErr: errors.New("denied")}, "bucket")
	_, err = publisher.Publish(context.Background(), ProductMetadata{Slug: "mug"})
	assert.ErrorContains(t, err, "failed to upload metadata")
}

func TestIPFSPublisherAdd(t *testing.T) {
	var uploaded string
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v0/version":
			// the client checks the node version before adding
			w.Write([]byte(`{"Version":"0.22.0"}`))
		case "/api/v0/add":
			body, _ := io.ReadAll(r.Body)
			uploaded = string(body)
			w.Write([]byte(`{"Name":"QmMug","Hash":"QmMug","Size":"64"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	publisher := NewIPFSPublisher(server.URL, time.Second)
	cid, err := publisher.Publish(context.Background(), ProductMetadata{Name: "Mug", Slug: "mug"})
	require.NoError(t, err)
	assert.Equal(t, "QmMug", cid)
	assert.Contains(t, paths, "/api/v0/add")
	assert.Contains(t, uploaded, `"slug":"mug"`)
}

func TestIPFSPublisherHonorsContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewIPFSPublisher(server.URL, time.Second).Publish(ctx, ProductMetadata{Slug: "mug"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewMetadataPublisherSelectsDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "ipfs", IPFSAPIURL: "http://localhost:5001"}}
	publisher, err := NewMetadataPublisher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &IPFSPublisher{}, publisher)

	cfg.Storage.Driver = "s3"
	_, err = NewMetadataPublisher(cfg)
	assert.ErrorContains(t, err, "AWS credentials")

	cfg.Storage.Driver = "ftp"
	_, err = NewMetadataPublisher(cfg)
	assert.Error(t, err)
}
