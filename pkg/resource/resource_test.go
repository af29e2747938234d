package resource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		uri     string
		want    Location
		wantErr error
	}{
		{"graph.txt", Location{Scheme: SchemeFile, Path: "graph.txt"}, nil},
		{"/data/graph.txt.sz", Location{Scheme: SchemeFile, Path: "/data/graph.txt.sz", Compressed: true}, nil},
		{"file:///data/graph.csv", Location{Scheme: SchemeFile, Path: "/data/graph.csv"}, nil},
		{"s3://bucket/graphs/web.snappy", Location{Scheme: SchemeS3, Bucket: "bucket", Key: "graphs/web.snappy", Compressed: true}, nil},
		{"s3://bucket/", Location{}, ErrInvalidURI},
		{"s3:///key", Location{}, ErrInvalidURI},
		{"", Location{}, ErrInvalidURI},
		{"gs://bucket/key", Location{}, ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeAll(t *testing.T, r *Resolver, uri string, data []byte) {
	t.Helper()
	w, err := r.Create(context.Background(), uri)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readAll(t *testing.T, r *Resolver, uri string) []byte {
	t.Helper()
	rc, err := r.Open(context.Background(), uri)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := &Resolver{}
	payload := bytes.Repeat([]byte("0 1\n1 2\n"), 1000)

	plain := filepath.Join(dir, "labels.txt")
	writeAll(t, r, plain, payload)
	assert.Equal(t, payload, readAll(t, r, plain))

	packed := filepath.Join(dir, "labels.txt.sz")
	writeAll(t, r, packed, payload)
	assert.Equal(t, payload, readAll(t, r, packed))

	raw, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.Less(t, len(raw), len(payload), "snappy output should be smaller for repetitive input")

	decoded, err := io.ReadAll(snappy.NewReader(bytes.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestOpenEmptyLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	assert.Empty(t, readAll(t, &Resolver{}, path))
}

func TestOpenMissingLocalFile(t *testing.T) {
	_, err := (&Resolver{}).Open(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// memoryS3 is an in-memory ObjectClient.
type memoryS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryS3() *memoryS3 {
	return &memoryS3{objects: make(map[string][]byte)}
}

func (m *memoryS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memoryS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if in.ContentLength == nil || *in.ContentLength != int64(len(data)) {
		return nil, errors.New("content length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func TestS3RoundTrip(t *testing.T) {
	store := newMemoryS3()
	r := &Resolver{S3: store}
	payload := []byte("6 6\n0 1\n1 2\n0 2\n3 4\n4 5\n3 5\n")

	w, err := r.Create(context.Background(), "s3://graphs/triangles.txt")
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)

	_, err = r.Open(context.Background(), "s3://graphs/triangles.txt")
	assert.Error(t, err, "object must not exist before Close")

	require.NoError(t, w.Close())
	assert.Equal(t, payload, readAll(t, r, "s3://graphs/triangles.txt"))

	writeAll(t, r, "s3://graphs/triangles.txt.snappy", payload)
	assert.Equal(t, payload, readAll(t, r, "s3://graphs/triangles.txt.snappy"))
	assert.NotEqual(t, payload, store.objects["graphs/triangles.txt.snappy"])
}

func TestS3RequiresClient(t *testing.T) {
	r := &Resolver{}

	_, err := r.Open(context.Background(), "s3://bucket/key")
	assert.ErrorIs(t, err, ErrMissingS3Client)

	_, err = r.Create(context.Background(), "s3://bucket/key")
	assert.ErrorIs(t, err, ErrMissingS3Client)
}

func TestNewS3Client(t *testing.T) {
	client, err := NewS3Client(context.Background(), S3Options{
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "us-east-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *opts.BaseEndpoint)
}
