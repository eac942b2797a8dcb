package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	s3source "reefmap/internal/infra/source/s3"
	sourcecore "reefmap/internal/source/core"
)

// mockRoundTripper fakes the GetObject subset of S3 needed by the dataset
// source, keyed by path-style /bucket/key.
type mockRoundTripper struct {
	objects map[string][]byte
}

func (m *mockRoundTripper) Do(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return notFound(), nil
	}
	body, ok := m.objects[strings.TrimPrefix(req.URL.Path, "/")]
	if !ok {
		return notFound(), nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		ContentLength: int64(len(body)),
		Body:          io.NopCloser(bytes.NewReader(body)),
	}, nil
}

func notFound() *http.Response {
	payload := `<?xml version="1.0"?><Error><Code>NoSuchKey</Code></Error>`
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{"Content-Type": []string{"application/xml"}},
		Body:       io.NopCloser(strings.NewReader(payload)),
	}
}

func newMockStore(t *testing.T, objects map[string][]byte) *s3source.Store {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	t.Setenv("AWS_CA_BUNDLE", "")
	store, err := s3source.New(context.Background(), s3source.Config{
		Bucket:     "reef-data",
		Key:        "dataset.json",
		Region:     "us-east-1",
		Endpoint:   "https://mock.s3.local",
		PathStyle:  true,
		HTTPClient: &mockRoundTripper{objects: objects},
	})
	if err != nil {
		t.Fatalf("new s3 source: %v", err)
	}
	return store
}

func TestLoadFromObject(t *testing.T) {
	payload := []byte(`{"records":[{"colony_id":11,"year":2017,"transect":"T02","genus":"Acr","diam1":6,"diam2":6}]}`)
	store := newMockStore(t, map[string][]byte{"reef-data/dataset.json": payload})
	if store.Driver() != sourcecore.DriverS3 {
		t.Fatalf("driver = %s", store.Driver())
	}
	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Records) != 1 || doc.Records[0].ColonyID != 11 {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestLoadMissingObject(t *testing.T) {
	store := newMockStore(t, map[string][]byte{})
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestLoadMalformedObject(t *testing.T) {
	store := newMockStore(t, map[string][]byte{"reef-data/dataset.json": []byte("{nope")})
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := s3source.New(context.Background(), s3source.Config{}); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestOpenFromEnv(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	t.Setenv("REEFMAP_DATASET_S3_BUCKET", "")
	if _, err := s3source.OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without bucket env")
	}
	t.Setenv("REEFMAP_DATASET_S3_BUCKET", "env-bucket")
	t.Setenv("REEFMAP_DATASET_S3_REGION", "us-east-1")
	store, err := s3source.OpenFromEnv(context.Background())
	if err != nil {
		t.Fatalf("open from env: %v", err)
	}
	if store.Driver() != sourcecore.DriverS3 {
		t.Fatalf("driver = %s", store.Driver())
	}
}
