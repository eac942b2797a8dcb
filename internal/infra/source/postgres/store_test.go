package postgres_test

import (
	"context"
	"testing"

	"reefmap/internal/infra/source/postgres"
)

func TestNewRequiresDSN(t *testing.T) {
	if _, err := postgres.New(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestNewRejectsMalformedDSN(t *testing.T) {
	if _, err := postgres.New(context.Background(), "://not-a-dsn"); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}
