package memory_test

import (
	"context"
	"errors"
	"testing"

	"reefmap/internal/infra/source/memory"
	"reefmap/internal/parse"
	sourcecore "reefmap/internal/source/core"
)

func TestLoadHeldDocument(t *testing.T) {
	doc := parse.Document{Records: []parse.RawRecord{{ColonyID: 1, Year: 2019, Genus: "Mil"}}}
	store := memory.New(doc)
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].Genus != "Mil" {
		t.Fatalf("unexpected document %+v", got)
	}
	if store.Driver() != sourcecore.DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
}

func TestLoadEmptyIsNoDataset(t *testing.T) {
	if _, err := memory.New(parse.Document{}).Load(context.Background()); !errors.Is(err, sourcecore.ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}

func TestNewJSON(t *testing.T) {
	store, err := memory.NewJSON([]byte(`{"records":[{"colony_id":5,"year":2012,"genus":"Por"}]}`))
	if err != nil {
		t.Fatalf("new json source: %v", err)
	}
	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Records[0].ColonyID != 5 {
		t.Fatalf("unexpected document %+v", doc)
	}
	if _, err := memory.NewJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}
