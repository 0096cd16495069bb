package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/relistr/mediakit/pkg/config"
	"github.com/relistr/mediakit/pkg/enums"
	"github.com/relistr/mediakit/pkg/scope"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	cfg := config.JournalConfig{Path: filepath.Join(t.TempDir(), "journal.db")}
	j, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if j == nil {
		t.Fatal("expected journal for configured path")
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return j
}

func TestOpenDisabledReturnsNil(t *testing.T) {
	j, err := Open(context.Background(), config.JournalConfig{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if j != nil {
		t.Fatal("expected nil journal when no path is configured")
	}
}

func TestNilJournalIsNoOp(t *testing.T) {
	var j *Journal
	sc := scope.Scope{EntityType: enums.EntityTypeProperty, EntityID: 1, Purpose: "property_gallery"}

	if err := j.Record(context.Background(), sc, "upload", "x"); err != nil {
		t.Fatalf("Record on nil journal: %v", err)
	}
	entries, err := j.Recent(context.Background(), sc, 5)
	if err != nil || entries != nil {
		t.Fatalf("Recent on nil journal: %v %v", entries, err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close on nil journal: %v", err)
	}
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	gallery := scope.Scope{EntityType: enums.EntityTypeProperty, EntityID: 42, Purpose: "property_gallery"}
	plans := scope.Scope{EntityType: enums.EntityTypeProperty, EntityID: 42, Purpose: "floor_plan"}

	for i, op := range []string{"fetch", "upload", "reorder"} {
		if err := j.Record(ctx, gallery, op, "step"); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	if err := j.Record(ctx, plans, "upload", "other scope"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := j.Recent(ctx, gallery, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != "reorder" || entries[1].Operation != "upload" {
		t.Fatalf("expected newest first, got %+v", entries)
	}
	if entries[0].ScopeKey != gallery.Key() {
		t.Fatalf("unexpected scope key %q", entries[0].ScopeKey)
	}
	if entries[0].EntityType != "property" || entries[0].EntityID != 42 {
		t.Fatalf("scope columns not populated: %+v", entries[0])
	}
}

func TestRecentDefaultsLimit(t *testing.T) {
	j := openTestJournal(t)
	sc := scope.Scope{EntityType: enums.EntityTypeUser, EntityID: 7, Purpose: "avatar"}

	for i := 0; i < 25; i++ {
		if err := j.Record(context.Background(), sc, "upload", "n"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := j.Recent(context.Background(), sc, 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 20 {
		t.Fatalf("expected default limit 20, got %d", len(entries))
	}
}
