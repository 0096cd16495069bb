package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/relistr/mediakit/internal/stub"
	"github.com/relistr/mediakit/pkg/config"
	"github.com/relistr/mediakit/pkg/enums"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/scope"
)

func gallerySc() scope.Scope {
	return scope.Scope{EntityType: enums.EntityTypeProperty, EntityID: 7, Purpose: "property_gallery"}
}

func newClientAgainst(t *testing.T, handler http.Handler, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.APIConfig{
		BaseURL:        srv.URL,
		RequestTimeout: 5 * time.Second,
		UploadTimeout:  5 * time.Second,
	}, StaticTokenSource(token))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func newStubClient(t *testing.T, token string) (*Client, *stub.Store) {
	t.Helper()
	store := stub.NewStore()
	handler := stub.NewServer(store, nil, stub.Options{Token: token}).Router()
	return newClientAgainst(t, handler, token), store
}

func testFiles(names ...string) []File {
	files := make([]File, 0, len(names))
	for _, name := range names {
		content := "image bytes for " + name
		files = append(files, File{
			Name:        name,
			ContentType: "image/jpeg",
			Size:        int64(len(content)),
			Content:     strings.NewReader(content),
		})
	}
	return files
}

func TestUploadBatchCreatesRecordsAndReportsProgress(t *testing.T) {
	client, _ := newStubClient(t, "")

	var percents []int
	created, err := client.UploadBatch(context.Background(), gallerySc(), testFiles("a.jpg", "b.jpg"), func(percent int) {
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 created records, got %d", len(created))
	}
	if created[0].ID == created[1].ID {
		t.Fatal("server must assign unique ids")
	}

	if len(percents) == 0 {
		t.Fatal("expected progress callbacks")
	}
	if percents[len(percents)-1] != 100 {
		t.Fatalf("expected final progress 100, got %d", percents[len(percents)-1])
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress must be monotonic: %v", percents)
		}
	}
}

func TestFetchImagesRoundTrip(t *testing.T) {
	client, store := newStubClient(t, "")
	store.Create(gallerySc(), []stub.IncomingFile{
		{Name: "a.jpg", ContentType: "image/jpeg", SizeBytes: 10},
		{Name: "b.jpg", ContentType: "image/jpeg", SizeBytes: 20},
	})

	records, err := client.FetchImages(context.Background(), gallerySc())
	if err != nil {
		t.Fatalf("FetchImages: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if !records[0].IsPrimary {
		t.Fatal("expected first record primary")
	}
}

func TestMutationsRoundTrip(t *testing.T) {
	client, store := newStubClient(t, "")
	created := store.Create(gallerySc(), []stub.IncomingFile{
		{Name: "a.jpg", ContentType: "image/jpeg", SizeBytes: 10},
		{Name: "b.jpg", ContentType: "image/jpeg", SizeBytes: 20},
	})

	err := client.PersistOrder(context.Background(), gallerySc(), []ImageOrder{
		{ImageID: created[0].ID, SortOrder: 1},
		{ImageID: created[1].ID, SortOrder: 0},
	})
	if err != nil {
		t.Fatalf("PersistOrder: %v", err)
	}

	if err := client.SetPrimary(context.Background(), created[1].ID); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	if err := client.DeleteImage(context.Background(), created[0].ID); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}

	records, err := client.FetchImages(context.Background(), gallerySc())
	if err != nil {
		t.Fatalf("FetchImages: %v", err)
	}
	if len(records) != 1 || records[0].ID != created[1].ID {
		t.Fatalf("unexpected records after mutations: %+v", records)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	client, store := newStubClient(t, "sekrit")
	store.Create(gallerySc(), []stub.IncomingFile{{Name: "a.jpg", ContentType: "image/jpeg", SizeBytes: 10}})

	if _, err := client.FetchImages(context.Background(), gallerySc()); err != nil {
		t.Fatalf("expected authorized fetch to succeed: %v", err)
	}
}

func TestMissingTokenSurfacesUnauthorized(t *testing.T) {
	store := stub.NewStore()
	handler := stub.NewServer(store, nil, stub.Options{Token: "sekrit"}).Router()
	client := newClientAgainst(t, handler, "")

	_, err := client.FetchImages(context.Background(), gallerySc())
	if err == nil {
		t.Fatal("expected auth error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", pkgerrors.As(err).Code())
	}
}

func TestUploadPrefersServerErrorMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInsufficientStorage)
		_, _ = w.Write([]byte(`{"error":"storage quota exhausted"}`))
	})
	client := newClientAgainst(t, handler, "")

	_, err := client.UploadBatch(context.Background(), gallerySc(), testFiles("a.jpg"), nil)
	if err == nil {
		t.Fatal("expected transfer error")
	}
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeTransfer {
		t.Fatalf("expected transfer code, got %v", typed.Code())
	}
	if typed.Message() != "storage quota exhausted" {
		t.Fatalf("expected server message, got %q", typed.Message())
	}
}

func TestUploadFallsBackToGenericMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	client := newClientAgainst(t, handler, "")

	_, err := client.UploadBatch(context.Background(), gallerySc(), testFiles("a.jpg"), nil)
	if err == nil {
		t.Fatal("expected transfer error")
	}
	if got := pkgerrors.As(err).Message(); got != "Upload failed" {
		t.Fatalf("expected fallback message, got %q", got)
	}
}

func TestUploadBatchRejectsEmptyBatch(t *testing.T) {
	client, _ := newStubClient(t, "")
	if _, err := client.UploadBatch(context.Background(), gallerySc(), nil, nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(config.APIConfig{}, nil); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
