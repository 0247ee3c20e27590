package testsupport

import (
	"context"
	"testing"
	"time"

	"mediascan/internal/catalog"
	"mediascan/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// UpsertFile inserts a file row for tests.
func UpsertFile(t testing.TB, store *catalog.Store, path string, kind catalog.Kind, size int64, mtime time.Time) *catalog.MediaFile {
	t.Helper()

	file, err := store.UpsertFile(context.Background(), path, kind, size, mtime)
	if err != nil {
		t.Fatalf("store.UpsertFile: %v", err)
	}
	return file
}

// SignFile records a successful signature for a file row.
func SignFile(t testing.TB, store *catalog.Store, id int64, exactSig string, perceptualSig *uint64) {
	t.Helper()

	if err := store.RecordSignature(context.Background(), id, exactSig, perceptualSig, 0, 0, catalog.StatusSigned, ""); err != nil {
		t.Fatalf("store.RecordSignature: %v", err)
	}
}
