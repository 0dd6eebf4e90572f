package testsupport

import (
	"context"
	"testing"

	"repro/internal/config"
	"repro/internal/content"
	"repro/internal/logging"
)

// MustOpenStore opens a content.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *content.Store {
	t.Helper()

	store, err := content.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("content.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewSubmission inserts an uploaded submission for tests.
func NewSubmission(t testing.TB, store *content.Store, uuid, owner string, category content.Category) *content.Submission {
	t.Helper()

	sub := &content.Submission{UUID: uuid, Owner: owner, Category: category, State: content.StateUploaded}
	if err := store.Upsert(context.Background(), sub); err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return sub
}
