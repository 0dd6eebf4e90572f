package content

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"repro/internal/logging"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "repro.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := &Submission{UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice"}
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if sub.ID == 0 {
		t.Fatal("expected insert to assign an id")
	}
	if sub.State != StateUploaded || sub.Category != CategoryAudio {
		t.Fatalf("expected defaults, got state=%q category=%q", sub.State, sub.Category)
	}

	sub.State = StatePreviewed
	sub.SampleRate = 44100
	sub.SampleWidth = 16
	sub.Length = 180000
	sub.PreIngestScore = 42
	sub.Hostname = "worker-1"
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.Get(ctx, sub.UUID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected submission to be found")
	}
	if got.State != StatePreviewed || got.SampleRate != 44100 || got.PreIngestScore != 42 {
		t.Fatalf("unexpected stored submission: %+v", got)
	}
	if got.Hostname != "worker-1" {
		t.Fatalf("expected hostname worker-1, got %q", got.Hostname)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be persisted")
	}
}

func TestGetIsCaseInsensitiveAndMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := &Submission{UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice"}
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := store.Get(ctx, strings.ToUpper(sub.UUID))
	if err != nil || got == nil || got.ID != sub.ID {
		t.Fatalf("expected case-insensitive lookup, got %+v err=%v", got, err)
	}

	missing, err := store.Get(ctx, "00000000-0000-4000-8000-000000000000")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing submission, got %+v", missing)
	}
}

func TestGetReturnsOldestDuplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := &Submission{UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice"}
	second := &Submission{UUID: first.UUID, Owner: "bob"}
	for _, sub := range []*Submission{first, second} {
		if err := store.Upsert(ctx, sub); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	got, err := store.Get(ctx, first.UUID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("expected oldest row %d, got %d", first.ID, got.ID)
	}
}

func TestMostSimilarReferenceRoundTrips(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	original := &Submission{UUID: "11111111-1111-4111-8111-111111111111", Owner: "alice"}
	if err := store.Upsert(ctx, original); err != nil {
		t.Fatalf("insert original: %v", err)
	}
	copyCat := &Submission{
		UUID:              "22222222-2222-4222-9222-222222222222",
		Owner:             "bob",
		MostSimilarID:     &original.ID,
		MostSimilarArtist: "Artist",
		MostSimilarTrack:  "Track",
	}
	if err := store.Upsert(ctx, copyCat); err != nil {
		t.Fatalf("insert copy: %v", err)
	}

	got, err := store.GetByID(ctx, copyCat.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.MostSimilarID == nil || *got.MostSimilarID != original.ID {
		t.Fatalf("expected most similar id %d, got %v", original.ID, got.MostSimilarID)
	}
	if got.MostSimilarArtist != "Artist" || got.MostSimilarTrack != "Track" {
		t.Fatalf("unexpected most similar metadata: %+v", got)
	}

	none, err := store.GetByID(ctx, 9999)
	if err != nil || none != nil {
		t.Fatalf("expected nil for unknown id, got %+v err=%v", none, err)
	}
}

func TestUpdateUnknownIDFails(t *testing.T) {
	store := openTestStore(t)
	sub := &Submission{ID: 77, UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice"}
	if err := store.Upsert(context.Background(), sub); err == nil {
		t.Fatal("expected update of unknown row to fail")
	}
}

func TestChecksumRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := &Submission{UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice"}
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}

	record := &ChecksumRecord{SubmissionID: sub.ID, Begin: 0, End: 1024, Algorithm: "sha256", Digest: "aa", Timestamp: time.Now()}
	if err := store.SaveChecksum(ctx, record); err != nil {
		t.Fatalf("save checksum: %v", err)
	}
	record.Digest = "bb"
	if err := store.SaveChecksum(ctx, record); err != nil {
		t.Fatalf("update checksum: %v", err)
	}

	records, err := store.ChecksumsInRange(ctx, sub.ID, 0, 1024)
	if err != nil {
		t.Fatalf("checksums in range: %v", err)
	}
	if len(records) != 1 || records[0].Digest != "bb" {
		t.Fatalf("expected one updated record, got %+v", records)
	}

	other, err := store.ChecksumsInRange(ctx, sub.ID, 0, 2048)
	if err != nil {
		t.Fatalf("checksums in other range: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no records for a different range, got %d", len(other))
	}
}

func TestIdentityAndFingerprintLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	missing, err := store.ResolveIdentity(ctx, "admin")
	if err != nil || missing != nil {
		t.Fatalf("expected unresolved identity, got %+v err=%v", missing, err)
	}
	identity, err := store.EnsureIdentity(ctx, "admin")
	if err != nil {
		t.Fatalf("ensure identity: %v", err)
	}
	again, err := store.EnsureIdentity(ctx, "admin")
	if err != nil {
		t.Fatalf("ensure identity twice: %v", err)
	}
	if again.ID != identity.ID {
		t.Fatalf("expected stable identity id, got %d and %d", identity.ID, again.ID)
	}

	sub := &Submission{UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice"}
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}
	entry := &FingerprintLogEntry{SubmissionID: sub.ID, IdentityID: identity.ID, Algorithm: "EchoPrint", Version: "4.12", Origin: "direct"}
	if err := store.AppendFingerprintLog(ctx, entry); err != nil {
		t.Fatalf("append log: %v", err)
	}
	entries, err := store.FingerprintLogs(ctx, sub.ID)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if len(entries) != 1 || entries[0].Version != "4.12" || entries[0].Timestamp.IsZero() {
		t.Fatalf("unexpected log entries: %+v", entries)
	}
}

func TestCreationAndStateCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sub := &Submission{UUID: "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b", Owner: "alice", State: StateChecksummed}
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.SaveCreation(ctx, &Creation{SubmissionID: sub.ID, Artist: "A", Title: "T"}); err != nil {
		t.Fatalf("save creation: %v", err)
	}
	creation, err := store.CreationFor(ctx, sub.ID)
	if err != nil {
		t.Fatalf("creation for: %v", err)
	}
	if creation == nil || creation.Artist != "A" || creation.Release != "" {
		t.Fatalf("unexpected creation: %+v", creation)
	}

	counts, err := store.CountByState(ctx)
	if err != nil {
		t.Fatalf("count by state: %v", err)
	}
	if counts[StateChecksummed] != 1 {
		t.Fatalf("expected one checksummed submission, got %v", counts)
	}
}

func TestReopenChecksSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repro.db")
	store, err := OpenPath(path, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := OpenPath(path, nil); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestRejectionHelpers(t *testing.T) {
	err := error(Reject(ReasonFormatError, "sample rate %d below minimum", 8000))
	rejection, ok := AsRejection(err)
	if !ok {
		t.Fatal("expected rejection")
	}
	if rejection.Reason != ReasonFormatError {
		t.Fatalf("unexpected reason %q", rejection.Reason)
	}
	if !strings.Contains(err.Error(), "8000") {
		t.Fatalf("expected detail in message, got %q", err.Error())
	}
	if _, ok := AsRejection(errors.New("plain")); ok {
		t.Fatal("plain error must not be a rejection")
	}
}
