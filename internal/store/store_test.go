package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAllocateAndGetImage(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.AllocateImage(ctx, 1000)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	rec, err := st.GetImage(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.ID != id {
		t.Fatalf("expected id %d, got %d", id, rec.ID)
	}
	if rec.ExpiresAt != 1000 {
		t.Fatalf("expected expiry 1000, got %d", rec.ExpiresAt)
	}
}

func TestAllocateAndGetPaste(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	payload := []byte{0x28, 0xb5, 0x2f, 0xfd, 0x01, 0x02}
	id, err := st.AllocatePaste(ctx, 2000, payload)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	rec, err := st.GetPaste(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(rec.Payload) != string(payload) {
		t.Fatalf("payload mismatch: got %v want %v", rec.Payload, payload)
	}
	if rec.ExpiresAt != 2000 {
		t.Fatalf("expected expiry 2000, got %d", rec.ExpiresAt)
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if _, err := st.GetImage(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetPaste(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImageAndPasteNamespacesAreSeparate(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	imgID, err := st.AllocateImage(ctx, 100)
	if err != nil {
		t.Fatalf("allocate image: %v", err)
	}
	pasteID, err := st.AllocatePaste(ctx, 100, []byte("x"))
	if err != nil {
		t.Fatalf("allocate paste: %v", err)
	}
	if imgID != 1 || pasteID != 1 {
		t.Fatalf("expected both namespaces to start at 1, got image=%d paste=%d", imgID, pasteID)
	}
	if _, err := st.GetImage(ctx, pasteID); err != nil {
		t.Fatalf("image lookup should not see paste namespace: %v", err)
	}
}

func TestIDsAreMonotonicAndNeverReused(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	var last int64
	for round := 0; round < 3; round++ {
		for i := 0; i < 5; i++ {
			id, err := st.AllocateImage(ctx, 1)
			if err != nil {
				t.Fatalf("allocate: %v", err)
			}
			if id <= last {
				t.Fatalf("id %d not greater than previous %d", id, last)
			}
			if seen[id] {
				t.Fatalf("id %d reused", id)
			}
			seen[id] = true
			last = id
		}
		// Reap everything; AUTOINCREMENT must not hand the ids back.
		if _, err := st.ReapExpiredImages(ctx, 10); err != nil {
			t.Fatalf("reap: %v", err)
		}
	}
}

func TestReapExpiredImagesReturnsExactSet(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	expired1, _ := st.AllocateImage(ctx, 100)
	expired2, _ := st.AllocateImage(ctx, 200)
	live, err := st.AllocateImage(ctx, 900)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	ids, err := st.ReapExpiredImages(ctx, 500)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 reaped ids, got %v", ids)
	}
	got := map[int64]bool{ids[0]: true, ids[1]: true}
	if !got[expired1] || !got[expired2] {
		t.Fatalf("expected ids %d and %d, got %v", expired1, expired2, ids)
	}

	if _, err := st.GetImage(ctx, expired1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected reaped row gone, got %v", err)
	}
	if _, err := st.GetImage(ctx, live); err != nil {
		t.Fatalf("live row should survive: %v", err)
	}

	// A second pass finds nothing: ticks are idempotent.
	again, err := st.ReapExpiredImages(ctx, 500)
	if err != nil {
		t.Fatalf("second reap: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected empty second reap, got %v", again)
	}
}

func TestReapExpiredPastes(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	expired, _ := st.AllocatePaste(ctx, 100, []byte("old"))
	live, err := st.AllocatePaste(ctx, 900, []byte("new"))
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	ids, err := st.ReapExpiredPastes(ctx, 500)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(ids) != 1 || ids[0] != expired {
		t.Fatalf("expected [%d], got %v", expired, ids)
	}
	if _, err := st.GetPaste(ctx, live); err != nil {
		t.Fatalf("live paste should survive: %v", err)
	}
}

func TestReapBoundaryIsInclusive(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	id, err := st.AllocateImage(ctx, 500)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}

	ids, err := st.ReapExpiredImages(ctx, 500)
	if err != nil {
		t.Fatalf("reap: %v", err)
	}
	if len(ids) != 1 || ids[0] != id {
		t.Fatalf("expires == now must reap, got %v", ids)
	}
}
