package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/genscript/internal/snapshot"
	"github.com/hyperengineering/genscript/internal/store"
	"github.com/hyperengineering/genscript/internal/types"
)

// mockSnapshotStore implements the SnapshotStore interface for testing.
type mockSnapshotStore struct {
	mu            sync.Mutex
	generateCalls int
	generateErr   error
	lastPath      string
}

func (m *mockSnapshotStore) GenerateSnapshot(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls++
	m.lastPath = path
	return m.generateErr
}

func (m *mockSnapshotStore) GetGenerateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}

// mockUploader implements snapshot.Uploader for testing.
type mockUploader struct {
	mu        sync.Mutex
	calls     int
	lastPath  string
	uploadErr error
}

func (m *mockUploader) Upload(ctx context.Context, filePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastPath = filePath
	return m.uploadErr
}

func (m *mockUploader) PresignedURL(ctx context.Context) (string, time.Time, error) {
	return "", time.Time{}, snapshot.ErrNotConfigured
}

func (m *mockUploader) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func runWorker(t *testing.T, w *SnapshotWorker, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(d)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Worker did not stop on context cancellation")
	}
}

func TestSnapshotWorker_GeneratesOnStart(t *testing.T) {
	s := &mockSnapshotStore{}
	u := &mockUploader{}
	w := NewSnapshotWorker(s, u, "/data/snap.db", time.Hour)

	runWorker(t, w, 50*time.Millisecond)

	if s.GetGenerateCalls() != 1 {
		t.Errorf("Expected 1 GenerateSnapshot call on start, got %d", s.GetGenerateCalls())
	}
	if s.lastPath != "/data/snap.db" {
		t.Errorf("path = %q, want /data/snap.db", s.lastPath)
	}
	if u.GetCalls() != 1 || u.lastPath != "/data/snap.db" {
		t.Errorf("uploader calls = %d path = %q", u.GetCalls(), u.lastPath)
	}
}

func TestSnapshotWorker_GeneratesOnInterval(t *testing.T) {
	s := &mockSnapshotStore{}
	w := NewSnapshotWorker(s, &mockUploader{}, "snap.db", 50*time.Millisecond)

	runWorker(t, w, 180*time.Millisecond)

	if calls := s.GetGenerateCalls(); calls < 3 {
		t.Errorf("Expected at least 3 GenerateSnapshot calls (initial + 2 intervals), got %d", calls)
	}
}

func TestSnapshotWorker_SkipsUploadOnGenerateError(t *testing.T) {
	s := &mockSnapshotStore{generateErr: errors.New("disk full")}
	u := &mockUploader{}
	w := NewSnapshotWorker(s, u, "snap.db", time.Hour)

	if ok := w.RunOnce(context.Background()); ok {
		t.Error("RunOnce() = true, want false")
	}
	if u.GetCalls() != 0 {
		t.Errorf("uploader called %d times, want 0", u.GetCalls())
	}
}

func TestSnapshotWorker_UploadErrorIsNotFatal(t *testing.T) {
	s := &mockSnapshotStore{}
	u := &mockUploader{uploadErr: errors.New("access denied")}
	w := NewSnapshotWorker(s, u, "snap.db", 50*time.Millisecond)

	runWorker(t, w, 130*time.Millisecond)

	if u.GetCalls() < 2 {
		t.Errorf("Expected worker to keep running after upload failures, got %d uploads", u.GetCalls())
	}
}

func TestSnapshotWorker_NilUploaderIsNoop(t *testing.T) {
	w := NewSnapshotWorker(&mockSnapshotStore{}, nil, "snap.db", time.Hour)

	if ok := w.RunOnce(context.Background()); !ok {
		t.Error("RunOnce() = false, want true")
	}
}

func TestSnapshotWorker_RealStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewSQLiteStore(filepath.Join(dir, "genscript.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.SaveIdeas(ctx, []types.Idea{{Title: "Snapshot me", Description: "d"}}); err != nil {
		t.Fatalf("SaveIdeas() error = %v", err)
	}

	snapPath := filepath.Join(dir, "snapshots", "genscript.db")
	w := NewSnapshotWorker(s, &snapshot.NoopUploader{}, snapPath, time.Hour)
	if ok := w.RunOnce(ctx); !ok {
		t.Fatal("RunOnce() = false, want true")
	}

	snap, err := store.NewSQLiteStore(snapPath)
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snap.Close()

	ideas, err := snap.ListIdeas(ctx)
	if err != nil {
		t.Fatalf("ListIdeas() error = %v", err)
	}
	if len(ideas) != 1 || ideas[0].Title != "Snapshot me" {
		t.Errorf("snapshot ideas = %+v", ideas)
	}
}
