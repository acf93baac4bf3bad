package watch

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const testDelay = 50 * time.Millisecond

func waitBatch(t *testing.T, w *Watcher) []string {
	t.Helper()
	select {
	case batch := <-w.Changes():
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("no change delivered")
		return nil
	}
}

func write(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, WithDelay(testDelay))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	vert := filepath.Join(dir, "a.vert")
	frag := filepath.Join(dir, "a.frag")
	write(t, vert, "one")
	write(t, vert, "two")
	write(t, frag, "three")

	got := waitBatch(t, w)
	if want := []string{frag, vert}; !slices.Equal(got, want) {
		t.Errorf("batch = %v, want %v", got, want)
	}

	select {
	case extra := <-w.Changes():
		t.Errorf("unexpected second batch %v", extra)
	case <-time.After(4 * testDelay):
	}
}

func TestWatcherFilter(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, WithDelay(testDelay), WithExtensions(".frag"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	write(t, filepath.Join(dir, "notes.txt"), "ignored")
	frag := filepath.Join(dir, "b.frag")
	write(t, frag, "kept")

	got := waitBatch(t, w)
	if !slices.Equal(got, []string{frag}) {
		t.Errorf("batch = %v, want only %s", got, frag)
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if _, ok := <-w.Changes(); ok {
		t.Error("Changes not closed")
	}
	if err := w.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() = %v, want ErrClosed", err)
	}
	if _, ok := w.Poll(); ok {
		t.Error("Poll on closed watcher reported a batch")
	}
}

func TestNewMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("New on a missing directory succeeded")
	}
}
