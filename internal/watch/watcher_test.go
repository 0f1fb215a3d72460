package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherRegeneratesOnWrite(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "cells.txt")
	require.NoError(t, os.WriteFile(table, []byte("nk (Named Key)|x\n"), 0o644))

	changed := make(chan string, 8)
	w, err := New([]string{table}, 20*time.Millisecond, func(path string) {
		changed <- path
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher a moment to be ready before the write
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(table, []byte("vk (Value Key)|x\n"), 0o644))

	select {
	case path := <-changed:
		require.Equal(t, table, path)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification within timeout")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "cells.txt")
	require.NoError(t, os.WriteFile(table, []byte("nk (Named Key)|x\n"), 0o644))

	changed := make(chan string, 8)
	w, err := New([]string{table}, 20*time.Millisecond, func(path string) {
		changed <- path
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0o644))

	select {
	case path := <-changed:
		t.Fatalf("unexpected notification for %s", path)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "cells.txt")
	require.NoError(t, os.WriteFile(table, []byte("a (A)|x\n"), 0o644))

	changed := make(chan string, 16)
	w, err := New([]string{table}, 100*time.Millisecond, func(path string) {
		changed <- path
	})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(table, []byte("b (B)|x\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	// one flush for the burst
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification within timeout")
	}

	select {
	case <-changed:
		t.Fatal("burst produced more than one notification per window")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherStopsWhenClosed(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "cells.txt")
	require.NoError(t, os.WriteFile(table, []byte("a (A)|x\n"), 0o644))

	w, err := New([]string{table}, 20*time.Millisecond, func(string) {})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
