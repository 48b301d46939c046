package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestWatcherDeliversDebouncedBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.lua")
	b := filepath.Join(dir, "b.lua")
	writeFile(t, a, "-- a")
	writeFile(t, b, "-- b")

	w, err := New(50 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(a))
	require.NoError(t, w.Add(b))

	writeFile(t, a, "-- a2")
	writeFile(t, b, "-- b2")

	ev := waitEvent(t, w)
	assert.ElementsMatch(t, []string{a, b}, ev.Paths)
}

func TestWatcherIgnoresUntrackedFiles(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "commands.yaml")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, tracked, "commands: []")

	w, err := New(30 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(tracked))

	writeFile(t, other, "hello")

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %v", ev.Paths)
	case <-time.After(200 * time.Millisecond):
	}

	writeFile(t, tracked, "commands: [] # edited")
	ev := waitEvent(t, w)
	assert.Equal(t, []string{tracked}, ev.Paths)
}

func TestWatcherSurvivesRenameReplace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "tick.lua")
	writeFile(t, target, "-- v1")

	w, err := New(30 * time.Millisecond)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(target))

	tmp := filepath.Join(dir, "tick.lua.tmp")
	writeFile(t, tmp, "-- v2")
	require.NoError(t, os.Rename(tmp, target))

	ev := waitEvent(t, w)
	assert.Contains(t, ev.Paths, target)
}

func TestWatcherSetReplacesFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.lua")
	b := filepath.Join(dir, "b.lua")
	writeFile(t, a, "")
	writeFile(t, b, "")

	w, err := New(0)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(a))
	require.NoError(t, w.Add(a))
	assert.Equal(t, []string{a}, w.Files())

	require.NoError(t, w.Set([]string{b}))
	assert.Equal(t, []string{b}, w.Files())
}

func TestWatcherClose(t *testing.T) {
	w, err := New(10 * time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)

	assert.ErrorIs(t, w.Add(filepath.Join(t.TempDir(), "x")), ErrClosed)
}
