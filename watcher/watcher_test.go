package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShaderFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.frag")
	require.NoError(t, os.WriteFile(path, []byte("void main() {}\n"), 0o644))
	return path
}

func pending(w *Watcher) bool {
	select {
	case <-w.Reloads():
		return true
	default:
		return false
	}
}

func TestSignalOnWrite(t *testing.T) {
	path := newShaderFile(t)
	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("void main() { }\n"), 0o644))
	require.Eventually(t, func() bool { return pending(w) }, 5*time.Second, 10*time.Millisecond)
}

func TestSignalOnReplace(t *testing.T) {
	path := newShaderFile(t)
	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	tmp := path + ".swp"
	require.NoError(t, os.WriteFile(tmp, []byte("void main() {}\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	require.Eventually(t, func() bool { return pending(w) }, 5*time.Second, 10*time.Millisecond)
}

func TestBurstCollapses(t *testing.T) {
	path := newShaderFile(t)
	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 20; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString("void main() {}\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	require.Eventually(t, func() bool { return len(w.Reloads()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.LessOrEqual(t, cap(w.Reloads()), 1)
}

func TestIgnoresSiblings(t *testing.T) {
	path := newShaderFile(t)
	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	other := filepath.Join(filepath.Dir(path), "other.frag")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	assert.Never(t, func() bool { return pending(w) }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestRelevantOps(t *testing.T) {
	w := &Watcher{path: "/tmp/scene.frag"}
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/scene.frag", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/scene.frag", Op: fsnotify.Create}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/./scene.frag", Op: fsnotify.Rename}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/scene.frag", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/scene.frag", Op: fsnotify.Remove}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/other.frag", Op: fsnotify.Write}))
}

func TestNewRejectsBadPaths(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.frag"))
	assert.Error(t, err)

	_, err = New(t.TempDir())
	assert.ErrorContains(t, err, "is a directory")
}

func TestCloseTwice(t *testing.T) {
	w, err := New(newShaderFile(t))
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
