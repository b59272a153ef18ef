package watch

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFileWatcher_DetectsTrackedChanges(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "model.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(model, []byte("types: []\n"), 0644))
	require.NoError(t, os.WriteFile(other, []byte("x"), 0644))

	changes := make(chan []string, 4)
	watcher, err := NewFileWatcher([]string{model}, func(files []string) error {
		changes <- files
		return nil
	}, WithDebounce(50*time.Millisecond), WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer watcher.Stop()

	require.NoError(t, watcher.Start())
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("y"), 0644))
	require.NoError(t, os.WriteFile(model, []byte("types: [a]\n"), 0644))

	select {
	case files := <-changes:
		assert.Equal(t, []string{model}, files)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change for the tracked file")
	}
}

func TestNewFileWatcher(t *testing.T) {
	_, err := NewFileWatcher(nil, func([]string) error { return nil })
	assert.Error(t, err)

	dir := t.TempDir()
	a := filepath.Join(dir, "b.yaml")
	b := filepath.Join(dir, "sub", "..", "a.yaml")
	watcher, err := NewFileWatcher([]string{a, b}, func([]string) error { return nil })
	require.NoError(t, err)
	defer watcher.Stop()

	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), a}, watcher.Files())
	assert.Equal(t, []string{dir}, watcher.dirs)
	assert.True(t, watcher.tracks(filepath.Join(dir, "a.yaml")))
	assert.False(t, watcher.tracks(filepath.Join(dir, "c.yaml")))
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	watcher, err := NewFileWatcher([]string{filepath.Join(dir, "model.yaml")}, func([]string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, watcher.Start())

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string

	debouncer := NewDebouncer(50 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, f)
	})

	debouncer.Add("b.yaml")
	debouncer.Add("a.yaml")
	debouncer.Add("b.yaml")

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, calls[0])
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	count := 0

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	debouncer.Add("model.yaml")
	time.Sleep(150 * time.Millisecond)
	debouncer.Add("model.yaml")
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestDebouncer_CallbacksDoNotOverlap(t *testing.T) {
	var active, maxActive, calls int32

	debouncer := NewDebouncer(10 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		n := atomic.AddInt32(&active, 1)
		for {
			seen := atomic.LoadInt32(&maxActive)
			if n <= seen || atomic.CompareAndSwapInt32(&maxActive, seen, n) {
				break
			}
		}
		time.Sleep(80 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		atomic.AddInt32(&calls, 1)
	})

	debouncer.Add("model.yaml")
	time.Sleep(30 * time.Millisecond)
	debouncer.Add("mapping.yaml")
	time.Sleep(300 * time.Millisecond)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
}

func TestDebouncer_StopDropsPending(t *testing.T) {
	var mu sync.Mutex
	called := false

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("model.yaml")
	debouncer.Stop()
	debouncer.Add("mapping.yaml")
	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, called)
}
