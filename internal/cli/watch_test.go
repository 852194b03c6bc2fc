package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects checked paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
	seen  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: make(chan struct{}, 16)}
}

func (r *recorder) check(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func (r *recorder) wait(t *testing.T, n int) []string {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.seen:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d of %d checks", i, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

type loopHarness struct {
	events chan fsnotify.Event
	errs   chan error
	cancel context.CancelFunc
	done   chan error
}

func startLoop(t *testing.T, debounce time.Duration, rec *recorder) *loopHarness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	lh := &loopHarness{
		events: make(chan fsnotify.Event),
		errs:   make(chan error),
		cancel: cancel,
		done:   make(chan error, 1),
	}
	opts := &WatchOptions{RootOptions: &RootOptions{}}
	go func() {
		lh.done <- watchLoop(ctx, lh.events, lh.errs, debounce, rec.check, opts)
	}()
	t.Cleanup(cancel)
	return lh
}

func (lh *loopHarness) stop(t *testing.T) {
	t.Helper()
	lh.cancel()
	select {
	case err := <-lh.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestWatchLoop_Immediate(t *testing.T) {
	rec := newRecorder()
	lh := startLoop(t, 0, rec)

	lh.events <- fsnotify.Event{Name: "a.cue", Op: fsnotify.Write}
	lh.events <- fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}
	lh.events <- fsnotify.Event{Name: "b.xml", Op: fsnotify.Remove}
	lh.events <- fsnotify.Event{Name: "c.xml", Op: fsnotify.Create}

	assert.Equal(t, []string{"a.cue", "c.xml"}, rec.wait(t, 2))
	lh.stop(t)
}

func TestWatchLoop_Debounce(t *testing.T) {
	rec := newRecorder()
	lh := startLoop(t, 50*time.Millisecond, rec)

	lh.events <- fsnotify.Event{Name: "z.cue", Op: fsnotify.Write}
	lh.events <- fsnotify.Event{Name: "a.cue", Op: fsnotify.Write}
	lh.events <- fsnotify.Event{Name: "z.cue", Op: fsnotify.Write}

	assert.Equal(t, []string{"a.cue", "z.cue"}, rec.wait(t, 2))
	lh.stop(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.paths, 2)
}

func TestWatchLoop_ErrorsDoNotStop(t *testing.T) {
	rec := newRecorder()
	lh := startLoop(t, 0, rec)

	lh.errs <- errors.New("overflow")
	lh.events <- fsnotify.Event{Name: "a.cue", Op: fsnotify.Write}

	assert.Equal(t, []string{"a.cue"}, rec.wait(t, 1))
	lh.stop(t)
}

func TestWatchLoop_ClosedEvents(t *testing.T) {
	rec := newRecorder()
	lh := startLoop(t, 0, rec)

	close(lh.events)
	select {
	case err := <-lh.done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestScanWatchDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	for _, name := range []string{
		filepath.Join(dir, "a.cue"),
		filepath.Join(dir, "README.md"),
		filepath.Join(sub, "b.xml"),
	} {
		require.NoError(t, os.WriteFile(name, nil, 0o644))
	}

	files, dirs, err := scanWatchDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.cue"), filepath.Join(sub, "b.xml")}, files)
	assert.Equal(t, []string{dir, sub}, dirs)

	_, _, err = scanWatchDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestReportCheck(t *testing.T) {
	var out bytes.Buffer
	formatter := &OutputFormatter{Format: "text", Writer: &out}
	opts := &WatchOptions{RootOptions: &RootOptions{}}

	reportCheck(formatter, opts, fixturePath("countdown.cue"))
	assert.Contains(t, out.String(), "✓ "+fixturePath("countdown.cue"))
	assert.Contains(t, out.String(), "root Invoke")

	out.Reset()
	reportCheck(formatter, opts, fixturePath("broken.cue"))
	assert.Contains(t, out.String(), "Error [E010]")
}

func TestWatch_MissingDir(t *testing.T) {
	out, err := execute(t, "watch", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
