package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"path/to/.hidden", true},
		{"/path/.hidden/file.pdf", true},
		{".config/.cache/data", true},
		{"file.pdf", false},
		{"path/to/file.pdf", false},
		{".", false},
		{"..", false},
		{"path/../file", false},
		{"", false},
		{"/", false},
		{"file.hidden", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		create    bool
		dir       bool
		op        fsnotify.Op
		expectNil bool
		expected  ChangeType
	}{
		{name: "create pdf", file: "book.pdf", create: true, op: fsnotify.Create, expected: ChangeCreated},
		{name: "write pdf", file: "book.pdf", create: true, op: fsnotify.Write, expected: ChangeUpdated},
		{name: "upper-case extension", file: "BOOK.PDF", create: true, op: fsnotify.Create, expected: ChangeCreated},
		{name: "write and chmod", file: "book.pdf", create: true, op: fsnotify.Write | fsnotify.Chmod, expected: ChangeUpdated},
		{name: "remove pdf", file: "gone.pdf", op: fsnotify.Remove, expected: ChangeDeleted},
		{name: "rename pdf", file: "moved.pdf", op: fsnotify.Rename, expected: ChangeDeleted},
		{name: "chmod only", file: "book.pdf", create: true, op: fsnotify.Chmod, expectNil: true},
		{name: "other extension", file: "notes.txt", create: true, op: fsnotify.Create, expectNil: true},
		{name: "hidden file", file: ".book.pdf", create: true, op: fsnotify.Create, expectNil: true},
		{name: "directory", file: "folder.pdf", dir: true, op: fsnotify.Create, expectNil: true},
		{name: "created then vanished", file: "temp.pdf", op: fsnotify.Create, expectNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			switch {
			case tt.dir:
				require.NoError(t, os.Mkdir(path, 0o755))
			case tt.create:
				require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
			}

			w := New(dir, WithExtensions("pdf"))
			change := w.handleEvent(fsnotify.Event{Name: path, Op: tt.op})
			if tt.expectNil {
				assert.Nil(t, change)
				return
			}
			require.NotNil(t, change)
			assert.Equal(t, tt.expected, change.Type)
			assert.Equal(t, path, change.Path)
		})
	}

	t.Run("no extension filter accepts any visible file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		change := New(dir).handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create})
		require.NotNil(t, change)
		assert.Equal(t, ChangeCreated, change.Type)
	})
}

func TestWatch(t *testing.T) {
	t.Run("reports a new file", func(t *testing.T) {
		dir := t.TempDir()
		w := New(dir, WithExtensions(".pdf"))
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		changes, err := w.Watch(ctx)
		require.NoError(t, err)

		path := filepath.Join(dir, "new.pdf")
		go func() {
			time.Sleep(50 * time.Millisecond)
			_ = os.WriteFile(path, []byte("%PDF-1.4"), 0o644)
		}()

		select {
		case change := <-changes:
			assert.Equal(t, ChangeCreated, change.Type)
			assert.Equal(t, path, change.Path)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for change")
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		changes, err := New("/non/existent/path").Watch(context.Background())
		require.Error(t, err)
		assert.Nil(t, changes)
		assert.Contains(t, err.Error(), "root path error")
	})

	t.Run("root is a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file.pdf")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		_, err := New(path).Watch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("channel closes on cancel", func(t *testing.T) {
		w := New(t.TempDir())
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := w.Watch(ctx)
		require.NoError(t, err)
		cancel()

		select {
		case _, ok := <-changes:
			if ok {
				for range changes {
				}
			}
		case <-time.After(time.Second):
			t.Fatal("channel did not close after cancellation")
		}
	})

	t.Run("closed watcher", func(t *testing.T) {
		w := New(t.TempDir())
		require.NoError(t, w.Close())
		require.NoError(t, w.Close())

		changes, err := w.Watch(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
		assert.Nil(t, changes)
	})
}
