package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_IsWorkbookEvent(t *testing.T) {
	workbook := filepath.Join("team", "qr_code.xlsx")
	assert.True(t, isWorkbookEvent(fsnotify.Event{Name: "team/qr_code.xlsx", Op: fsnotify.Write}, workbook))
	assert.True(t, isWorkbookEvent(fsnotify.Event{Name: "team/qr_code.xlsx", Op: fsnotify.Create}, workbook))
	assert.False(t, isWorkbookEvent(fsnotify.Event{Name: "team/qr_code.xlsx", Op: fsnotify.Chmod}, workbook))
	assert.False(t, isWorkbookEvent(fsnotify.Event{Name: "team/~$qr_code.xlsx", Op: fsnotify.Write}, workbook))
	assert.False(t, isWorkbookEvent(fsnotify.Event{Name: "team/notes.txt", Op: fsnotify.Write}, workbook))
}

func Test_OnWatchChanges(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "qr_code.xlsx")

	w, err := newWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runs := make(chan struct{}, 8)
	var out bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		onWatchChanges(ctx, w, workbook, &out, func() { runs <- struct{}{} })
	}()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(workbook, []byte("one"), 0644))
	require.NoError(t, os.WriteFile(workbook, []byte("two"), 0644))

	select {
	case <-runs:
	case <-ctx.Done():
		t.Fatal("workbook change was not picked up")
	}
	cancel()
	<-done
	assert.Contains(t, out.String(), "File modified")
}
