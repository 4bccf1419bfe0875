// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/yeti-display/qrlcd/cmd/qrlcd/directory"
)

func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "watch [workbook]",
		Short:        "Watch the team workbook and re-parse it whenever it is saved",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			workbook := directory.WorkbookPath(name)
			if stat, err := os.Stat(workbook); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no such file: '%s'", workbook)
				}
				return fmt.Errorf("can't stat file '%s', reason: %w", workbook, err)
			} else if stat.IsDir() {
				return fmt.Errorf("can't watch directory: '%s'", workbook)
			}

			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}
			blocks, err := loadBlocks(cfg)
			if err != nil {
				return err
			}

			watcher, err := newWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			// Spreadsheet programs replace the file on save, so the directory is
			// watched.
			if err := watcher.Watch(filepath.Dir(workbook)); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching '%s'\n", workbook)
			run := func() {
				if err := parseWorkbook(workbook, output, blocks); err != nil {
					fmt.Fprintln(out, "Error:", err)
					return
				}
				fmt.Fprintf(out, "Wrote '%s'\n", output)
			}
			run()
			onWatchChanges(cmd.Context(), watcher, workbook, out, run)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", directory.ParsedFile, "file the tokens are written to")
	return cmd
}

type watcher struct {
	sync.Mutex
	watcher *fsnotify.Watcher

	paths map[string]struct{}
}

func newWatcher() (*watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{
		watcher: w,
		paths:   map[string]struct{}{},
	}, nil
}

func (w *watcher) Close() error {
	return w.watcher.Close()
}

func (w *watcher) Events() chan fsnotify.Event {
	return w.watcher.Events
}

func (w *watcher) Errors() chan error {
	return w.watcher.Errors
}

func (w *watcher) Watch(paths ...string) (err error) {
	for i, p := range paths {
		if paths[i], err = filepath.EvalSymlinks(p); err != nil {
			return err
		}
	}

	w.Lock()
	defer w.Unlock()
	for _, p := range paths {
		if _, ok := w.paths[p]; ok {
			continue
		}
		if err := w.watcher.Add(p); err != nil {
			return err
		}
		w.paths[p] = struct{}{}
	}
	return nil
}

// isWorkbookEvent reports whether event touches the workbook. Lock files
// written next to it by spreadsheet programs are ignored.
func isWorkbookEvent(event fsnotify.Event, workbook string) bool {
	if filepath.Base(event.Name) != filepath.Base(workbook) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// onWatchChanges calls run once per burst of changes to the workbook until
// the context is cancelled or the watcher is closed.
func onWatchChanges(ctx context.Context, watcher *watcher, workbook string, out io.Writer, run func()) {
	fired := false
	ticketDuration := 100 * time.Millisecond
	ticker := time.NewTicker(ticketDuration)
	defer ticker.Stop()
	pending := false
	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return
			}
			if !isWorkbookEvent(event, workbook) {
				continue
			}
			if !fired {
				fmt.Fprintf(out, "File modified '%s'\n", event.Name)
				fired = true
				ticker.Reset(ticketDuration)
			}
			pending = true
		case <-ticker.C:
			// Parse once the burst of writes has settled.
			if pending {
				run()
				pending = false
			}
			fired = false
		case err, ok := <-watcher.Errors():
			if !ok {
				return
			}
			fmt.Fprintln(out, "Watch error:", err)
		case <-ctx.Done():
			return
		}
	}
}
