package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile reduces path once, then again every time it is written, until
// ctx is done. The directory is watched because editors often replace the
// file instead of writing it.
func watchFile(ctx context.Context, path string, cfg config, stdout, stderr io.Writer, log *slog.Logger) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	reload := func() {
		src, err := os.ReadFile(abs)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return
		}
		if err := evaluate(string(src), cfg, stdout, stderr, log); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
	}
	reload()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("changed", "file", ev.Name, "op", ev.Op)
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch", "err", err)
		}
	}
}
