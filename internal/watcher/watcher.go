// Package watcher runs a handler for media files that appear in a folder.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one settled file. Calls are serialized.
type Handler func(ctx context.Context, path string)

// FolderMonitor watches a single directory (not recursively) and hands each
// matching file to the handler once its create/write events have been quiet
// for the debounce period.
type FolderMonitor struct {
	folderPath string
	extensions map[string]struct{}
	debounce   time.Duration
	handler    Handler
	logf       func(format string, args ...any)

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
}

func NewFolderMonitor(folderPath string, extensions []string, debounce time.Duration, handler Handler, logf func(string, ...any)) *FolderMonitor {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	return &FolderMonitor{
		folderPath: folderPath,
		extensions: exts,
		debounce:   debounce,
		handler:    handler,
		logf:       logf,
		pending:    make(map[string]*time.Timer),
		ready:      make(chan string),
	}
}

// Run watches until ctx is cancelled. It returns after the in-flight handler
// call, if any, has finished.
func (m *FolderMonitor) Run(ctx context.Context) error {
	st, err := os.Stat(m.folderPath)
	if err != nil {
		return fmt.Errorf("watch folder: %w", err)
	}
	if !st.IsDir() {
		return fmt.Errorf("watch folder: %s is not a directory", m.folderPath)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(m.folderPath); err != nil {
		return fmt.Errorf("watch %s: %w", m.folderPath, err)
	}
	m.logf("watching %s", m.folderPath)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.worker(ctx)
	}()
	defer func() {
		m.stopTimers()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			m.logf("stopped watching %s", m.folderPath)
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			m.handleEvent(ctx, event)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			m.logf("warning: watch error: %v", err)
		}
	}
}

func (m *FolderMonitor) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-m.ready:
			if _, err := os.Stat(path); err != nil {
				continue
			}
			m.handler(ctx, path)
		}
	}
}

func (m *FolderMonitor) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	path := event.Name
	if !m.isTargetFile(path) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.pending[path]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(m.debounce, func() {
		if !m.forget(path, t) {
			return
		}
		select {
		case m.ready <- path:
		case <-ctx.Done():
		}
	})
	m.pending[path] = t
}

// forget drops the pending entry for path if it still belongs to t. A timer
// that fired while a newer event replaced it reports false.
func (m *FolderMonitor) forget(path string, t *time.Timer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending[path] != t {
		return false
	}
	delete(m.pending, path)
	return true
}

func (m *FolderMonitor) stopTimers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for p, t := range m.pending {
		t.Stop()
		delete(m.pending, p)
	}
}

func (m *FolderMonitor) isTargetFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	if _, ok := m.extensions[strings.ToLower(filepath.Ext(path))]; !ok {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
