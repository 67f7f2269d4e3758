// Package widget holds the display widget: the prompt and image URL of the
// current entry, loaded by a single fetch per mount.
package widget

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/basel-ax/museframe/internal/domain"
)

// View is a snapshot of what the widget renders
type View struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
	Loaded   bool   `json:"loaded"`
}

// Widget owns the render state. A Widget can be mounted many times; every
// mount starts from empty state and issues exactly one fetch.
type Widget struct {
	fetcher domain.EntryFetcher
	log     *zap.SugaredLogger

	mu         sync.RWMutex
	view       View
	generation uint64
}

// New creates an unloaded widget
func New(fetcher domain.EntryFetcher, log *zap.SugaredLogger) *Widget {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Widget{
		fetcher: fetcher,
		log:     log,
	}
}

// Mount resets the widget to its empty state and starts the single fetch
// of the new mount. It does not wait for the fetch.
func (w *Widget) Mount(ctx context.Context) *Mount {
	w.mu.Lock()
	w.generation++
	m := &Mount{
		widget:     w,
		generation: w.generation,
		done:       make(chan struct{}),
	}
	w.view = View{}
	w.mu.Unlock()

	go m.load(ctx)

	return m
}

// Render returns the current state. It never blocks on a fetch.
func (w *Widget) Render() View {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view
}

// apply stores the entry if the mount is still the current one
func (w *Widget) apply(generation uint64, entry *domain.Entry) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if generation != w.generation {
		return false
	}

	w.view = View{
		Prompt:   entry.Prompt,
		ImageURL: entry.Images.Small,
		Loaded:   true,
	}
	return true
}

func (w *Widget) unmount(generation uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if generation != w.generation {
		return
	}
	w.generation++
	w.view = View{}
}

// Mount is one lifetime of the widget
type Mount struct {
	widget     *Widget
	generation uint64

	done  chan struct{}
	entry *domain.Entry
	err   error
}

func (m *Mount) load(ctx context.Context) {
	defer close(m.done)
	defer func() {
		if r := recover(); r != nil {
			m.err = fmt.Errorf("entry fetch panicked: %v", r)
			m.widget.log.Errorw("entry fetch panicked", "panic", r)
		}
	}()

	entry, err := m.widget.fetcher.FetchEntry(ctx)
	if err != nil {
		m.err = err
		m.widget.log.Warnw("failed to load entry, keeping empty state", "error", err)
		return
	}
	if entry == nil {
		entry = &domain.Entry{}
	}
	m.entry = entry

	if !m.widget.apply(m.generation, entry) {
		m.widget.log.Debugw("discarding entry of a stale mount", "generation", m.generation)
		return
	}

	if entry.Images.Small == "" {
		m.widget.log.Warnw("entry has no image url", "prompt", entry.Prompt)
	}
	m.widget.log.Infow("entry loaded", "prompt", entry.Prompt, "image_url", entry.Images.Small)
}

// Done is closed once the fetch of this mount has completed
func (m *Mount) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the fetch completes and returns its result
func (m *Mount) Wait(ctx context.Context) (*domain.Entry, error) {
	select {
	case <-m.done:
		return m.entry, m.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unmount drops the mount. The request keeps running but its result is
// discarded.
func (m *Mount) Unmount() {
	m.widget.unmount(m.generation)
}
