// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"sort"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Options are passed to every backend factory. Backends read the fields they
// need and reject options they cannot serve, which lets NewSurface fall
// through to the next backend.
type Options struct {
	Width, Height int

	// Device, Queue and Window are required by GPU backends.
	Device hal.Device
	Queue  hal.Queue
	Window hal.Surface

	Format      gputypes.TextureFormat
	PresentMode gputypes.PresentMode
}

// Factory creates a Surface from options.
type Factory func(opts Options) (Surface, error)

// Entry describes a registered backend.
type Entry struct {
	Name string

	// Priority orders selection, higher first. The built-in swapchain uses
	// 100 and offscreen 10.
	Priority int

	Factory Factory

	// Available reports whether the backend can run on this system.
	Available func() bool
}

var globalRegistry = NewRegistry()

// Registry maps backend names to factories.
//
//	func init() {
//	    surface.Register("headless-gpu", 50, headlessFactory, headlessAvailable)
//	}
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry. Most code uses the package-level
// functions, which share one global registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds a backend to the global registry. A nil available means
// always available; registering an existing name replaces it.
func Register(name string, priority int, factory Factory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) { globalRegistry.Unregister(name) }

// List returns the registered backend names, highest priority first.
func List() []string { return globalRegistry.List() }

// Available returns the available backend names, highest priority first.
func Available() []string { return globalRegistry.Available() }

// Get returns a copy of the named entry.
func Get(name string) (*Entry, bool) { return globalRegistry.Get(name) }

// NewSurface creates a surface with the best backend that accepts opts.
func NewSurface(opts Options) (Surface, error) { return globalRegistry.NewSurface(opts) }

// NewSurfaceByName creates a surface with the named backend.
func NewSurfaceByName(name string, opts Options) (Surface, error) {
	return globalRegistry.NewSurfaceByName(name, opts)
}

// Register adds a backend to r.
func (r *Registry) Register(name string, priority int, factory Factory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*Entry)
	}
	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &Entry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backend from r.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns all backend names, highest priority first.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(false)
}

// Available returns the available backend names, highest priority first.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames(true)
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	c := *e
	return &c, true
}

// NewSurface tries each available backend in priority order and returns
// the first surface created. If every backend fails, the error of the
// lowest priority attempt is returned.
func (r *Registry) NewSurface(opts Options) (Surface, error) {
	r.mu.RLock()
	names := r.sortedNames(true)
	r.mu.RUnlock()

	if len(names) == 0 {
		return nil, ErrNoBackendAvailable
	}
	var lastErr error
	for _, name := range names {
		s, err := r.NewSurfaceByName(name, opts)
		if err == nil {
			return s, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// NewSurfaceByName creates a surface with the named backend.
func (r *Registry) NewSurfaceByName(name string, opts Options) (Surface, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	if !e.Available() {
		return nil, &BackendUnavailableError{Name: name}
	}
	return e.Factory(opts)
}

// sortedNames must be called with the lock held. Equal priorities sort by
// name so selection is deterministic.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Errors.
var (
	// ErrNoBackendAvailable is returned when no backend is registered or
	// available.
	ErrNoBackendAvailable = errors.New("surface: no backend available")

	// ErrNoWindow is returned by the swapchain backend when Options carries
	// no window surface.
	ErrNoWindow = errors.New("surface: no window surface")
)

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "surface: backend not found: " + e.Name
}

// BackendUnavailableError indicates a backend exists but cannot run here.
type BackendUnavailableError struct {
	Name string
}

func (e *BackendUnavailableError) Error() string {
	return "surface: backend unavailable: " + e.Name
}

func init() {
	Register("swapchain", 100, func(opts Options) (Surface, error) {
		if opts.Window == nil {
			return nil, ErrNoWindow
		}
		return NewSwapchain(opts.Window, opts.Device, opts.Queue, SwapchainConfig{
			Width:       opts.Width,
			Height:      opts.Height,
			Format:      opts.Format,
			PresentMode: opts.PresentMode,
		})
	}, nil)
	Register("offscreen", 10, func(opts Options) (Surface, error) {
		return NewOffscreen(opts.Width, opts.Height), nil
	}, nil)
}
