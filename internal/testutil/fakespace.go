package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/sitesmith/sitesmith/internal/space"
)

// FakeSpace is an in-memory space.Client for tests: spaces are maps of
// path to content, every mutation is recorded, and per-method error hooks
// let a test inject failures.
type FakeSpace struct {
	mu     sync.Mutex
	spaces map[string]map[string]string
	kinds  map[string]string

	// Uploads records every UploadFile call in order as "owner/name path".
	Uploads []string

	// ListErr, FetchErr, UploadErr and CreateErr, when set, are returned
	// by the corresponding method before touching state.
	ListErr   error
	FetchErr  error
	UploadErr error
	CreateErr error
}

// NewFakeSpace creates an empty fake.
func NewFakeSpace() *FakeSpace {
	return &FakeSpace{
		spaces: make(map[string]map[string]string),
		kinds:  make(map[string]string),
	}
}

// Seed provisions a space with the given files, bypassing Create.
func (f *FakeSpace) Seed(target space.Target, files map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make(map[string]string, len(files))
	for path, content := range files {
		stored[path] = content
	}
	f.spaces[target.ID()] = stored
}

// Files returns a copy of a space's current contents.
func (f *FakeSpace) Files(target space.Target) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.spaces[target.ID()]))
	for path, content := range f.spaces[target.ID()] {
		out[path] = content
	}
	return out
}

// Kind returns the runtime template a space was created with.
func (f *FakeSpace) Kind(target space.Target) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kinds[target.ID()]
}

func (f *FakeSpace) ListFiles(_ context.Context, target space.Target) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	files, ok := f.spaces[target.ID()]
	if !ok {
		return nil, fmt.Errorf("%s: %w", target.ID(), space.ErrNotFound)
	}
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	return paths, nil
}

func (f *FakeSpace) FetchFile(_ context.Context, target space.Target, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return "", f.FetchErr
	}
	files, ok := f.spaces[target.ID()]
	if !ok {
		return "", fmt.Errorf("%s: %w", target.ID(), space.ErrNotFound)
	}
	content, ok := files[path]
	if !ok {
		return "", fmt.Errorf("%s/%s: %w", target.ID(), path, space.ErrNotFound)
	}
	return content, nil
}

func (f *FakeSpace) UploadFile(_ context.Context, target space.Target, file space.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return f.UploadErr
	}
	files, ok := f.spaces[target.ID()]
	if !ok {
		return fmt.Errorf("%s: %w", target.ID(), space.ErrNotFound)
	}
	files[file.Path] = file.Content
	f.Uploads = append(f.Uploads, target.ID()+" "+file.Path)
	return nil
}

func (f *FakeSpace) Create(_ context.Context, target space.Target, kind string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return f.CreateErr
	}
	f.spaces[target.ID()] = make(map[string]string)
	f.kinds[target.ID()] = kind
	return nil
}
