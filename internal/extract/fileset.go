package extract

// FileSet is an ordered mapping from relative path to file content.
//
// Insertion order is the order files were declared in the source text and is
// preserved through to upload, so a synthesized manifest always lands after
// the source file it describes. Duplicate paths are last-write-wins: content
// is replaced, the original position is kept.
type FileSet struct {
	paths    []string
	contents map[string]string
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{contents: make(map[string]string)}
}

// Set stores content under path, overwriting any previous content.
func (fs *FileSet) Set(path, content string) {
	if _, ok := fs.contents[path]; !ok {
		fs.paths = append(fs.paths, path)
	}
	fs.contents[path] = content
}

// Get returns the content for path and whether it exists.
func (fs *FileSet) Get(path string) (string, bool) {
	c, ok := fs.contents[path]
	return c, ok
}

// Delete removes path from the set. Missing paths are a no-op.
func (fs *FileSet) Delete(path string) {
	if _, ok := fs.contents[path]; !ok {
		return
	}
	delete(fs.contents, path)
	for i, p := range fs.paths {
		if p == path {
			fs.paths = append(fs.paths[:i], fs.paths[i+1:]...)
			break
		}
	}
}

// Paths returns the paths in insertion order. The returned slice is a copy.
func (fs *FileSet) Paths() []string {
	out := make([]string, len(fs.paths))
	copy(out, fs.paths)
	return out
}

// Len returns the number of files.
func (fs *FileSet) Len() int {
	return len(fs.paths)
}

// Map returns a plain map copy of the contents.
func (fs *FileSet) Map() map[string]string {
	out := make(map[string]string, len(fs.contents))
	for p, c := range fs.contents {
		out[p] = c
	}
	return out
}
