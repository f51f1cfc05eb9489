// Package static maps request targets onto files below the served root.
package static

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Resolution is where a request target leads.
type Resolution struct {
	// Path is the canonical file path below the root.
	Path string

	// MIME is the content type guessed from Path.
	MIME string

	// Redirect, when set, is the Location the client must be sent to
	// instead: the target named a directory without a trailing slash.
	Redirect string
}

// Resolver resolves targets against one root directory.
type Resolver struct {
	root  string
	mimes MIMETable
}

// NewResolver creates a resolver serving root. The root is made absolute
// and its symlinks are evaluated once so containment checks compare
// canonical paths.
func NewResolver(root string, mimes MIMETable) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &ResolveError{Op: "root", Target: root, Err: errors.New("not a directory")}
	}
	if mimes == nil {
		mimes = DefaultMIMETypes()
	}
	return &Resolver{root: canonical, mimes: mimes}, nil
}

// Root returns the canonical served directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps a decoded request path onto a file. Directories resolve to
// their index.html. A result outside the root fails with ErrForbidden,
// checked before the directory redirect is considered.
func (r *Resolver) Resolve(target string) (*Resolution, error) {
	rel := strings.TrimLeft(target, "/")
	name := filepath.Join(r.root, filepath.FromSlash(rel))

	dir := false
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		dir = true
		name = filepath.Join(name, "index.html")
	}

	canonical, err := filepath.EvalSymlinks(name)
	if err != nil {
		canonical = filepath.Clean(name)
	}
	if !r.contains(canonical) {
		return nil, &ResolveError{Op: "resolve", Target: target, Path: canonical, Err: ErrForbidden}
	}

	res := &Resolution{Path: canonical, MIME: r.mimes.Lookup(canonical)}
	if dir && !strings.HasSuffix(target, "/") {
		res.Redirect = (&url.URL{Path: target + "/"}).EscapedPath()
	}
	return res, nil
}

func (r *Resolver) contains(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}

// File is the content and metadata of a resolved file.
type File struct {
	Content []byte
	ModTime time.Time
	Size    int64
}

// Open reads the file at a resolved path.
func (r *Resolver) Open(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ResolveError{Op: "open", Path: path, Err: ErrNotFound}
		}
		return nil, &ResolveError{Op: "open", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ResolveError{Op: "open", Path: path, Err: ErrNotFound}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNotFound
		}
		return nil, &ResolveError{Op: "open", Path: path, Err: err}
	}
	return &File{Content: content, ModTime: info.ModTime(), Size: info.Size()}, nil
}
