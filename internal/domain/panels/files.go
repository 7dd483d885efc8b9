package panels

import (
	"encoding/base64"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/MoltOS/backend/internal/shared/utils"
)

// FileType distinguishes files from folders
type FileType string

const (
	TypeFile   FileType = "file"
	TypeFolder FileType = "folder"
)

// FileItem is one entry of the in-memory tree
type FileItem struct {
	Name     string    `json:"name"`
	Type     FileType  `json:"type"`
	Size     int       `json:"size,omitempty"`
	Modified time.Time `json:"modified"`
	Path     string    `json:"path"`
	MimeType string    `json:"mime_type,omitempty"`
}

// Preview is the head of a file with its detected content type
type Preview struct {
	FileItem
	Text      string `json:"text,omitempty"`
	Truncated bool   `json:"truncated"`
	Binary    bool   `json:"binary"`
}

const previewLimit = 4096

type node struct {
	item    FileItem
	content []byte
}

// Files is a read-only virtual file tree. Nothing touches the real disk.
type Files struct {
	mu    sync.RWMutex
	nodes map[string]*node // Protected by mu, keyed by clean absolute path
}

// NewFiles builds the tree from seed entries; parent folders are implied
func NewFiles(seed []SeedFile, now time.Time) (*Files, error) {
	f := &Files{nodes: map[string]*node{
		"/": {item: FileItem{Name: "/", Type: TypeFolder, Path: "/", Modified: now}},
	}}

	for _, s := range seed {
		p := path.Clean("/" + s.Path)
		f.ensureDir(path.Dir(p), now)
		if s.Folder {
			f.ensureDir(p, now)
			continue
		}

		content := []byte(s.Content)
		if s.Base64 != "" {
			raw, err := base64.StdEncoding.DecodeString(s.Base64)
			if err != nil {
				return nil, fmt.Errorf("seed file %s: %w", p, err)
			}
			content = raw
		}
		f.nodes[p] = &node{
			item: FileItem{
				Name:     path.Base(p),
				Type:     TypeFile,
				Size:     len(content),
				Modified: now,
				Path:     p,
				MimeType: mimetype.Detect(content).String(),
			},
			content: content,
		}
	}
	return f, nil
}

func (f *Files) ensureDir(p string, now time.Time) {
	for p != "/" {
		if _, ok := f.nodes[p]; ok {
			return
		}
		f.nodes[p] = &node{item: FileItem{Name: path.Base(p), Type: TypeFolder, Path: p, Modified: now}}
		p = path.Dir(p)
	}
}

// List returns the children of dir, folders first then by name
func (f *Files) List(dir string) ([]FileItem, error) {
	dir = path.Clean("/" + dir)

	f.mu.RLock()
	defer f.mu.RUnlock()

	n, ok := f.nodes[dir]
	if !ok {
		return nil, fmt.Errorf("%w: no such folder %s", ErrNotFound, dir)
	}
	if n.item.Type != TypeFolder {
		return nil, fmt.Errorf("%w: %s is not a folder", utils.ErrInvalid, dir)
	}

	var out []FileItem
	for p, child := range f.nodes {
		if p != "/" && path.Dir(p) == dir {
			out = append(out, child.item)
		}
	}
	sortItems(out)
	return out, nil
}

// Search matches pattern against every path, relative to the root.
// "*.md" matches top-level files, "**/*.json" matches at any depth.
func (f *Files) Search(pattern string) ([]FileItem, error) {
	if err := utils.ValidateString(pattern, "pattern", 1, utils.MaxPatternSize, true); err != nil {
		return nil, err
	}
	pattern = strings.TrimPrefix(pattern, "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: bad glob pattern %q", utils.ErrInvalid, pattern)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []FileItem
	for p, n := range f.nodes {
		if p == "/" {
			continue
		}
		if ok, _ := doublestar.Match(pattern, strings.TrimPrefix(p, "/")); ok {
			out = append(out, n.item)
		}
	}
	sortItems(out)
	return out, nil
}

// Preview returns the head of a file. Binary content is reported but not
// returned.
func (f *Files) Preview(p string) (Preview, error) {
	p = path.Clean("/" + p)

	f.mu.RLock()
	defer f.mu.RUnlock()

	n, ok := f.nodes[p]
	if !ok {
		return Preview{}, fmt.Errorf("%w: no such file %s", ErrNotFound, p)
	}
	if n.item.Type == TypeFolder {
		return Preview{}, fmt.Errorf("%w: %s is a folder", utils.ErrInvalid, p)
	}

	pv := Preview{FileItem: n.item}
	if !isText(n.item.MimeType) {
		pv.Binary = true
		return pv, nil
	}
	body := n.content
	if len(body) > previewLimit {
		body = body[:previewLimit]
		pv.Truncated = true
	}
	pv.Text = string(body)
	return pv, nil
}

func isText(mime string) bool {
	m := mimetype.Lookup(strings.SplitN(mime, ";", 2)[0])
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func sortItems(items []FileItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == TypeFolder
		}
		return items[i].Path < items[j].Path
	})
}
