package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	SetupFileName = "setup.toml"
	TmpDirName    = "tmp"
)

// Layout resolves paths under a storage root
type Layout struct {
	Root string
}

// New returns the layout rooted at root
func New(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// SetupFile is the TOML document holding the setup flag
func (l Layout) SetupFile() string {
	return filepath.Join(l.Root, SetupFileName)
}

// TmpDir holds files being written before they are renamed into place
func (l Layout) TmpDir() string {
	return filepath.Join(l.Root, TmpDirName)
}

// StandardDirectories returns all directories that should exist
func (l Layout) StandardDirectories() []string {
	return []string{l.Root, l.TmpDir()}
}

// Ensure creates the standard directories
func (l Layout) Ensure() error {
	for _, dir := range l.StandardDirectories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Contains reports whether p lies inside the storage root
func (l Layout) Contains(p string) bool {
	rel, err := filepath.Rel(l.Root, filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateRoot checks that root can serve as a storage directory
func ValidateRoot(root string) error {
	if root == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}
	if !filepath.IsAbs(root) {
		return fmt.Errorf("storage directory must be absolute: %s", root)
	}
	return nil
}
