// Package catalog enumerates plan files beneath a root directory organized
// by year, and resolves year/project identifiers to filesystem paths.
package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Suffix marks a file as a plan/project file.
const Suffix = ".project"

// Metadata is live file metadata for detailed responses. It is read from
// disk at response time and never cached, so size and modification time
// reflect current state even when content is served from cache.
type Metadata struct {
	Size     int64
	Modified time.Time
}

// Catalog lists and resolves project files under a plan directory.
type Catalog struct {
	root string
}

// New creates a Catalog over root. The directory is not required to exist
// yet; a missing or unreadable root simply yields an empty listing.
func New(root string) *Catalog {
	return &Catalog{root: root}
}

// Root returns the plan directory the catalog scans.
func (c *Catalog) Root() string {
	return c.root
}

// List scans the root's immediate subdirectories, keeping only those whose
// name is entirely digits, and within each keeps regular files ending in
// Suffix. Identifiers are returned as "year/name", sorted ascending
// (lexicographic on the full string). The listing is recomputed on every
// call; only file contents are cached, never directory structure.
// Unreadable subdirectories are skipped.
func (c *Catalog) List() []string {
	projects := []string{}

	years, err := os.ReadDir(c.root)
	if err != nil {
		return projects
	}

	for _, year := range years {
		if !year.IsDir() || !IsYear(year.Name()) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(c.root, year.Name()))
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), Suffix) {
				continue
			}
			projects = append(projects, year.Name()+"/"+f.Name())
		}
	}

	sort.Strings(projects)
	return projects
}

// Resolve joins year and name beneath the root. It performs no existence
// check; callers discover missing files through the read attempt. The year
// must already be validated as all-digits by the request parser.
func (c *Catalog) Resolve(year, name string) string {
	return filepath.Join(c.root, year, name)
}

// Stat reads live metadata for a project file.
func (c *Catalog) Stat(year, name string) (Metadata, error) {
	info, err := os.Stat(c.Resolve(year, name))
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{Size: info.Size(), Modified: info.ModTime()}, nil
}

// IsYear reports whether s is non-empty and consists only of ASCII digits,
// the naming rule for year directories.
func IsYear(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
