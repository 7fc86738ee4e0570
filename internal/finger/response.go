package finger

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/planfiles/fingerd/internal/cache"
	"github.com/planfiles/fingerd/internal/catalog"
)

// timeLayout renders modification times in listing and metadata output.
const timeLayout = "2006-01-02 15:04:05"

// usageText is the response to any malformed request.
const usageText = `Invalid request.
Usage: finger [-l] [year/project]@host
Examples:
  finger @host              - List all projects
  finger -l @host           - List all projects with details
  finger 2025/proj@host     - View specific project
  finger -l 2025/proj@host  - View project with details
`

// Formatter renders responses for parsed requests. Listings come live from
// the catalog on every request; file contents go through the cache; file
// metadata in detailed responses is always read live from disk, so within
// the TTL window a detailed fetch can pair stale content with current
// size and modification time.
type Formatter struct {
	catalog *catalog.Catalog
	cache   *cache.Store
}

// NewFormatter creates a Formatter over the given catalog and cache.
func NewFormatter(cat *catalog.Catalog, store *cache.Store) *Formatter {
	return &Formatter{catalog: cat, cache: store}
}

// Format renders the response text for a request. Every response ends with
// a trailing newline. Per-entry filesystem failures degrade to inline
// annotations; Format itself never fails.
func (f *Formatter) Format(req Request) string {
	switch req.Kind {
	case KindListAll:
		return f.listAll()
	case KindListAllDetailed:
		return f.listAllDetailed()
	case KindFetchOne:
		return f.fetchOne(req.Year, req.Project)
	case KindFetchOneDetailed:
		return f.fetchOneDetailed(req.Year, req.Project)
	default:
		return usageText
	}
}

func (f *Formatter) listAll() string {
	var b strings.Builder
	b.WriteString("Available projects:\n")
	for _, id := range f.catalog.List() {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	return b.String()
}

func (f *Formatter) listAllDetailed() string {
	var b strings.Builder
	b.WriteString("Project listing (detailed):\n")
	for _, id := range f.catalog.List() {
		year, name, _ := strings.Cut(id, "/")
		meta, err := f.catalog.Stat(year, name)
		if err != nil {
			fmt.Fprintf(&b, "%-30s (error reading file: %v)\n", id, err)
			continue
		}
		fmt.Fprintf(&b, "%-30s %8d bytes  %s  (%s)\n",
			id, meta.Size, meta.Modified.Format(timeLayout),
			humanize.Bytes(uint64(meta.Size)))
	}
	return b.String()
}

func (f *Formatter) fetchOne(year, project string) string {
	content, err := f.cache.GetOrLoad(f.catalog.Resolve(year, project))
	if err != nil {
		return fmt.Sprintf("Project %s not found in year %s\n", project, year)
	}
	return fmt.Sprintf("Project: %s\n\n%s\n", project, content)
}

func (f *Formatter) fetchOneDetailed(year, project string) string {
	content, err := f.cache.GetOrLoad(f.catalog.Resolve(year, project))
	if err != nil {
		return fmt.Sprintf("Project %s not found in year %s\n", project, year)
	}

	// Metadata is read after the content fetch; if it fails at that point
	// the content is still returned behind an error annotation.
	meta, err := f.catalog.Stat(year, project)
	if err != nil {
		return fmt.Sprintf("Error reading project metadata: %v\n\n%s\n", err, content)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project)
	fmt.Fprintf(&b, "Location: %s/%s\n", year, project)
	fmt.Fprintf(&b, "Size: %d bytes (%s)\n", meta.Size, humanize.Bytes(uint64(meta.Size)))
	fmt.Fprintf(&b, "Modified: %s\n", meta.Modified.Format(timeLayout))
	b.WriteString("\nContent:\n")
	b.WriteString(content)
	b.WriteByte('\n')
	return b.String()
}
